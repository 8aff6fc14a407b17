package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
	"card-scanner/internal/domain/port"
)

// LiveStats счётчики одного запуска поиска лиц с камеры.
type LiveStats struct {
	Frames   uint64 // прочитано кадров
	Dropped  uint64 // отброшено, пока шла детекция предыдущего
	Detected uint64 // завершено детекций
}

// LiveService поиск лиц на кадрах камеры в реальном времени.
type LiveService struct {
	flow     *FlowService
	camera   *CameraSession
	detector port.FaceDetector
	view     geometry.Size
	gravity  geometry.Gravity
	logger   *zap.Logger

	mu    sync.Mutex
	runs  map[int64]*liveRun
	onEnd func(userID, chatID int64, stats LiveStats)
}

type liveRun struct {
	userID   int64
	chatID   int64
	cancel   context.CancelFunc
	done     chan struct{}
	renderer *OverlayRenderer
	lease    *CameraLease

	frames   atomic.Uint64
	dropped  atomic.Uint64
	detected atomic.Uint64
}

func NewLiveService(flow *FlowService, camera *CameraSession, detector port.FaceDetector, view geometry.Size, gravity geometry.Gravity, logger *zap.Logger) *LiveService {
	return &LiveService{
		flow:     flow,
		camera:   camera,
		detector: detector,
		view:     view,
		gravity:  gravity,
		logger:   logger.Named("live"),
		runs:     make(map[int64]*liveRun),
	}
}

// Start переводит пользователя в поиск лиц с камеры и запускает обработку кадров.
// Если камера недоступна, пользователь возвращается в главное меню.
func (s *LiveService) Start(ctx context.Context, userID, chatID int64, sink port.OverlaySink) (*entity.User, error) {
	if s.detector == nil {
		return nil, fmt.Errorf("%w: face detector is not configured", ErrCapabilityUnavailable)
	}

	user, err := s.flow.ChooseLive(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	lease, err := s.camera.Acquire(ctx, userID)
	if err != nil {
		if _, cancelErr := s.flow.Cancel(ctx, userID, chatID); cancelErr != nil {
			s.logger.Warn("reset flow", zap.Int64("user_id", userID), zap.Error(cancelErr))
		}
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	run := &liveRun{
		userID:   userID,
		chatID:   chatID,
		cancel:   cancel,
		done:     make(chan struct{}),
		renderer: NewOverlayRenderer(sink, s.logger, WithPreviewGravity(s.gravity)),
		lease:    lease,
	}

	s.mu.Lock()
	s.runs[userID] = run
	s.mu.Unlock()

	go s.run(runCtx, userID, run)

	s.logger.Info("live face detection started", zap.Int64("user_id", userID))
	return user, nil
}

// Stop останавливает обработку, освобождает камеру и возвращает пользователя в меню.
func (s *LiveService) Stop(ctx context.Context, userID, chatID int64) (*entity.User, LiveStats, error) {
	s.mu.Lock()
	run, ok := s.runs[userID]
	delete(s.runs, userID)
	s.mu.Unlock()

	var stats LiveStats
	if ok {
		run.cancel()
		<-run.done
		stats = run.stats()
		s.logger.Info("live face detection stopped",
			zap.Int64("user_id", userID),
			zap.Uint64("frames", stats.Frames),
			zap.Uint64("dropped", stats.Dropped),
			zap.Uint64("detected", stats.Detected),
		)
	}

	user, err := s.flow.Cancel(ctx, userID, chatID)
	return user, stats, err
}

// OnStreamEnd задаёт fn, которую вызывают, когда поток кадров закончился сам,
// без Stop. К этому моменту камера освобождена и пользователь в главном меню.
func (s *LiveService) OnStreamEnd(fn func(userID, chatID int64, stats LiveStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = fn
}

// Stats возвращает счётчики текущего запуска пользователя.
func (s *LiveService) Stats(userID int64) (LiveStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[userID]
	if !ok {
		return LiveStats{}, false
	}
	return run.stats(), true
}

// Snapshot возвращает последний снимок рамок пользователя.
func (s *LiveService) Snapshot(userID int64) (entity.Overlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[userID]
	if !ok {
		return entity.Overlay{}, false
	}
	return run.renderer.Snapshot(), true
}

// StopAll останавливает все запуски, используется при завершении процесса.
func (s *LiveService) StopAll(ctx context.Context) {
	s.mu.Lock()
	chats := make(map[int64]int64, len(s.runs))
	for id, run := range s.runs {
		chats[id] = run.chatID
	}
	s.mu.Unlock()

	for id, chatID := range chats {
		if _, _, err := s.Stop(ctx, id, chatID); err != nil {
			s.logger.Warn("stop live run", zap.Int64("user_id", id), zap.Error(err))
		}
	}
}

// run читает кадры и отдаёт их детектору. Пока идёт детекция, новые кадры отбрасываются.
func (s *LiveService) run(ctx context.Context, userID int64, run *liveRun) {
	defer close(run.done)

	var (
		inflight atomic.Bool
		wg       sync.WaitGroup
		seq      uint64
		ended    bool // поток закончился сам, а не по Stop
	)

	defer func() {
		wg.Wait()
		run.renderer.Close()
		if err := run.lease.Release(); err != nil {
			s.logger.Warn("release camera", zap.Int64("user_id", userID), zap.Error(err))
		}
		if ended {
			s.finish(run)
		}
	}()

	orientation := run.lease.Config().FrameOrientation()
	stream := run.lease.Stream()

	for {
		frame, err := stream.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("frame stream ended", zap.Int64("user_id", userID), zap.Error(err))
				ended = true
			}
			return
		}
		run.frames.Add(1)

		if !inflight.CompareAndSwap(false, true) {
			run.dropped.Add(1)
			continue
		}

		seq++
		frame.Seq = seq
		if !frame.Orientation.Valid() {
			frame.Orientation = orientation
		}
		if frame.CapturedAt.IsZero() {
			frame.CapturedAt = time.Now()
		}

		wg.Add(1)
		go func(f entity.Frame) {
			defer wg.Done()
			defer inflight.Store(false)
			s.detect(ctx, run, f)
		}(frame)
	}
}

// finish убирает запуск, который закончился без Stop, и возвращает пользователя в меню.
func (s *LiveService) finish(run *liveRun) {
	s.mu.Lock()
	current := s.runs[run.userID] == run
	if current {
		delete(s.runs, run.userID)
	}
	fn := s.onEnd
	s.mu.Unlock()

	// Stop уже забрал запуск и сам вернёт пользователя в меню
	if !current {
		return
	}

	if _, err := s.flow.FinishFaceScan(context.Background(), run.userID, run.chatID); err != nil {
		s.logger.Warn("finish face scan", zap.Int64("user_id", run.userID), zap.Error(err))
	}

	stats := run.stats()
	s.logger.Info("live face detection ended by stream",
		zap.Int64("user_id", run.userID),
		zap.Uint64("frames", stats.Frames),
	)
	if fn != nil {
		fn(run.userID, run.chatID, stats)
	}
}

func (s *LiveService) detect(ctx context.Context, run *liveRun, f entity.Frame) {
	boxes, err := s.detector.DetectFaceRectangles(ctx, f.Image, f.Orientation)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// Ошибка детектора равна отсутствию лиц
		s.logger.Debug("face detection failed", zap.Uint64("seq", f.Seq), zap.Error(err))
		boxes = nil
	}
	run.detected.Add(1)

	var source geometry.Size
	if f.Image != nil {
		source = geometry.SizeOf(f.Image)
		if f.Orientation.SwapsAxes() {
			source.Width, source.Height = source.Height, source.Width
		}
	}
	run.renderer.Render(entity.DetectionBatch{
		Seq:      f.Seq,
		Boxes:    boxes,
		Source:   source,
		Mirrored: f.Mirrored(),
	}, s.view)
}

func (r *liveRun) stats() LiveStats {
	return LiveStats{
		Frames:   r.frames.Load(),
		Dropped:  r.dropped.Load(),
		Detected: r.detected.Load(),
	}
}
