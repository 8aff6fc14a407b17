package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

// CameraSession выдаёт камеру во владение одному сценарию за раз.
type CameraSession struct {
	source port.CaptureSource
	cfg    entity.CaptureConfig
	logger *zap.Logger

	mu    sync.Mutex
	lease *CameraLease
}

func NewCameraSession(source port.CaptureSource, cfg entity.CaptureConfig, logger *zap.Logger) *CameraSession {
	return &CameraSession{source: source, cfg: cfg, logger: logger.Named("camera")}
}

// CameraLease право владения камерой. Release останавливает поток.
type CameraLease struct {
	session *CameraSession
	owner   int64
	cfg     entity.CaptureConfig
	stream  port.FrameStream

	once sync.Once
	err  error
}

// Acquire открывает поток кадров для owner. Если фронтальная камера недоступна,
// пробует основную.
func (s *CameraSession) Acquire(ctx context.Context, owner int64) (*CameraLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lease != nil {
		return nil, fmt.Errorf("%w: owner %d", ErrCameraBusy, s.lease.owner)
	}
	if s.source == nil {
		return nil, fmt.Errorf("%w: no capture source", ErrCapabilityUnavailable)
	}

	cfg := s.cfg
	stream, err := s.source.Open(ctx, cfg)
	if err != nil && cfg.Facing == entity.FacingFront {
		s.logger.Warn("front camera unavailable, trying back camera", zap.Error(err))
		cfg.Facing = entity.FacingBack
		var fallbackErr error
		stream, fallbackErr = s.source.Open(ctx, cfg)
		err = multierr.Append(err, fallbackErr)
		if fallbackErr == nil {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}

	s.lease = &CameraLease{session: s, owner: owner, cfg: cfg, stream: stream}
	s.logger.Info("camera acquired",
		zap.Int64("owner", owner),
		zap.String("facing", string(cfg.Facing)),
		zap.String("preset", string(cfg.Preset)),
	)
	return s.lease, nil
}

// Owner возвращает текущего владельца камеры.
func (s *CameraSession) Owner() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == nil {
		return 0, false
	}
	return s.lease.owner, true
}

func (s *CameraSession) release(l *CameraLease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == l {
		s.lease = nil
	}
}

// Stream возвращает поток кадров.
func (l *CameraLease) Stream() port.FrameStream {
	return l.stream
}

// Config возвращает параметры, с которыми поток был открыт.
func (l *CameraLease) Config() entity.CaptureConfig {
	return l.cfg
}

// Release останавливает поток и освобождает камеру. Повторные вызовы безопасны.
func (l *CameraLease) Release() error {
	l.once.Do(func() {
		l.err = l.stream.Close()
		l.session.release(l)
		l.session.logger.Info("camera released", zap.Int64("owner", l.owner))
	})
	return l.err
}
