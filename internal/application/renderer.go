package app

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
	"card-scanner/internal/domain/port"
)

const renderQueueSize = 8

type renderRequest struct {
	batch entity.DetectionBatch
	view  geometry.Size
}

// RendererOption настраивает OverlayRenderer.
type RendererOption func(*OverlayRenderer)

// WithPreviewGravity переводит рамки через слой превью камеры вместо прямого Map.
func WithPreviewGravity(g geometry.Gravity) RendererOption {
	return func(r *OverlayRenderer) {
		r.gravity = g
	}
}

// WithLabel задаёт подпись рамок.
func WithLabel(label string) RendererOption {
	return func(r *OverlayRenderer) {
		r.label = label
	}
}

// OverlayRenderer держит последний снимок рамок. Пакеты применяются одной горутиной
// строго по возрастанию Seq: устаревший пакет отбрасывается, новый целиком заменяет старый.
type OverlayRenderer struct {
	sink    port.OverlaySink
	label   string
	gravity geometry.Gravity
	logger  *zap.Logger

	latest   atomic.Pointer[entity.Overlay]
	accepted atomic.Uint64 // наибольший Seq, принятый в очередь

	mu     sync.RWMutex
	closed bool
	queue  chan renderRequest

	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
}

// NewOverlayRenderer запускает горутину применения пакетов. Seq пакетов начинается с 1.
func NewOverlayRenderer(sink port.OverlaySink, logger *zap.Logger, opts ...RendererOption) *OverlayRenderer {
	ctx, cancel := context.WithCancel(context.Background())
	r := &OverlayRenderer{
		sink:   sink,
		label:  entity.LabelFace,
		logger: logger.Named("renderer"),
		queue:  make(chan renderRequest, renderQueueSize),
		ctx:    ctx,
		cancel: cancel,
		exited: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.latest.Store(&entity.Overlay{})

	go r.loop()
	return r
}

// Render ставит пакет в очередь. false, если пакет устарел, очередь полна или рендерер закрыт.
func (r *OverlayRenderer) Render(batch entity.DetectionBatch, view geometry.Size) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}

	for {
		prev := r.accepted.Load()
		if batch.Seq <= prev {
			r.logger.Debug("stale batch dropped", zap.Uint64("seq", batch.Seq), zap.Uint64("accepted", prev))
			return false
		}
		if r.accepted.CompareAndSwap(prev, batch.Seq) {
			break
		}
	}

	select {
	case r.queue <- renderRequest{batch: batch, view: view}:
		return true
	default:
		r.logger.Warn("render queue full", zap.Uint64("seq", batch.Seq))
		return false
	}
}

// Snapshot возвращает последний применённый снимок рамок.
func (r *OverlayRenderer) Snapshot() entity.Overlay {
	return *r.latest.Load()
}

// Close останавливает рендерер. После возврата sink больше не вызывается.
func (r *OverlayRenderer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.exited
		return
	}
	r.closed = true
	r.cancel()
	close(r.queue)
	r.mu.Unlock()

	<-r.exited
}

func (r *OverlayRenderer) loop() {
	defer close(r.exited)

	var applied uint64
	for req := range r.queue {
		if r.ctx.Err() != nil {
			continue
		}
		if req.batch.Seq <= applied {
			continue
		}
		applied = req.batch.Seq
		r.apply(req)
	}
}

func (r *OverlayRenderer) apply(req renderRequest) {
	var overlay entity.Overlay
	if r.gravity != "" {
		overlay = entity.NewPreviewOverlay(req.batch, req.view, r.gravity, r.label)
	} else {
		overlay = entity.NewOverlay(req.batch, req.view, r.label)
	}

	// Новый снимок заменяет старый целиком
	r.latest.Store(&overlay)

	if r.sink == nil {
		return
	}
	if err := r.sink.Present(r.ctx, overlay); err != nil && r.ctx.Err() == nil {
		r.logger.Warn("present overlay", zap.Uint64("seq", overlay.Seq), zap.Error(err))
	}
}
