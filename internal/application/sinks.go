package app

import (
	"context"

	"go.uber.org/multierr"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

// MultiSink раздаёт снимок рамок нескольким получателям.
type MultiSink []port.OverlaySink

func (m MultiSink) Present(ctx context.Context, overlay entity.Overlay) error {
	var err error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Present(ctx, overlay))
	}
	return err
}

// CountSink вызывает fn только когда меняется число рамок.
type CountSink struct {
	fn    func(ctx context.Context, count int) error
	last  int
	shown bool
}

// NewCountSink создаёт получателя счётчика. Вызовы идут из одной горутины рендерера.
func NewCountSink(fn func(ctx context.Context, count int) error) *CountSink {
	return &CountSink{fn: fn}
}

func (s *CountSink) Present(ctx context.Context, overlay entity.Overlay) error {
	n := overlay.Len()
	if s.shown && n == s.last {
		return nil
	}
	if err := s.fn(ctx, n); err != nil {
		return err
	}
	s.last = n
	s.shown = true
	return nil
}

var (
	_ port.OverlaySink = MultiSink(nil)
	_ port.OverlaySink = (*CountSink)(nil)
)
