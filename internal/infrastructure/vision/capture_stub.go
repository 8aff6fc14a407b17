//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

type Capture struct{}

func NewCapture() *Capture {
	return &Capture{}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (c *Capture) Open(ctx context.Context, cfg entity.CaptureConfig) (port.FrameStream, error) {
	_ = ctx
	_ = cfg
	return nil, ErrUnavailable
}
