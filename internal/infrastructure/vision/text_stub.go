//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"image"

	"card-scanner/internal/domain/entity"
)

type TextDetector struct {
	MaxSide        int
	MinAreaRatio   float64
	MinLineAspect  float64
	MinFillRatio   float64
	MaxHeightRatio float64
}

func NewTextDetector() *TextDetector {
	return &TextDetector{
		MaxSide:        1024,
		MinAreaRatio:   0.0005,
		MinLineAspect:  2.0,
		MinFillRatio:   0.45,
		MaxHeightRatio: 0.25,
	}
}

// RecognizeText возвращает ошибку, если сборка без тега gocv.
func (d *TextDetector) RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error) {
	_ = ctx
	_ = img
	_ = mode
	return nil, ErrUnavailable
}
