//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"image"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

type FaceDetector struct {
	MaxSide     int
	MinFaceSide int
}

// NewFaceDetector создаёт детектор-заглушку (без OpenCV).
func NewFaceDetector(cascadePath string) (*FaceDetector, error) {
	_ = cascadePath
	return &FaceDetector{MaxSide: 640, MinFaceSide: 24}, nil
}

// DetectFaceRectangles возвращает ошибку, если сборка без тега gocv.
func (d *FaceDetector) DetectFaceRectangles(ctx context.Context, img image.Image, orientation entity.Orientation) ([]geometry.NormalizedBox, error) {
	_ = ctx
	_ = img
	_ = orientation
	return nil, ErrUnavailable
}

func (d *FaceDetector) Close() error {
	return nil
}
