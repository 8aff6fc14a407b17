//go:build !tesseract
// +build !tesseract

package ocr

import (
	"context"
	"image"

	"card-scanner/internal/domain/entity"
)

type Recognizer struct {
	MinConfidence float64
}

// NewRecognizer создаёт распознаватель-заглушку (без Tesseract).
func NewRecognizer(languages string) (*Recognizer, error) {
	_ = languages
	return &Recognizer{MinConfidence: 40}, nil
}

// RecognizeText возвращает ошибку, если сборка без тега tesseract.
func (r *Recognizer) RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error) {
	_ = ctx
	_ = img
	_ = mode
	return nil, ErrUnavailable
}

func (r *Recognizer) Close() error {
	return nil
}
