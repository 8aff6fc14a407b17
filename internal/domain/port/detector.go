package port

import (
	"context"
	"image"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

// FaceDetector интерфейс детектора лиц
type FaceDetector interface {
	// DetectFaceRectangles возвращает рамки лиц в нормализованных координатах (начало внизу слева)
	DetectFaceRectangles(ctx context.Context, img image.Image, orientation entity.Orientation) ([]geometry.NormalizedBox, error)
}

// TextRecognizer интерфейс распознавания текста
type TextRecognizer interface {
	// RecognizeText возвращает найденные области с текстом
	RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error)
}
