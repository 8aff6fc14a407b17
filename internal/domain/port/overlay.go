package port

import (
	"context"
	"image"

	"card-scanner/internal/domain/entity"
)

// OverlaySink получает каждый применённый снимок рамок
type OverlaySink interface {
	Present(ctx context.Context, overlay entity.Overlay) error
}

// OverlayPainter рисует рамки поверх изображения
type OverlayPainter interface {
	// Paint возвращает JPEG с нарисованными рамками
	Paint(img image.Image, overlay entity.Overlay) ([]byte, error)
}
