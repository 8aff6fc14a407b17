package port

import (
	"context"

	"card-scanner/internal/domain/entity"
)

// CaptureSource источник кадров с камеры
type CaptureSource interface {
	// Open запускает поток кадров. Ошибка означает, что камера недоступна.
	Open(ctx context.Context, cfg entity.CaptureConfig) (FrameStream, error)
}

// FrameStream открытый поток кадров
type FrameStream interface {
	// Read блокируется до следующего кадра. Кадры, которые никто не читал, теряются.
	Read(ctx context.Context) (entity.Frame, error)

	// Close останавливает поток и освобождает устройство
	Close() error
}
