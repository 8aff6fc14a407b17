package app

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/multierr"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

// TextRouter выбирает распознаватель по режиму. Если выбранный не справился,
// пробует второй.
type TextRouter struct {
	fast     port.TextRecognizer
	accurate port.TextRecognizer
}

func NewTextRouter(fast, accurate port.TextRecognizer) *TextRouter {
	return &TextRouter{fast: fast, accurate: accurate}
}

func (r *TextRouter) RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error) {
	primary, secondary := r.fast, r.accurate
	if mode == entity.SpeedAccurate {
		primary, secondary = r.accurate, r.fast
	}
	if primary == nil {
		primary, secondary = secondary, nil
	}
	if primary == nil {
		return nil, fmt.Errorf("%w: no text recognizer", ErrCapabilityUnavailable)
	}

	regions, err := primary.RecognizeText(ctx, img, mode)
	if err == nil || secondary == nil || ctx.Err() != nil {
		return regions, err
	}

	regions, fallbackErr := secondary.RecognizeText(ctx, img, mode)
	if fallbackErr != nil {
		return nil, multierr.Append(err, fallbackErr)
	}
	return regions, nil
}
