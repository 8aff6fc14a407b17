//go:build tesseract
// +build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

// Recognizer распознаёт слова на изображении.
type Recognizer struct {
	MinConfidence float64 // 0..100, как отдаёт Tesseract

	mu     sync.Mutex
	client *gosseract.Client
}

// NewRecognizer создаёт клиента для языков вида "eng+rus".
func NewRecognizer(languages string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set language: %w", err)
		}
	}
	return &Recognizer{MinConfidence: 40, client: client}, nil
}

// RecognizeText возвращает слова с рамками. В быстром режиме ищется разреженный текст.
func (r *Recognizer) RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	psm := gosseract.PSM_AUTO
	if mode == entity.SpeedFast {
		psm = gosseract.PSM_SPARSE_TEXT
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	b := img.Bounds()
	regions := make([]entity.TextRegion, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" || box.Confidence < r.MinConfidence {
			continue
		}
		regions = append(regions, entity.TextRegion{
			Box:        geometry.FromPixels(box.Box.Sub(b.Min), b.Dx(), b.Dy()),
			Text:       word,
			Confidence: box.Confidence / 100,
		})
	}
	return regions, nil
}

// Close освобождает клиента Tesseract.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
