package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"card-scanner/internal/domain/entity"
)

// Painter рисует рамки и подписи поверх снимка.
type Painter struct {
	font *truetype.Font

	Color       color.Color
	LineWidth   float64 // в долях короткой стороны
	FontSize    float64 // в долях короткой стороны
	JPEGQuality int
}

// NewPainter создаёт художника со шрифтом Go Regular.
func NewPainter() (*Painter, error) {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Painter{
		font:        font,
		Color:       color.RGBA{R: 255, A: 255},
		LineWidth:   0.006,
		FontSize:    0.035,
		JPEGQuality: 90,
	}, nil
}

// Draw возвращает копию снимка с нарисованными рамками.
// Рамки должны быть в пикселях этого снимка.
func (p *Painter) Draw(img image.Image, overlay entity.Overlay) image.Image {
	dc := gg.NewContextForImage(img)
	short := float64(min(dc.Width(), dc.Height()))
	lineWidth := max(2, short*p.LineWidth)
	fontSize := max(10, short*p.FontSize)

	dc.SetFontFace(truetype.NewFace(p.font, &truetype.Options{Size: fontSize}))
	for _, el := range overlay.Elements {
		r := el.Rect
		dc.SetColor(p.Color)
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		dc.Stroke()

		if el.Label == "" {
			continue
		}
		// Подпись над рамкой, у верхнего края уходит внутрь
		y := r.Y - lineWidth
		anchor := 0.0
		if y-fontSize < 0 {
			y = r.Y + lineWidth
			anchor = 1
		}
		dc.DrawStringAnchored(el.Label, r.X, y, 0, anchor)
	}
	return dc.Image()
}

// Paint рисует рамки и кодирует результат в JPEG.
func (p *Painter) Paint(img image.Image, overlay entity.Overlay) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, p.Draw(img, overlay), imaging.JPEG, imaging.JPEGQuality(p.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
