package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

func TestPainter_DrawsRectangles(t *testing.T) {
	p, err := NewPainter()
	require.NoError(t, err)

	img := imaging.New(200, 100, color.White)
	overlay := entity.Overlay{
		Seq:      1,
		ViewSize: geometry.Size{Width: 200, Height: 100},
		Elements: []entity.OverlayElement{
			{Rect: geometry.Rect{X: 40, Y: 30, Width: 60, Height: 40}, Label: entity.LabelFace},
		},
	}

	out := p.Draw(img, overlay)
	require.Equal(t, img.Bounds(), out.Bounds())

	// Левая сторона рамки красная, центр остался белым
	r, g, b, _ := out.At(40, 50).RGBA()
	require.Greater(t, r, g)
	require.Greater(t, r, b)

	r, g, b, _ = out.At(70, 50).RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Equal(t, uint32(0xffff), g)
	require.Equal(t, uint32(0xffff), b)

	// Исходный снимок не меняется
	r, g, _, _ = img.At(40, 50).RGBA()
	require.Equal(t, r, g)
}

func TestPainter_PaintEncodesJPEG(t *testing.T) {
	p, err := NewPainter()
	require.NoError(t, err)

	data, err := p.Paint(imaging.New(64, 48, color.Black), entity.Overlay{
		Elements: []entity.OverlayElement{{Rect: geometry.Rect{X: 0, Y: 0, Width: 20, Height: 20}, Label: entity.LabelFace}},
	})
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, image.Pt(64, 48), decoded.Bounds().Size())
}
