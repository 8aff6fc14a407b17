package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"card-scanner/internal/domain/entity"
)

// marked картинка 4x2 с красным пикселем в левом верхнем углу.
func marked() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

func redAt(t *testing.T, img image.Image) image.Point {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r > 0 {
				return image.Pt(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	t.Fatal("marker not found")
	return image.Point{}
}

func TestUpright(t *testing.T) {
	tests := []struct {
		orientation entity.Orientation
		size        image.Point
		marker      image.Point
	}{
		{entity.OrientationUp, image.Pt(4, 2), image.Pt(0, 0)},
		{entity.OrientationUpMirrored, image.Pt(4, 2), image.Pt(3, 0)},
		{entity.OrientationDown, image.Pt(4, 2), image.Pt(3, 1)},
		{entity.OrientationDownMirrored, image.Pt(4, 2), image.Pt(0, 1)},
		{entity.OrientationLeftMirrored, image.Pt(2, 4), image.Pt(0, 0)},
		{entity.OrientationRight, image.Pt(2, 4), image.Pt(1, 0)},
		{entity.OrientationRightMirrored, image.Pt(2, 4), image.Pt(1, 3)},
		{entity.OrientationLeft, image.Pt(2, 4), image.Pt(0, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.orientation.String(), func(t *testing.T) {
			out := Upright(marked(), tt.orientation)
			require.Equal(t, tt.size, out.Bounds().Size())
			require.Equal(t, tt.marker, redAt(t, out))
			require.Equal(t, tt.orientation.SwapsAxes(), tt.size.X == 2)
		})
	}
}
