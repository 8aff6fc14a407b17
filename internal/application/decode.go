package app

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DecodeImage декодирует снимок и поворачивает его по EXIF, чтобы он стал прямым.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrUnsupportedImage)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: no pixels", ErrUnsupportedImage)
	}
	return img, nil
}
