package vision

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"card-scanner/internal/domain/entity"
)

// ErrUnavailable сборка без тега gocv.
var ErrUnavailable = errors.New("gocv build tag is not enabled")

// Upright поворачивает кадр так, чтобы он стал прямым.
// Рамки детектора считаются относительно результата.
func Upright(img image.Image, o entity.Orientation) image.Image {
	switch o {
	case entity.OrientationUpMirrored:
		return imaging.FlipH(img)
	case entity.OrientationDown:
		return imaging.Rotate180(img)
	case entity.OrientationDownMirrored:
		return imaging.FlipV(img)
	case entity.OrientationLeftMirrored:
		return imaging.Transpose(img)
	case entity.OrientationRight:
		return imaging.Rotate270(img)
	case entity.OrientationRightMirrored:
		return imaging.Transverse(img)
	case entity.OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
