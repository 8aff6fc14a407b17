//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

// FaceDetector ищет лица каскадом Хаара.
type FaceDetector struct {
	MaxSide     int // кадр крупнее ужимается до этой стороны
	MinFaceSide int

	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewFaceDetector загружает каскад из файла.
func NewFaceDetector(cascadePath string) (*FaceDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade %s", cascadePath)
	}
	return &FaceDetector{
		MaxSide:     640,
		MinFaceSide: 24,
		classifier:  classifier,
	}, nil
}

// DetectFaceRectangles возвращает рамки лиц относительно прямого кадра.
func (d *FaceDetector) DetectFaceRectangles(ctx context.Context, img image.Image, orientation entity.Orientation) ([]geometry.NormalizedBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(Upright(img, orientation))
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	width, height := mat.Cols(), mat.Rows()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	// Каскад работает на уменьшенной копии, рамки пересчитываются обратно
	small := gocv.NewMat()
	defer small.Close()
	work := gray
	scale := 1.0
	if side := max(width, height); side > d.MaxSide {
		scale = float64(d.MaxSide) / float64(side)
		gocv.Resize(gray, &small, image.Pt(int(float64(width)*scale), int(float64(height)*scale)), 0, 0, gocv.InterpolationArea)
		work = small
	}
	gocv.EqualizeHist(work, &work)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(work, 1.1, 4, 0,
		image.Pt(d.MinFaceSide, d.MinFaceSide), image.Pt(0, 0))
	d.mu.Unlock()

	boxes := make([]geometry.NormalizedBox, 0, len(rects))
	for _, r := range rects {
		if scale != 1 {
			r = image.Rect(
				int(float64(r.Min.X)/scale), int(float64(r.Min.Y)/scale),
				int(float64(r.Max.X)/scale), int(float64(r.Max.Y)/scale),
			)
		}
		boxes = append(boxes, geometry.FromPixels(r, width, height))
	}
	return boxes, nil
}

// Close освобождает каскад.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
