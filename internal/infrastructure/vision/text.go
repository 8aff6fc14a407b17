//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

// TextDetector находит строки текста морфологией без распознавания символов.
type TextDetector struct {
	MaxSide        int
	MinAreaRatio   float64
	MinLineAspect  float64 // строка шире своей высоты
	MinFillRatio   float64
	MaxHeightRatio float64
}

func NewTextDetector() *TextDetector {
	return &TextDetector{
		MaxSide:        1024,
		MinAreaRatio:   0.0005,
		MinLineAspect:  2.0,
		MinFillRatio:   0.45,
		MaxHeightRatio: 0.25,
	}
}

// RecognizeText возвращает области, похожие на строки текста. Text в них пустой.
func (d *TextDetector) RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error) {
	_ = mode
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	// Приводим изображение к стандартному размеру для стабильных порогов.
	if mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide {
		scale := float64(d.MaxSide) / float64(max(mat.Cols(), mat.Rows()))
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(int(float64(mat.Cols())*scale), int(float64(mat.Rows())*scale)), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}
	width, height := mat.Cols(), mat.Rows()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	// Морфологический градиент подсвечивает края символов
	ellipse := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer ellipse.Close()
	grad := gocv.NewMat()
	defer grad.Close()
	gocv.MorphologyEx(gray, &grad, gocv.MorphGradient, ellipse)

	bw := gocv.NewMat()
	defer bw.Close()
	gocv.Threshold(grad, &bw, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// Склеиваем символы в строки
	line := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(9, 1))
	defer line.Close()
	connected := gocv.NewMat()
	defer connected.Close()
	gocv.MorphologyEx(bw, &connected, gocv.MorphClose, line)

	contours := gocv.FindContours(connected, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := float64(width*height) * d.MinAreaRatio
	regions := make([]entity.TextRegion, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		rect := gocv.BoundingRect(c)
		area := float64(rect.Dx() * rect.Dy())
		if area < minArea || rect.Dy() == 0 {
			continue
		}
		if float64(rect.Dx())/float64(rect.Dy()) < d.MinLineAspect {
			continue
		}
		if float64(rect.Dy()) > float64(height)*d.MaxHeightRatio {
			continue
		}

		fill := gocv.ContourArea(c) / area
		if fill < d.MinFillRatio {
			continue
		}
		regions = append(regions, entity.TextRegion{
			Box:        geometry.FromPixels(rect, width, height),
			Confidence: fill,
		})
	}
	return regions, nil
}
