package geometry

import "image"

// NormalizedBox прямоугольник в долях изображения, начало координат внизу слева.
type NormalizedBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MetadataRect нормализованный прямоугольник с началом координат вверху слева.
type MetadataRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Size размер области назначения в пикселях.
type Size struct {
	Width  float64
	Height float64
}

// Rect прямоугольник в пикселях, начало координат вверху слева.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// SizeOf возвращает размер изображения.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Valid сообщает, что обе стороны положительны.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// AspectRatio возвращает отношение ширины к высоте, 0 для пустого размера.
func (s Size) AspectRatio() float64 {
	if !s.Valid() {
		return 0
	}
	return s.Width / s.Height
}

// Clamp ужимает прямоугольник в единичный квадрат.
func (b NormalizedBox) Clamp() NormalizedBox {
	x := clamp01(b.X)
	y := clamp01(b.Y)
	return NormalizedBox{
		X:      x,
		Y:      y,
		Width:  clampRange(b.Width, 0, 1-x),
		Height: clampRange(b.Height, 0, 1-y),
	}
}

// Mirrored отражает прямоугольник по горизонтали.
func (b NormalizedBox) Mirrored() NormalizedBox {
	return NormalizedBox{X: 1 - b.X - b.Width, Y: b.Y, Width: b.Width, Height: b.Height}
}

// ToMetadata переводит прямоугольник в систему координат с началом вверху слева.
func (b NormalizedBox) ToMetadata() MetadataRect {
	return MetadataRect{X: b.X, Y: 1 - b.Y - b.Height, Width: b.Width, Height: b.Height}
}

// FromPixels переводит пиксельный прямоугольник изображения w x h в нормализованный.
func FromPixels(r image.Rectangle, w, h int) NormalizedBox {
	if w <= 0 || h <= 0 {
		return NormalizedBox{}
	}
	return Unmap(Rect{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}, Size{Width: float64(w), Height: float64(h)})
}

// Map переводит нормализованный прямоугольник в пиксели области view.
// Результат всегда лежит внутри [0,W]x[0,H].
func Map(b NormalizedBox, view Size) Rect {
	if !view.Valid() {
		return Rect{}
	}
	b = b.Clamp()
	return Rect{
		X:      b.X * view.Width,
		Y:      (1 - b.Y - b.Height) * view.Height,
		Width:  b.Width * view.Width,
		Height: b.Height * view.Height,
	}
}

// Unmap обратное преобразование к Map.
func Unmap(r Rect, view Size) NormalizedBox {
	if !view.Valid() {
		return NormalizedBox{}
	}
	return NormalizedBox{
		X:      r.X / view.Width,
		Y:      1 - (r.Y+r.Height)/view.Height,
		Width:  r.Width / view.Width,
		Height: r.Height / view.Height,
	}
}

// Contains сообщает, что r целиком лежит внутри области view.
func (r Rect) Contains(view Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= view.Width && r.Y+r.Height <= view.Height
}

// Image округляет прямоугольник до image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(round(r.X), round(r.Y), round(r.X+r.Width), round(r.Y+r.Height))
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}
