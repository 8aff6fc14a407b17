package geometry

import "fmt"

// Gravity определяет, как кадр вписывается в область превью.
type Gravity string

const (
	GravityAspectFill Gravity = "aspect_fill" // заполнить с обрезкой
	GravityAspectFit  Gravity = "aspect_fit"  // вписать с полями
	GravityResize     Gravity = "resize"      // растянуть по осям
)

// ParseGravity разбирает значение из конфигурации.
func ParseGravity(s string) (Gravity, error) {
	switch g := Gravity(s); g {
	case GravityAspectFill, GravityAspectFit, GravityResize:
		return g, nil
	case "":
		return GravityAspectFill, nil
	default:
		return "", fmt.Errorf("unknown gravity %q", s)
	}
}

// Viewport описывает слой превью камеры: размер кадра, размер слоя и способ вписывания.
// Это отдельный шаг после ToMetadata, он не сводится к Map.
type Viewport struct {
	Source   Size
	View     Size
	Gravity  Gravity
	Mirrored bool
}

// LayerRect переводит прямоугольник в координатах метаданных в координаты слоя.
// При aspect-fill результат может выходить за границы слоя: эта часть кадра обрезана.
func (v Viewport) LayerRect(m MetadataRect) Rect {
	if !v.Source.Valid() || !v.View.Valid() {
		return Rect{}
	}
	if v.Mirrored {
		m.X = 1 - m.X - m.Width
	}

	sx := v.View.Width / v.Source.Width
	sy := v.View.Height / v.Source.Height
	switch v.Gravity {
	case GravityResize:
	case GravityAspectFit:
		s := min(sx, sy)
		sx, sy = s, s
	default:
		s := max(sx, sy)
		sx, sy = s, s
	}

	scaledW := v.Source.Width * sx
	scaledH := v.Source.Height * sy
	offX := (v.View.Width - scaledW) / 2
	offY := (v.View.Height - scaledH) / 2

	return Rect{
		X:      offX + m.X*scaledW,
		Y:      offY + m.Y*scaledH,
		Width:  m.Width * scaledW,
		Height: m.Height * scaledH,
	}
}

// Project переводит нормализованный прямоугольник детектора в координаты слоя превью.
func (v Viewport) Project(b NormalizedBox) Rect {
	return v.LayerRect(b.Clamp().ToMetadata())
}
