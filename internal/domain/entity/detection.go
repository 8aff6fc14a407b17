package entity

import "card-scanner/internal/domain/geometry"

// DetectionBatch результат детектора для одного кадра или снимка.
// Новый пакет целиком заменяет предыдущий.
type DetectionBatch struct {
	Seq      uint64
	Boxes    []geometry.NormalizedBox
	Source   geometry.Size // размер исходного кадра, нужен для слоя превью
	Mirrored bool          // кадр с фронтальной камеры, рамки нужно отразить
}

// Len возвращает число найденных объектов.
func (b DetectionBatch) Len() int {
	return len(b.Boxes)
}

// SpeedMode режим распознавания текста.
type SpeedMode string

const (
	SpeedFast     SpeedMode = "fast"
	SpeedAccurate SpeedMode = "accurate"
)

// TextRegion область с текстом. Для проверки карты важен только факт её наличия.
type TextRegion struct {
	Box        geometry.NormalizedBox
	Text       string
	Confidence float64
}
