package entity

import "card-scanner/internal/domain/geometry"

// LabelFace подпись рамки лица.
const LabelFace = "Face"

// OverlayElement рамка с подписью в координатах области отображения.
type OverlayElement struct {
	Rect  geometry.Rect
	Label string
}

// Overlay неизменяемый снимок всех рамок для последнего пакета детекций.
type Overlay struct {
	Seq      uint64
	ViewSize geometry.Size
	Elements []OverlayElement
}

// Len возвращает число рамок.
func (o Overlay) Len() int {
	return len(o.Elements)
}

// NewOverlay строит снимок рамок для пакета: по одной рамке на каждый прямоугольник.
func NewOverlay(batch DetectionBatch, view geometry.Size, label string) Overlay {
	elements := make([]OverlayElement, 0, len(batch.Boxes))
	for _, box := range batch.Boxes {
		if batch.Mirrored {
			box = box.Mirrored()
		}
		elements = append(elements, OverlayElement{
			Rect:  geometry.Map(box, view),
			Label: label,
		})
	}
	return Overlay{Seq: batch.Seq, ViewSize: view, Elements: elements}
}

// NewPreviewOverlay строит снимок рамок для слоя превью камеры.
// Рамки проходят через ToMetadata и преобразование слоя, а не через Map.
func NewPreviewOverlay(batch DetectionBatch, view geometry.Size, gravity geometry.Gravity, label string) Overlay {
	vp := geometry.Viewport{
		Source:   batch.Source,
		View:     view,
		Gravity:  gravity,
		Mirrored: batch.Mirrored,
	}
	elements := make([]OverlayElement, 0, len(batch.Boxes))
	for _, box := range batch.Boxes {
		elements = append(elements, OverlayElement{Rect: vp.Project(box), Label: label})
	}
	return Overlay{Seq: batch.Seq, ViewSize: view, Elements: elements}
}
