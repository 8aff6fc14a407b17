package entity

import (
	"fmt"
	"image"
	"time"
)

// Frame один кадр из источника. Живёт до конца обработки детектором.
type Frame struct {
	Seq         uint64      // строго возрастающий номер кадра в потоке
	Image       image.Image // пиксели кадра
	Orientation Orientation // как повернуть кадр, чтобы он стал прямым
	CapturedAt  time.Time
}

// Mirrored сообщает, что кадр снят фронтальной камерой.
func (f Frame) Mirrored() bool {
	return f.Orientation.Mirrored()
}

// Preset качество захвата.
type Preset string

const (
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
)

// Resolution возвращает запрашиваемое у камеры разрешение.
func (p Preset) Resolution() (width, height int) {
	switch p {
	case PresetLow:
		return 640, 480
	case PresetMedium:
		return 960, 540
	default:
		return 1280, 720
	}
}

// ParsePreset разбирает значение из конфигурации.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(s); p {
	case PresetLow, PresetMedium, PresetHigh:
		return p, nil
	case "":
		return PresetHigh, nil
	default:
		return "", fmt.Errorf("unknown capture preset %q", s)
	}
}

// CaptureConfig параметры открытия потока кадров.
type CaptureConfig struct {
	FrontDevice int
	BackDevice  int
	Facing      Facing
	Preset      Preset
	Orientation DeviceOrientation
	FPS         int
}

// DeviceID возвращает номер устройства для выбранной камеры.
func (c CaptureConfig) DeviceID() int {
	if c.Facing == FacingBack {
		return c.BackDevice
	}
	return c.FrontDevice
}

// FrameOrientation возвращает ориентацию кадров для текущей камеры и положения устройства.
func (c CaptureConfig) FrameOrientation() Orientation {
	return OrientationFor(c.Orientation, c.Facing)
}
