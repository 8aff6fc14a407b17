package entity

import "fmt"

// Orientation ориентация кадра в терминах EXIF (1..8).
type Orientation uint8

const (
	OrientationUp            Orientation = 1
	OrientationUpMirrored    Orientation = 2
	OrientationDown          Orientation = 3
	OrientationDownMirrored  Orientation = 4
	OrientationLeftMirrored  Orientation = 5
	OrientationRight         Orientation = 6
	OrientationRightMirrored Orientation = 7
	OrientationLeft          Orientation = 8
)

var orientationNames = map[Orientation]string{
	OrientationUp:            "up",
	OrientationUpMirrored:    "up_mirrored",
	OrientationDown:          "down",
	OrientationDownMirrored:  "down_mirrored",
	OrientationLeftMirrored:  "left_mirrored",
	OrientationRight:         "right",
	OrientationRightMirrored: "right_mirrored",
	OrientationLeft:          "left",
}

// Valid сообщает, что значение входит в восемь канонических ориентаций.
func (o Orientation) Valid() bool {
	return o >= OrientationUp && o <= OrientationLeft
}

// Mirrored сообщает, что кадр отражён.
func (o Orientation) Mirrored() bool {
	switch o {
	case OrientationUpMirrored, OrientationDownMirrored, OrientationLeftMirrored, OrientationRightMirrored:
		return true
	}
	return false
}

// SwapsAxes сообщает, что после поворота ширина и высота кадра меняются местами.
func (o Orientation) SwapsAxes() bool {
	return o >= OrientationLeftMirrored && o <= OrientationLeft
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("orientation(%d)", uint8(o))
}

// Facing физическая камера.
type Facing string

const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

// DeviceOrientation положение устройства, с которого снимают.
type DeviceOrientation string

const (
	DevicePortrait           DeviceOrientation = "portrait"
	DevicePortraitUpsideDown DeviceOrientation = "portrait_upside_down"
	DeviceLandscapeLeft      DeviceOrientation = "landscape_left"
	DeviceLandscapeRight     DeviceOrientation = "landscape_right"
)

// OrientationFor возвращает ориентацию кадра для детектора по положению устройства и камере.
func OrientationFor(device DeviceOrientation, facing Facing) Orientation {
	front := facing == FacingFront
	pick := func(f, b Orientation) Orientation {
		if front {
			return f
		}
		return b
	}

	switch device {
	case DevicePortrait:
		return pick(OrientationLeftMirrored, OrientationRight)
	case DevicePortraitUpsideDown:
		return pick(OrientationRightMirrored, OrientationLeft)
	case DeviceLandscapeLeft:
		return pick(OrientationDownMirrored, OrientationUp)
	case DeviceLandscapeRight:
		return pick(OrientationUpMirrored, OrientationDown)
	default:
		return OrientationRight
	}
}
