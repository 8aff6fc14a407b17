package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"card-scanner/internal/domain/geometry"
)

func TestOrientationFor(t *testing.T) {
	cases := []struct {
		device DeviceOrientation
		facing Facing
		want   Orientation
	}{
		{DevicePortrait, FacingFront, OrientationLeftMirrored},
		{DevicePortrait, FacingBack, OrientationRight},
		{DevicePortraitUpsideDown, FacingFront, OrientationRightMirrored},
		{DevicePortraitUpsideDown, FacingBack, OrientationLeft},
		{DeviceLandscapeLeft, FacingFront, OrientationDownMirrored},
		{DeviceLandscapeLeft, FacingBack, OrientationUp},
		{DeviceLandscapeRight, FacingFront, OrientationUpMirrored},
		{DeviceLandscapeRight, FacingBack, OrientationDown},
		{"face_up", FacingFront, OrientationRight},
	}
	for _, tc := range cases {
		got := OrientationFor(tc.device, tc.facing)
		require.Equal(t, tc.want, got, "%s/%s", tc.device, tc.facing)
		require.True(t, got.Valid())
	}
}

func TestOrientation_Mirrored(t *testing.T) {
	require.True(t, OrientationLeftMirrored.Mirrored())
	require.False(t, OrientationRight.Mirrored())
	require.False(t, Orientation(0).Valid())
	require.Equal(t, "orientation(9)", Orientation(9).String())
}

func TestNewOverlay_OneElementPerBox(t *testing.T) {
	view := geometry.Size{Width: 100, Height: 50}
	for _, n := range []int{0, 1, 17} {
		boxes := make([]geometry.NormalizedBox, n)
		for i := range boxes {
			boxes[i] = geometry.NormalizedBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
		}
		o := NewOverlay(DetectionBatch{Seq: 3, Boxes: boxes}, view, LabelFace)
		require.Equal(t, n, o.Len())
		require.Equal(t, uint64(3), o.Seq)
	}
}

func TestNewOverlay_MirrorsFrontCamera(t *testing.T) {
	view := geometry.Size{Width: 100, Height: 100}
	box := geometry.NormalizedBox{X: 0, Y: 0, Width: 0.2, Height: 0.2}
	o := NewOverlay(DetectionBatch{Boxes: []geometry.NormalizedBox{box}, Mirrored: true}, view, LabelFace)
	require.InDelta(t, 80, o.Elements[0].Rect.X, 1e-9)
	require.Equal(t, LabelFace, o.Elements[0].Label)
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("")
	require.NoError(t, err)
	require.Equal(t, PresetHigh, p)
	w, h := p.Resolution()
	require.Equal(t, 1280, w)
	require.Equal(t, 720, h)

	_, err = ParsePreset("ultra")
	require.Error(t, err)
}

func TestCardTitle(t *testing.T) {
	require.Equal(t, TitleCardFound, CardTitle(true))
	require.Equal(t, TitleInvalidCard, CardTitle(false))
	c := NewCardCandidate(nil, true)
	require.Equal(t, TitleCardFound, c.Title)
}

func TestNewPreviewOverlay_UsesViewport(t *testing.T) {
	batch := DetectionBatch{
		Seq:    1,
		Boxes:  []geometry.NormalizedBox{{X: 0, Y: 0, Width: 1, Height: 1}},
		Source: geometry.Size{Width: 400, Height: 300},
	}
	o := NewPreviewOverlay(batch, geometry.Size{Width: 300, Height: 300}, geometry.GravityAspectFill, LabelFace)
	require.Equal(t, 1, o.Len())
	require.InDelta(t, -50, o.Elements[0].Rect.X, 1e-9)
	require.InDelta(t, 400, o.Elements[0].Rect.Width, 1e-9)
}

func TestCaptureConfig_DeviceAndOrientation(t *testing.T) {
	cfg := CaptureConfig{FrontDevice: 1, BackDevice: 0, Facing: FacingFront, Orientation: DevicePortrait}
	require.Equal(t, 1, cfg.DeviceID())
	require.Equal(t, OrientationLeftMirrored, cfg.FrameOrientation())

	cfg.Facing = FacingBack
	require.Equal(t, 0, cfg.DeviceID())
	require.Equal(t, OrientationRight, cfg.FrameOrientation())
}

func TestOrientation_SwapsAxes(t *testing.T) {
	require.False(t, OrientationUp.SwapsAxes())
	require.False(t, OrientationDownMirrored.SwapsAxes())
	require.True(t, OrientationRight.SwapsAxes())
	require.True(t, OrientationLeftMirrored.SwapsAxes())
}
