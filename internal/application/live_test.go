package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

var captureCfg = entity.CaptureConfig{
	FrontDevice: 1,
	BackDevice:  0,
	Facing:      entity.FacingFront,
	Preset:      entity.PresetHigh,
	Orientation: entity.DevicePortrait,
}

func TestCameraSession_ExclusiveOwnership(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	session := NewCameraSession(capture, captureCfg, zaptest.NewLogger(t))

	lease, err := session.Acquire(ctx, 1)
	require.NoError(t, err)
	owner, ok := session.Owner()
	require.True(t, ok)
	require.Equal(t, int64(1), owner)

	_, err = session.Acquire(ctx, 2)
	require.ErrorIs(t, err, ErrCameraBusy)

	require.NoError(t, lease.Release())
	require.NoError(t, lease.Release())
	require.True(t, capture.last().closed.Load())

	_, ok = session.Owner()
	require.False(t, ok)

	lease, err = session.Acquire(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, lease.Release())
}

func TestCameraSession_FallsBackToBackCamera(t *testing.T) {
	capture := &fakeCapture{failFor: map[entity.Facing]bool{entity.FacingFront: true}}
	session := NewCameraSession(capture, captureCfg, zaptest.NewLogger(t))

	lease, err := session.Acquire(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, entity.FacingBack, lease.Config().Facing)
	require.Equal(t, entity.OrientationRight, lease.Config().FrameOrientation())
	require.NoError(t, lease.Release())
}

func TestCameraSession_Unavailable(t *testing.T) {
	capture := &fakeCapture{failFor: map[entity.Facing]bool{entity.FacingFront: true, entity.FacingBack: true}}
	session := NewCameraSession(capture, captureCfg, zaptest.NewLogger(t))

	_, err := session.Acquire(context.Background(), 1)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	_, err = NewCameraSession(nil, captureCfg, zaptest.NewLogger(t)).Acquire(context.Background(), 1)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func newLive(t *testing.T, capture *fakeCapture, faces *fakeFaces) (*LiveService, *FlowService, *CameraSession) {
	logger := zaptest.NewLogger(t)
	flow := newFlow(t)
	session := NewCameraSession(capture, captureCfg, logger)
	live := NewLiveService(flow, session, faces, geometry.Size{Width: 360, Height: 640}, geometry.GravityAspectFill, logger)
	return live, flow, session
}

func sendFrame(t *testing.T, s *fakeStream) {
	t.Helper()
	select {
	case s.frames <- entity.Frame{Image: solidImage(64, 48)}:
	case <-time.After(time.Second):
		t.Fatal("frame was not read")
	}
}

func TestLiveService_DropsFramesWhileDetecting(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	faces := &fakeFaces{
		boxes: []geometry.NormalizedBox{{X: 0.2, Y: 0.2, Width: 0.2, Height: 0.2}},
		gate:  make(chan struct{}),
	}
	live, flow, session := newLive(t, capture, faces)
	sink := &recordingSink{}

	user, err := live.Start(ctx, 1, 10, sink)
	require.NoError(t, err)
	require.Equal(t, entity.StateLiveFaceScanning, user.State)

	stream := capture.last()
	// Первый кадр уходит в детектор и зависает на gate, остальные отбрасываются
	sendFrame(t, stream)
	require.Eventually(t, func() bool { return faces.calls.Load() == 1 }, time.Second, time.Millisecond)
	sendFrame(t, stream)
	sendFrame(t, stream)
	sendFrame(t, stream)

	// Кадр считается прочитанным раньше, чем цикл решит его судьбу,
	// поэтому ждём, пока все три будут отброшены
	require.Eventually(t, func() bool {
		stats, ok := live.Stats(1)
		return ok && stats.Frames == 4 && stats.Dropped == 3
	}, time.Second, time.Millisecond)
	require.Equal(t, int32(1), faces.calls.Load())

	close(faces.gate)
	require.Eventually(t, func() bool {
		o, ok := live.Snapshot(1)
		return ok && o.Seq == 1 && o.Len() == 1
	}, time.Second, time.Millisecond)

	// После завершения детекции следующий кадр снова обрабатывается
	require.Eventually(t, func() bool {
		sendFrame(t, stream)
		o, _ := live.Snapshot(1)
		return o.Seq >= 2
	}, 2*time.Second, 5*time.Millisecond)

	user, stats, err := live.Stop(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, user.State)
	require.GreaterOrEqual(t, stats.Dropped, uint64(3))
	require.GreaterOrEqual(t, stats.Detected, uint64(2))
	// Детекция последнего кадра могла быть прервана остановкой и не засчитана
	require.LessOrEqual(t, stats.Dropped+stats.Detected, stats.Frames)
	require.LessOrEqual(t, stats.Frames-stats.Dropped-stats.Detected, uint64(1))

	seqs := sink.seqs()
	require.Equal(t, uint64(1), seqs[0])
	for i := 1; i < len(seqs); i++ {
		require.Greater(t, seqs[i], seqs[i-1])
	}

	require.True(t, stream.closed.Load())
	_, owned := session.Owner()
	require.False(t, owned)

	user, err = flow.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, user.State)
}

func TestLiveService_LateCompletionIsIgnored(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	faces := &fakeFaces{gate: make(chan struct{})}
	live, _, _ := newLive(t, capture, faces)
	sink := &recordingSink{}

	_, err := live.Start(ctx, 1, 10, sink)
	require.NoError(t, err)
	sendFrame(t, capture.last())
	require.Eventually(t, func() bool { return faces.calls.Load() == 1 }, time.Second, time.Millisecond)

	// Детекция ещё идёт, пользователь закрывает сценарий
	_, _, err = live.Stop(ctx, 1, 10)
	require.NoError(t, err)
	close(faces.gate)

	require.Zero(t, sink.count())
	_, ok := live.Snapshot(1)
	require.False(t, ok)
}

func TestLiveService_CameraBusy(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	live, flow, _ := newLive(t, capture, &fakeFaces{})

	_, err := live.Start(ctx, 1, 10, nil)
	require.NoError(t, err)

	_, err = live.Start(ctx, 2, 20, nil)
	require.ErrorIs(t, err, ErrCameraBusy)

	user, err := flow.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, user.State)

	live.StopAll(ctx)
	_, err = live.Start(ctx, 2, 20, nil)
	require.NoError(t, err)
	_, _, err = live.Stop(ctx, 2, 20)
	require.NoError(t, err)
}

func TestLiveService_CameraUnavailable(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{failFor: map[entity.Facing]bool{entity.FacingFront: true, entity.FacingBack: true}}
	live, flow, _ := newLive(t, capture, &fakeFaces{})

	_, err := live.Start(ctx, 1, 10, nil)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	user, err := flow.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, user.State)
}

func TestLiveService_MirrorsFrontCameraBoxes(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	faces := &fakeFaces{boxes: []geometry.NormalizedBox{{X: 0, Y: 0, Width: 0.25, Height: 0.25}}}
	live, _, _ := newLive(t, capture, faces)

	_, err := live.Start(ctx, 1, 10, nil)
	require.NoError(t, err)
	sendFrame(t, capture.last())

	require.Eventually(t, func() bool {
		o, _ := live.Snapshot(1)
		return o.Seq == 1
	}, time.Second, time.Millisecond)
	o, _ := live.Snapshot(1)
	// Кадр 64x48 с ориентацией left_mirrored становится 48x64 и растягивается до 480x640,
	// по ширине обрезается на 60 с каждой стороны
	require.InDelta(t, 300, o.Elements[0].Rect.X, 1e-6)
	require.InDelta(t, 480, o.Elements[0].Rect.Y, 1e-6)

	_, _, err = live.Stop(ctx, 1, 10)
	require.NoError(t, err)
}

func TestLiveService_StreamEndReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	live, flow, session := newLive(t, capture, &fakeFaces{})

	type ended struct {
		userID, chatID int64
		stats          LiveStats
	}
	endedCh := make(chan ended, 1)
	live.OnStreamEnd(func(userID, chatID int64, stats LiveStats) {
		endedCh <- ended{userID, chatID, stats}
	})

	_, err := live.Start(ctx, 1, 10, nil)
	require.NoError(t, err)
	stream := capture.last()
	sendFrame(t, stream)
	close(stream.frames)

	var got ended
	select {
	case got = <-endedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("stream end was not reported")
	}
	require.Equal(t, int64(1), got.userID)
	require.Equal(t, int64(10), got.chatID)
	require.Equal(t, uint64(1), got.stats.Frames)

	user, err := flow.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, user.State)
	require.True(t, stream.closed.Load())
	_, owned := session.Owner()
	require.False(t, owned)
	_, running := live.Snapshot(1)
	require.False(t, running)

	// Камера снова свободна
	_, err = live.Start(ctx, 1, 10, nil)
	require.NoError(t, err)
	_, _, err = live.Stop(ctx, 1, 10)
	require.NoError(t, err)
}
