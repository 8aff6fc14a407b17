package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newValidator(t *testing.T, text *fakeText) *CardValidator {
	return NewCardValidator(text, DefaultCardMinAspect, DefaultCardMaxAspect, zaptest.NewLogger(t))
}

func TestCardValidator_AspectGate(t *testing.T) {
	ctx := context.Background()

	text := &fakeText{regions: 3}
	v := newValidator(t, text)
	check := v.Check(ctx, solidImage(856, 540))
	require.True(t, check.Valid)
	require.Equal(t, GateText, check.Gate)
	require.Equal(t, int32(1), text.calls.Load())

	for _, size := range [][2]int{{500, 500}, {1000, 400}, {140, 100}, {180, 100}} {
		text := &fakeText{regions: 3}
		v := newValidator(t, text)
		check := v.Check(ctx, solidImage(size[0], size[1]))
		require.False(t, check.Valid, "%dx%d", size[0], size[1])
		require.Equal(t, GateAspect, check.Gate)
		require.Zero(t, text.calls.Load(), "text gate must not run for %dx%d", size[0], size[1])
	}
}

func TestCardValidator_TextGate(t *testing.T) {
	ctx := context.Background()
	card := solidImage(856, 540)

	require.False(t, newValidator(t, &fakeText{regions: 0}).Check(ctx, card).Valid)
	require.True(t, newValidator(t, &fakeText{regions: 1}).Check(ctx, card).Valid)

	check := newValidator(t, &fakeText{regions: 5, err: errors.New("vision failure")}).Check(ctx, card)
	require.False(t, check.Valid)
	require.Error(t, check.Err)
}

func TestCardValidator_NoRecognizerFailsClosed(t *testing.T) {
	v := NewCardValidator(nil, DefaultCardMinAspect, DefaultCardMaxAspect, zaptest.NewLogger(t))
	check := v.Check(context.Background(), solidImage(856, 540))
	require.False(t, check.Valid)
	require.ErrorIs(t, check.Err, ErrCapabilityUnavailable)
}

func TestCardValidator_EmptyImage(t *testing.T) {
	text := &fakeText{regions: 1}
	v := newValidator(t, text)
	require.Equal(t, GateImage, v.Check(context.Background(), nil).Gate)
	require.Equal(t, GateImage, v.Check(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0))).Gate)
	require.Zero(t, text.calls.Load())
}

func TestCardValidator_ValidateDeliversOnce(t *testing.T) {
	v := newValidator(t, &fakeText{regions: 1})
	ch := v.Validate(context.Background(), solidImage(856, 540))

	select {
	case ok := <-ch:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("verdict not delivered")
	}
}

func TestCardValidator_ConcurrentChecksAreIndependent(t *testing.T) {
	v := newValidator(t, &fakeText{regions: 1})
	got := make([]bool, 16)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img := solidImage(856, 540)
			if i%2 == 0 {
				img = solidImage(300, 300)
			}
			got[i] = <-v.Validate(context.Background(), img)
		}(i)
	}
	wg.Wait()

	for i, ok := range got {
		require.Equal(t, i%2 != 0, ok, "check %d", i)
	}
}
