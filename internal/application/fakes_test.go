package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
	"card-scanner/internal/domain/port"
)

// fakeText распознаватель текста с заданным ответом.
type fakeText struct {
	regions int
	err     error
	calls   atomic.Int32
}

func (f *fakeText) RecognizeText(ctx context.Context, img image.Image, mode entity.SpeedMode) ([]entity.TextRegion, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return make([]entity.TextRegion, f.regions), nil
}

// fakeFaces детектор лиц, отдающий одни и те же рамки.
type fakeFaces struct {
	boxes []geometry.NormalizedBox
	err   error
	calls atomic.Int32
	// gate, если задан, держит детектор до закрытия канала
	gate chan struct{}
}

func (f *fakeFaces) DetectFaceRectangles(ctx context.Context, img image.Image, o entity.Orientation) ([]geometry.NormalizedBox, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.boxes, nil
}

// recordingSink запоминает все показанные снимки рамок.
type recordingSink struct {
	mu       sync.Mutex
	overlays []entity.Overlay
	err      error
}

func (s *recordingSink) Present(ctx context.Context, o entity.Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = append(s.overlays, o)
	return s.err
}

func (s *recordingSink) seqs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.overlays))
	for _, o := range s.overlays {
		out = append(out, o.Seq)
	}
	return out
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlays)
}

// fakePainter возвращает фиксированные байты.
type fakePainter struct {
	calls atomic.Int32
}

func (p *fakePainter) Paint(img image.Image, o entity.Overlay) ([]byte, error) {
	p.calls.Add(1)
	return []byte("painted"), nil
}

// fakeStream поток кадров из канала.
type fakeStream struct {
	frames chan entity.Frame
	closed atomic.Bool
}

func (s *fakeStream) Read(ctx context.Context) (entity.Frame, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return entity.Frame{}, errors.New("stream ended")
		}
		return f, nil
	case <-ctx.Done():
		return entity.Frame{}, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

// fakeCapture источник, открывающий заранее созданные потоки.
type fakeCapture struct {
	mu      sync.Mutex
	streams []*fakeStream
	opened  []entity.CaptureConfig
	failFor map[entity.Facing]bool
}

func (c *fakeCapture) Open(ctx context.Context, cfg entity.CaptureConfig) (port.FrameStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFor[cfg.Facing] {
		return nil, errors.New("no device")
	}
	c.opened = append(c.opened, cfg)
	s := &fakeStream{frames: make(chan entity.Frame)}
	c.streams = append(c.streams, s)
	return s, nil
}

func (c *fakeCapture) last() *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[len(c.streams)-1]
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(w, h), nil))
	return buf.Bytes()
}
