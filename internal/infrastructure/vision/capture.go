//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

// Capture открывает веб-камеру через OpenCV.
type Capture struct{}

func NewCapture() *Capture {
	return &Capture{}
}

// Open открывает устройство для выбранной камеры.
func (c *Capture) Open(ctx context.Context, cfg entity.CaptureConfig) (port.FrameStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deviceID := cfg.DeviceID()
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("camera %d is not opened", deviceID)
	}

	width, height := cfg.Preset.Resolution()
	webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	if cfg.FPS > 0 {
		webcam.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}
	// Держим в буфере только последний кадр, опоздавшие выбрасываются
	webcam.Set(gocv.VideoCaptureBufferSize, 1)

	return &stream{
		webcam:      webcam,
		frame:       gocv.NewMat(),
		orientation: cfg.FrameOrientation(),
	}, nil
}

type stream struct {
	mu          sync.Mutex
	webcam      *gocv.VideoCapture
	frame       gocv.Mat
	orientation entity.Orientation
	seq         uint64
}

// Read читает следующий кадр.
func (s *stream) Read(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil {
		return entity.Frame{}, fmt.Errorf("stream is closed")
	}
	if !s.webcam.Read(&s.frame) || s.frame.Empty() {
		return entity.Frame{}, fmt.Errorf("camera returned no frame")
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return entity.Frame{}, fmt.Errorf("convert frame: %w", err)
	}
	s.seq++
	return entity.Frame{
		Seq:         s.seq,
		Image:       img,
		Orientation: s.orientation,
		CapturedAt:  time.Now(),
	}, nil
}

// Close освобождает камеру.
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.webcam == nil {
		return nil
	}
	err := s.webcam.Close()
	s.webcam = nil
	if cerr := s.frame.Close(); err == nil {
		err = cerr
	}
	return err
}
