package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
)

type Config struct {
	TelegramToken string

	LogLevel string
	LogDev   bool

	FaceCascadePath string
	OCRLanguage     string

	CameraDevice      int // основная камера
	FrontCameraDevice int
	CameraFacing      entity.Facing
	CapturePreset     entity.Preset
	DeviceOrientation entity.DeviceOrientation
	CaptureFPS        int

	CardMinAspect float64
	CardMaxAspect float64

	PreviewAddr    string // пустой адрес отключает превью
	PreviewWidth   int
	PreviewHeight  int
	PreviewGravity geometry.Gravity
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	preset, presetErr := entity.ParsePreset(getEnv("CAPTURE_PRESET", string(entity.PresetHigh)))
	gravity, gravityErr := geometry.ParseGravity(getEnv("PREVIEW_GRAVITY", string(geometry.GravityAspectFill)))

	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogDev:            getEnvAsBool("LOG_DEV", false),
		FaceCascadePath:   getEnv("FACE_CASCADE_PATH", "data/haarcascade_frontalface_default.xml"),
		OCRLanguage:       getEnv("OCR_LANGUAGE", "eng+rus"),
		CameraDevice:      getEnvAsInt("CAMERA_DEVICE", 0),
		FrontCameraDevice: getEnvAsInt("FRONT_CAMERA_DEVICE", getEnvAsInt("CAMERA_DEVICE", 0)),
		CameraFacing:      entity.Facing(getEnv("CAMERA_FACING", string(entity.FacingFront))),
		CapturePreset:     preset,
		// Веб-камера стоит горизонтально, portrait нужен для повёрнутых сенсоров телефона
		DeviceOrientation: entity.DeviceOrientation(getEnv("DEVICE_ORIENTATION", string(entity.DeviceLandscapeRight))),
		CaptureFPS:        getEnvAsInt("CAPTURE_FPS", 15),
		CardMinAspect:     getEnvAsFloat("CARD_MIN_ASPECT", 1.4),
		CardMaxAspect:     getEnvAsFloat("CARD_MAX_ASPECT", 1.8),
		PreviewAddr:       getEnv("PREVIEW_ADDR", ""),
		PreviewWidth:      getEnvAsInt("PREVIEW_WIDTH", 720),
		PreviewHeight:     getEnvAsInt("PREVIEW_HEIGHT", 1280),
		PreviewGravity:    gravity,
	}

	if err := multierr.Combine(presetErr, gravityErr, cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить по умолчанию.
func (c *Config) Validate() error {
	var err error
	if c.TelegramToken == "" {
		err = multierr.Append(err, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.CameraFacing != entity.FacingFront && c.CameraFacing != entity.FacingBack {
		err = multierr.Append(err, fmt.Errorf("CAMERA_FACING must be front or back, got %q", c.CameraFacing))
	}
	switch c.DeviceOrientation {
	case entity.DevicePortrait, entity.DevicePortraitUpsideDown, entity.DeviceLandscapeLeft, entity.DeviceLandscapeRight:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown DEVICE_ORIENTATION %q", c.DeviceOrientation))
	}
	if c.CardMinAspect <= 0 || c.CardMinAspect >= c.CardMaxAspect {
		err = multierr.Append(err, fmt.Errorf("card aspect bounds must satisfy 0 < min < max, got %.3f..%.3f", c.CardMinAspect, c.CardMaxAspect))
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		err = multierr.Append(err, fmt.Errorf("preview size must be positive, got %dx%d", c.PreviewWidth, c.PreviewHeight))
	}
	if c.CaptureFPS < 0 {
		err = multierr.Append(err, fmt.Errorf("CAPTURE_FPS must not be negative, got %d", c.CaptureFPS))
	}
	return err
}

// CaptureConfig параметры камеры для живого сканирования.
func (c *Config) CaptureConfig() entity.CaptureConfig {
	return entity.CaptureConfig{
		FrontDevice: c.FrontCameraDevice,
		BackDevice:  c.CameraDevice,
		Facing:      c.CameraFacing,
		Preset:      c.CapturePreset,
		Orientation: c.DeviceOrientation,
		FPS:         c.CaptureFPS,
	}
}

// PreviewSize размер слоя превью.
func (c *Config) PreviewSize() geometry.Size {
	return geometry.Size{Width: float64(c.PreviewWidth), Height: float64(c.PreviewHeight)}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
