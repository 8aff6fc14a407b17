package app

import "errors"

var (
	// ErrInvalidTransition действие недоступно в текущем сценарии пользователя.
	ErrInvalidTransition = errors.New("invalid flow transition")

	// ErrCameraBusy камерой уже владеет другой сценарий.
	ErrCameraBusy = errors.New("camera is owned by another flow")

	// ErrCapabilityUnavailable нет камеры или детектора.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrUnsupportedImage из снимка не удалось получить пиксели.
	ErrUnsupportedImage = errors.New("unsupported image")
)
