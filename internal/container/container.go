package container

import (
	"go.uber.org/zap"

	"card-scanner/config"
	app "card-scanner/internal/application"
	"card-scanner/internal/domain/port"
)

// Dependencies внешние возможности, которые собирает main.
// Любая из них может быть nil, тогда соответствующий сценарий недоступен.
type Dependencies struct {
	Users        port.UserRepository
	Faces        port.FaceDetector
	FastText     port.TextRecognizer
	AccurateText port.TextRecognizer
	Capture      port.CaptureSource
	Painter      port.OverlayPainter
}

type Container struct {
	Flow      *app.FlowService
	Validator *app.CardValidator
	Cards     *app.CardScanService
	FaceScan  *app.FaceScanService
	Camera    *app.CameraSession
	Live      *app.LiveService
}

func New(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Container {
	flow := app.NewFlowService(deps.Users, logger)
	text := app.NewTextRouter(deps.FastText, deps.AccurateText)
	validator := app.NewCardValidator(text, cfg.CardMinAspect, cfg.CardMaxAspect, logger)
	camera := app.NewCameraSession(deps.Capture, cfg.CaptureConfig(), logger)

	return &Container{
		Flow:      flow,
		Validator: validator,
		Cards:     app.NewCardScanService(flow, validator, logger),
		FaceScan:  app.NewFaceScanService(flow, deps.Faces, deps.Painter, logger),
		Camera:    camera,
		Live:      app.NewLiveService(flow, camera, deps.Faces, cfg.PreviewSize(), cfg.PreviewGravity, logger),
	}
}
