package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
	"card-scanner/internal/domain/port"
)

// FaceScanService поиск лиц на одном снимке.
type FaceScanService struct {
	flow     *FlowService
	detector port.FaceDetector
	painter  port.OverlayPainter
	logger   *zap.Logger
}

// FaceScanOutput содержит найденные рамки и картинку с подсветкой.
type FaceScanOutput struct {
	Batch       entity.DetectionBatch
	Overlay     entity.Overlay
	Highlighted []byte
}

// NewFaceScanService создаёт сервис поиска лиц на снимке.
func NewFaceScanService(flow *FlowService, detector port.FaceDetector, painter port.OverlayPainter, logger *zap.Logger) *FaceScanService {
	return &FaceScanService{
		flow:     flow,
		detector: detector,
		painter:  painter,
		logger:   logger.Named("face_scan"),
	}
}

// Begin переводит пользователя к выбору снимка.
func (s *FaceScanService) Begin(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.flow.ChooseFromImage(ctx, userID, chatID)
}

// ScanImage ищет лица на снимке и возвращает пользователя в главное меню.
func (s *FaceScanService) ScanImage(ctx context.Context, userID, chatID int64, data []byte) (*FaceScanOutput, error) {
	user, err := s.flow.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State != entity.StateImagePickingForFaceScan {
		return nil, fmt.Errorf("%w: scan image from %s", ErrInvalidTransition, user.State)
	}

	defer func() {
		if _, err := s.flow.FinishFaceScan(ctx, userID, chatID); err != nil {
			s.logger.Warn("finish face scan", zap.Int64("user_id", userID), zap.Error(err))
		}
	}()

	if s.detector == nil {
		return nil, fmt.Errorf("%w: face detector is not configured", ErrCapabilityUnavailable)
	}

	// Снимок уже повёрнут по EXIF, детектору он передаётся как прямой
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	boxes, err := s.detector.DetectFaceRectangles(ctx, img, entity.OrientationUp)
	if err != nil {
		// Ошибка детектора равна отсутствию лиц
		s.logger.Warn("face detection failed", zap.Int64("user_id", userID), zap.Error(err))
		boxes = nil
	}

	size := geometry.SizeOf(img)
	batch := entity.DetectionBatch{Boxes: boxes, Source: size}
	overlay := entity.NewOverlay(batch, size, entity.LabelFace)

	var highlighted []byte
	if s.painter != nil && overlay.Len() > 0 {
		highlighted, err = s.painter.Paint(img, overlay)
		if err != nil {
			s.logger.Warn("paint overlay", zap.Int64("user_id", userID), zap.Error(err))
			highlighted = nil
		}
	}

	s.logger.Info("faces scanned", zap.Int64("user_id", userID), zap.Int("faces", overlay.Len()))
	return &FaceScanOutput{Batch: batch, Overlay: overlay, Highlighted: highlighted}, nil
}
