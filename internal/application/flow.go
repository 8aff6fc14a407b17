package app

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

// FlowService управляет тем, какой сценарий открыт у пользователя.
type FlowService struct {
	repo   port.UserRepository
	logger *zap.Logger

	// Переходы читают и пишут пользователя, поэтому выполняются по одному.
	mu sync.Mutex
}

func NewFlowService(repo port.UserRepository, logger *zap.Logger) *FlowService {
	return &FlowService{repo: repo, logger: logger.Named("flow")}
}

func (s *FlowService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// TapScanCard открывает сканирование карты.
func (s *FlowService) TapScanCard(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, "tap_scan_card", []entity.FlowState{entity.StateIdle}, func(u *entity.User) {
		u.SetState(entity.StateCardScanning)
	})
}

// FinishCardScan закрывает сканирование карты и прикрепляет вердикт.
func (s *FlowService) FinishCardScan(ctx context.Context, userID, chatID int64, valid bool) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, "finish_card_scan", []entity.FlowState{entity.StateCardScanning}, func(u *entity.User) {
		u.SetState(entity.StateIdle)
		u.AttachCardVerdict(valid)
	})
}

// CancelCardScan закрывает сканирование карты без вердикта.
func (s *FlowService) CancelCardScan(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, "cancel_card_scan", []entity.FlowState{entity.StateCardScanning}, func(u *entity.User) {
		u.SetState(entity.StateIdle)
	})
}

// TapScanFace возвращает варианты сканирования лица. Состояние не меняется.
func (s *FlowService) TapScanFace(ctx context.Context, userID, chatID int64) ([]string, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State != entity.StateIdle {
		return nil, fmt.Errorf("%w: tap_scan_face from %s", ErrInvalidTransition, user.State)
	}
	return entity.FaceScanChoices(), nil
}

// ChooseFromImage открывает выбор снимка для поиска лиц.
func (s *FlowService) ChooseFromImage(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, "choose_from_image", []entity.FlowState{entity.StateIdle}, func(u *entity.User) {
		u.SetState(entity.StateImagePickingForFaceScan)
	})
}

// ChooseLive открывает поиск лиц с камеры.
func (s *FlowService) ChooseLive(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, "choose_live", []entity.FlowState{entity.StateIdle}, func(u *entity.User) {
		u.SetState(entity.StateLiveFaceScanning)
	})
}

// FinishFaceScan закрывает любой из сценариев поиска лиц.
func (s *FlowService) FinishFaceScan(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	from := []entity.FlowState{entity.StateImagePickingForFaceScan, entity.StateLiveFaceScanning}
	return s.transition(ctx, userID, chatID, "finish_face_scan", from, func(u *entity.User) {
		u.SetState(entity.StateIdle)
	})
}

// Cancel возвращает пользователя в главное меню из любого состояния.
// Меняется только состояние, вердикт и заголовок остаются.
func (s *FlowService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State == entity.StateIdle {
		return user, nil
	}

	if err := s.repo.UpdateState(ctx, userID, entity.StateIdle); err != nil {
		return nil, err
	}

	s.logger.Debug("transition",
		zap.Int64("user_id", userID),
		zap.String("action", "cancel"),
		zap.String("from", string(user.State)),
		zap.String("to", string(entity.StateIdle)),
	)
	user.SetState(entity.StateIdle)
	return user, nil
}

// transition применяет apply, если пользователь в одном из состояний from.
func (s *FlowService) transition(ctx context.Context, userID, chatID int64, action string, from []entity.FlowState, apply func(*entity.User)) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if from != nil && !slices.Contains(from, user.State) {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, user.State)
	}

	prev := user.State
	apply(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Debug("transition",
		zap.Int64("user_id", userID),
		zap.String("action", action),
		zap.String("from", string(prev)),
		zap.String("to", string(user.State)),
	)
	return user, nil
}
