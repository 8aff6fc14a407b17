package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
)

// CardScanService сценарий сканирования карты.
type CardScanService struct {
	flow      *FlowService
	validator *CardValidator
	logger    *zap.Logger
}

func NewCardScanService(flow *FlowService, validator *CardValidator, logger *zap.Logger) *CardScanService {
	return &CardScanService{flow: flow, validator: validator, logger: logger.Named("card_scan")}
}

// Begin открывает сканирование карты.
func (s *CardScanService) Begin(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.flow.TapScanCard(ctx, userID, chatID)
}

// Cancel закрывает сканирование без вердикта.
func (s *CardScanService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.flow.CancelCardScan(ctx, userID, chatID)
}

// SubmitPages принимает снятые страницы документа. Проверяется только первая.
// Пустой список равен отмене, тогда кандидат nil.
func (s *CardScanService) SubmitPages(ctx context.Context, userID, chatID int64, pages [][]byte) (*entity.CardCandidate, *entity.User, error) {
	user, err := s.flow.Get(ctx, userID, chatID)
	if err != nil {
		return nil, nil, err
	}
	if user.State != entity.StateCardScanning {
		return nil, nil, fmt.Errorf("%w: submit card from %s", ErrInvalidTransition, user.State)
	}

	if len(pages) == 0 {
		user, err := s.flow.CancelCardScan(ctx, userID, chatID)
		return nil, user, err
	}

	valid := false
	img, err := DecodeImage(pages[0])
	if err != nil {
		s.logger.Info("card image rejected", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		select {
		case valid = <-s.validator.Validate(ctx, img):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	user, err = s.flow.FinishCardScan(ctx, userID, chatID, valid)
	if err != nil {
		return nil, nil, err
	}

	// Для неподходящего снимка изображение не возвращается
	if !valid {
		img = nil
	}
	s.logger.Info("card scanned", zap.Int64("user_id", userID), zap.Bool("valid", valid))
	return entity.NewCardCandidate(img, valid), user, nil
}
