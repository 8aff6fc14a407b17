package app

import (
	"context"
	"image"

	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/geometry"
	"card-scanner/internal/domain/port"
)

// Границы отношения сторон для карты ID-1 (85.60 x 53.98 мм, около 1.586).
const (
	DefaultCardMinAspect = 1.4
	DefaultCardMaxAspect = 1.8
)

// Gate этап проверки, на котором принято решение.
type Gate string

const (
	GateImage  Gate = "image"
	GateAspect Gate = "aspect"
	GateText   Gate = "text"
)

// CardCheck подробный результат проверки одного снимка.
type CardCheck struct {
	Valid   bool
	Gate    Gate
	Aspect  float64
	Regions int
	Err     error
}

// CardValidator двухэтапная проверка, что на снимке карта.
// Не хранит изменяемого состояния, параллельные проверки независимы.
type CardValidator struct {
	text      port.TextRecognizer
	minAspect float64
	maxAspect float64
	logger    *zap.Logger
}

func NewCardValidator(text port.TextRecognizer, minAspect, maxAspect float64, logger *zap.Logger) *CardValidator {
	return &CardValidator{
		text:      text,
		minAspect: minAspect,
		maxAspect: maxAspect,
		logger:    logger.Named("card_validator"),
	}
}

// Validate запускает проверку в отдельной горутине и один раз отдаёт вердикт в канал.
func (v *CardValidator) Validate(ctx context.Context, img image.Image) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		out <- v.Check(ctx, img).Valid
	}()
	return out
}

// Check выполняет обе проверки синхронно. Первая неудачная прерывает проверку.
func (v *CardValidator) Check(ctx context.Context, img image.Image) CardCheck {
	if img == nil || !geometry.SizeOf(img).Valid() {
		v.logger.Debug("rejected", zap.String("gate", string(GateImage)))
		return CardCheck{Gate: GateImage}
	}

	aspect := geometry.SizeOf(img).AspectRatio()
	if !(aspect > v.minAspect && aspect < v.maxAspect) {
		v.logger.Debug("rejected", zap.String("gate", string(GateAspect)), zap.Float64("aspect", aspect))
		return CardCheck{Gate: GateAspect, Aspect: aspect}
	}

	check := CardCheck{Gate: GateText, Aspect: aspect}
	if v.text == nil {
		check.Err = ErrCapabilityUnavailable
		return check
	}

	regions, err := v.text.RecognizeText(ctx, img, entity.SpeedFast)
	if err != nil {
		// Ошибка распознавания равна отсутствию текста
		v.logger.Warn("text recognition failed", zap.Error(err))
		check.Err = err
		return check
	}

	check.Regions = len(regions)
	check.Valid = len(regions) > 0
	v.logger.Debug("checked",
		zap.Bool("valid", check.Valid),
		zap.Float64("aspect", aspect),
		zap.Int("regions", check.Regions),
	)
	return check
}
