package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"card-scanner/internal/container"
	"card-scanner/internal/domain/port"
)

// PreviewSinks выдаёт приёмник рамок живого сканирования для пользователя.
type PreviewSinks interface {
	Sink(userID int64) port.OverlaySink
}

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	services *container.Container
	preview  PreviewSinks
	logger   *zap.Logger
	download func(ctx context.Context, fileID string) ([]byte, error)

	mu          sync.Mutex
	mediaGroups map[int64]string // последний обработанный альбом в чате
	liveStatus  map[int64]int    // сообщение со счётчиком лиц по пользователю
}

// NewBot создаёт нового бота. preview может быть nil.
func NewBot(token string, services *container.Container, preview PreviewSinks, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("authorized", zap.String("account", api.Self.UserName))
	return newBot(api, services, preview, logger), nil
}

func newBot(api *tgbotapi.BotAPI, services *container.Container, preview PreviewSinks, logger *zap.Logger) *Bot {
	b := &Bot{
		api:         api,
		services:    services,
		preview:     preview,
		logger:      logger.Named("telegram"),
		mediaGroups: make(map[int64]string),
		liveStatus:  make(map[int64]int),
	}
	b.download = b.downloadFile
	services.Live.OnStreamEnd(b.liveEnded)
	return b
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// firstOfGroup отмечает альбом. Из альбома обрабатывается только первое фото.
func (b *Bot) firstOfGroup(chatID int64, groupID string) bool {
	if groupID == "" {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mediaGroups[chatID] == groupID {
		return false
	}
	b.mediaGroups[chatID] = groupID
	return true
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	msg, err := b.api.Send(c)
	if err != nil {
		b.logger.Warn("send message", zap.Error(err))
		return msg, false
	}
	return msg, true
}
