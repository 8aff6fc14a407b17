package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "card-scanner/internal/application"
	"card-scanner/internal/domain/entity"
)

const (
	btnScanCard = "Scan Card"
	btnScanFace = "Scan Face"
	btnStop     = "Stop"

	cbFaceImage = "face:image"
	cbFaceLive  = "face:live"
	cbLiveStop  = "live:stop"
	cbCancel    = "cancel"
)

const (
	msgStart = `👋 Привет! Я проверяю снимки карт и ищу лица.

📇 Scan Card — проверить, что на снимке карта
🙂 Scan Face — найти лица на фото или с камеры

📋 Команды:
/card — проверить карту
/face — найти лица
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

📇 Карта: нажмите Scan Card и отправьте фото карты. Если фото несколько, проверяется первое.
Карта принимается, если снимок вытянут как банковская карта и на нём есть текст.

🙂 Лица: нажмите Scan Face и выберите
• From Image — пришлите фото, я обведу лица
• Live Face Detection — поиск лиц с камеры сервера, счётчик обновляется в сообщении

📋 Команды:
/card /face /cancel`

	msgSendCard        = "📇 Отправьте фото карты. /cancel — отмена."
	msgChooseFace      = "🙂 Где искать лица?"
	msgSendFacePhoto   = "📸 Отправьте фото, на котором нужно найти лица."
	msgCancelled       = "❌ Операция отменена."
	msgNothingToCancel = "Нечего отменять."
	msgBusyFlow        = "⏳ Сначала завершите текущую операцию или отправьте /cancel."
	msgChooseAction    = "Выберите действие: Scan Card или Scan Face."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgLiveRunning     = "🎥 Идёт поиск лиц с камеры. Нажмите Stop или /cancel."
	msgLiveStarting    = "🎥 Запускаю камеру..."
	msgLiveFinished    = "🎥 Поиск лиц завершён."
	msgCameraBusy      = "📷 Камера занята другим пользователем, попробуйте позже."
	msgCameraMissing   = "📷 Камера или детектор недоступны."
	msgNoFaces         = "🙈 Лица не найдены."
	msgBadImage        = "⚠️ Не удалось прочитать изображение. Пришлите JPEG или PNG."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте ещё раз."
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnScanCard),
			tgbotapi.NewKeyboardButton(btnScanFace),
		),
	)
}

func faceKeyboard(choices []string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, choice := range choices {
		data := cbFaceImage
		if choice == entity.ChoiceLive {
			data = cbFaceLive
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(choice, data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func stopKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnStop, cbLiveStop)),
	)
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user, err := b.services.Flow.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	switch msg.Text {
	case btnScanCard:
		b.startCard(ctx, user)
		return
	case btnScanFace:
		b.offerFaceScan(ctx, user)
		return
	}

	// Обработка фото и картинок, отправленных файлом
	if fileID, ok := imageFileID(msg); ok {
		if b.firstOfGroup(msg.Chat.ID, msg.MediaGroupID) {
			b.handleImage(ctx, user, fileID)
		}
		return
	}

	b.sendHint(user)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		if user.State != entity.StateIdle {
			user = b.cancel(ctx, user, false)
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, msgStart+"\n\n🏷 "+user.Title)
		reply.ReplyMarkup = mainKeyboard()
		b.send(reply)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "card":
		b.startCard(ctx, user)

	case "face":
		b.offerFaceScan(ctx, user)

	case "cancel":
		b.cancel(ctx, user, true)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатия на кнопки под сообщениями
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Debug("answer callback", zap.Error(err))
	}
	if cb.From == nil || cb.Message == nil {
		return
	}

	user, err := b.services.Flow.Get(ctx, cb.From.ID, cb.Message.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		return
	}

	switch cb.Data {
	case cbFaceImage:
		if _, err := b.services.FaceScan.Begin(ctx, user.ID, user.ChatID); err != nil {
			b.replyFlowError(user.ChatID, err)
			return
		}
		b.sendMessage(user.ChatID, msgSendFacePhoto)

	case cbFaceLive:
		b.startLive(ctx, user)

	case cbLiveStop, cbCancel:
		b.cancel(ctx, user, true)
	}
}

func (b *Bot) startCard(ctx context.Context, user *entity.User) {
	if _, err := b.services.Cards.Begin(ctx, user.ID, user.ChatID); err != nil {
		b.replyFlowError(user.ChatID, err)
		return
	}
	b.sendMessage(user.ChatID, msgSendCard)
}

func (b *Bot) offerFaceScan(ctx context.Context, user *entity.User) {
	choices, err := b.services.Flow.TapScanFace(ctx, user.ID, user.ChatID)
	if err != nil {
		b.replyFlowError(user.ChatID, err)
		return
	}
	reply := tgbotapi.NewMessage(user.ChatID, msgChooseFace)
	reply.ReplyMarkup = faceKeyboard(choices)
	b.send(reply)
}

// handleImage направляет снимок в сценарий, который сейчас открыт
func (b *Bot) handleImage(ctx context.Context, user *entity.User, fileID string) {
	switch user.State {
	case entity.StateCardScanning:
		b.scanCard(ctx, user, fileID)
	case entity.StateImagePickingForFaceScan:
		b.scanFaces(ctx, user, fileID)
	default:
		b.sendHint(user)
	}
}

func (b *Bot) scanCard(ctx context.Context, user *entity.User, fileID string) {
	var pages [][]byte
	data, err := b.download(ctx, fileID)
	if err != nil {
		// Без страниц сканирование закрывается как отменённое
		b.logger.Warn("download card photo", zap.Int64("user_id", user.ID), zap.Error(err))
		b.sendMessage(user.ChatID, msgProcessingError)
	} else {
		pages = [][]byte{data}
	}

	card, updated, err := b.services.Cards.SubmitPages(ctx, user.ID, user.ChatID, pages)
	if err != nil {
		b.logger.Error("submit card", zap.Error(err))
		b.sendMessage(user.ChatID, msgProcessingError)
		return
	}
	if card == nil {
		return
	}

	text := "✅ " + updated.Title
	if !card.Valid {
		text = "❌ " + updated.Title + "\nПопробуйте другой снимок: Scan Card."
	}
	reply := tgbotapi.NewMessage(user.ChatID, text)
	reply.ReplyMarkup = mainKeyboard()
	b.send(reply)
}

func (b *Bot) scanFaces(ctx context.Context, user *entity.User, fileID string) {
	data, err := b.download(ctx, fileID)
	if err != nil {
		b.logger.Warn("download face photo", zap.Int64("user_id", user.ID), zap.Error(err))
		b.sendMessage(user.ChatID, msgProcessingError)
		if _, err := b.services.Flow.FinishFaceScan(ctx, user.ID, user.ChatID); err != nil {
			b.logger.Warn("finish face scan", zap.Error(err))
		}
		return
	}

	out, err := b.services.FaceScan.ScanImage(ctx, user.ID, user.ChatID, data)
	switch {
	case errors.Is(err, app.ErrUnsupportedImage):
		b.sendMessage(user.ChatID, msgBadImage)
		return
	case errors.Is(err, app.ErrCapabilityUnavailable):
		b.sendMessage(user.ChatID, msgCameraMissing)
		return
	case err != nil:
		b.logger.Error("scan faces", zap.Error(err))
		b.sendMessage(user.ChatID, msgProcessingError)
		return
	}

	if out.Overlay.Len() == 0 {
		b.sendMessage(user.ChatID, msgNoFaces)
		return
	}
	// Рамки не нарисовались, но число лиц известно
	if out.Highlighted == nil {
		b.sendMessage(user.ChatID, facesCaption(out.Overlay.Len()))
		return
	}
	photo := tgbotapi.NewPhoto(user.ChatID, tgbotapi.FileBytes{Name: "faces.jpg", Bytes: out.Highlighted})
	photo.Caption = facesCaption(out.Overlay.Len())
	b.send(photo)
}

// startLive запускает поиск лиц с камеры. Счётчик лиц обновляется в одном сообщении.
func (b *Bot) startLive(ctx context.Context, user *entity.User) {
	status := tgbotapi.NewMessage(user.ChatID, msgLiveStarting)
	status.ReplyMarkup = stopKeyboard()
	sent, ok := b.send(status)
	if !ok {
		return
	}

	chatID, messageID := user.ChatID, sent.MessageID
	edit := func(text string, markup *tgbotapi.InlineKeyboardMarkup) error {
		return b.editStatus(chatID, messageID, text, markup)
	}
	b.mu.Lock()
	b.liveStatus[user.ID] = messageID
	b.mu.Unlock()

	stop := stopKeyboard()
	sink := app.MultiSink{app.NewCountSink(func(ctx context.Context, count int) error {
		return edit("🎥 "+facesCaption(count), &stop)
	})}
	if b.preview != nil {
		sink = append(sink, b.preview.Sink(user.ID))
	}

	_, err := b.services.Live.Start(ctx, user.ID, user.ChatID, sink)
	if err == nil {
		return
	}
	b.takeLiveStatus(user.ID)

	text := msgProcessingError
	switch {
	case errors.Is(err, app.ErrCameraBusy):
		text = msgCameraBusy
	case errors.Is(err, app.ErrCapabilityUnavailable):
		text = msgCameraMissing
	case errors.Is(err, app.ErrInvalidTransition):
		text = msgBusyFlow
	default:
		b.logger.Error("start live scan", zap.Error(err))
	}
	if err := edit(text, nil); err != nil {
		b.logger.Warn("edit live status", zap.Error(err))
	}
}

// cancel возвращает пользователя в главное меню из любого сценария
func (b *Bot) cancel(ctx context.Context, user *entity.User, notify bool) *entity.User {
	var (
		next *entity.User
		text = msgCancelled
		err  error
	)

	switch user.State {
	case entity.StateIdle:
		if notify {
			b.sendMessage(user.ChatID, msgNothingToCancel)
		}
		return user
	case entity.StateLiveFaceScanning:
		var stats app.LiveStats
		next, stats, err = b.services.Live.Stop(ctx, user.ID, user.ChatID)
		text = fmt.Sprintf("⏹ Поиск лиц остановлен. Кадров: %d, обработано: %d, пропущено: %d.",
			stats.Frames, stats.Detected, stats.Dropped)
		if messageID, ok := b.takeLiveStatus(user.ID); ok {
			if err := b.editStatus(user.ChatID, messageID, msgLiveFinished, nil); err != nil {
				b.logger.Warn("edit live status", zap.Error(err))
			}
		}
	case entity.StateCardScanning:
		next, err = b.services.Cards.Cancel(ctx, user.ID, user.ChatID)
	default:
		next, err = b.services.Flow.Cancel(ctx, user.ID, user.ChatID)
	}
	if err != nil {
		b.logger.Error("cancel flow", zap.Int64("user_id", user.ID), zap.Error(err))
		return user
	}

	if notify {
		reply := tgbotapi.NewMessage(user.ChatID, text)
		reply.ReplyMarkup = mainKeyboard()
		b.send(reply)
	}
	return next
}

// liveEnded сообщает, что камера перестала отдавать кадры
func (b *Bot) liveEnded(userID, chatID int64, stats app.LiveStats) {
	text := fmt.Sprintf("⏹ Камера отключилась. Кадров: %d, обработано: %d, пропущено: %d.",
		stats.Frames, stats.Detected, stats.Dropped)

	if messageID, ok := b.takeLiveStatus(userID); ok {
		if err := b.editStatus(chatID, messageID, msgLiveFinished, nil); err != nil {
			b.logger.Warn("edit live status", zap.Error(err))
		}
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = mainKeyboard()
	b.send(reply)
}

func (b *Bot) takeLiveStatus(userID int64) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	messageID, ok := b.liveStatus[userID]
	delete(b.liveStatus, userID)
	return messageID, ok
}

// editStatus меняет текст сообщения. Без markup кнопки под сообщением убираются.
func (b *Bot) editStatus(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	cfg.ReplyMarkup = markup
	_, err := b.api.Send(cfg)
	return err
}

func (b *Bot) replyFlowError(chatID int64, err error) {
	if errors.Is(err, app.ErrInvalidTransition) {
		b.sendMessage(chatID, msgBusyFlow)
		return
	}
	b.logger.Error("flow transition", zap.Error(err))
	b.sendMessage(chatID, msgProcessingError)
}

// sendHint подсказывает, чего бот ждёт в текущем сценарии
func (b *Bot) sendHint(user *entity.User) {
	switch user.State {
	case entity.StateCardScanning:
		b.sendMessage(user.ChatID, msgSendCard)
	case entity.StateImagePickingForFaceScan:
		b.sendMessage(user.ChatID, msgSendFacePhoto)
	case entity.StateLiveFaceScanning:
		b.sendMessage(user.ChatID, msgLiveRunning)
	default:
		reply := tgbotapi.NewMessage(user.ChatID, msgChooseAction)
		reply.ReplyMarkup = mainKeyboard()
		b.send(reply)
	}
}

// imageFileID возвращает файл с самым большим разрешением
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

func facesCaption(n int) string {
	return fmt.Sprintf("Faces: %d", n)
}
