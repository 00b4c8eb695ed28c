package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "leaf-health-bot/internal/application"
	"leaf-health-bot/internal/container"
	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/log"
	"leaf-health-bot/internal/report"
)

const (
	msgStart = `👋 Привет! Я бот для диагностики болезней листьев.

📸 Отправьте мне фото листа, и я оценю площадь поражения и найду симптомы.

📋 Команды:
/check — начать проверку листа
/history — последние диагнозы
/report — отчёт по всем снимкам
/clear — очистить историю
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото листа (можно файлом или альбомом)
2️⃣ Бот проанализирует изображение
3️⃣ Вы получите степень поражения, симптомы и фото с подсветкой пятен

💡 Рекомендации:
• Снимайте при дневном освещении
• Лист должен занимать большую часть кадра
• Фото должно быть чётким

📋 Команды:
/check — начать проверку
/history — последние диагнозы
/report — отчёт в markdown
/clear — очистить историю
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото листа для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото листа для проверки."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProcessingAlbum = "⏳ Обрабатываю альбом: %d фото..."
	msgBusy            = "⏳ Предыдущий снимок ещё обрабатывается, подождите."
	msgDecodeError     = "⚠️ Не удалось прочитать изображение. Пришлите JPEG или PNG."
	msgTimeout         = "⌛ Анализ занял слишком много времени. Попробуйте снимок меньшего размера."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgHistoryEmpty    = "📭 История пуста. Отправьте фото листа."
	msgHistoryCleared  = "🗑 История очищена."
	msgInternalError   = "⚠️ Что-то пошло не так. Попробуйте позже."

	// maxCaption: предел Telegram на подпись к фото
	maxCaption = 1024
	reportName = "crop_health_report.md"
)

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	container *container.Container
	client    *http.Client
	albumWait time.Duration
	albums    *albumCollector
}

// NewBot создаёт нового бота; albumWait: сколько ждать остальные снимки альбома
func NewBot(token string, c *container.Container, albumWait time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:       api,
		container: c,
		client:    &http.Client{Timeout: time.Minute},
		albumWait: albumWait,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.albums = newAlbumCollector(b.albumWait, func(a *album) {
		b.handleAlbum(ctx, a)
	})

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.container.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Errorf("Error getting user: %v", err)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Анализ идёт в отдельной горутине, чтобы бот отвечал остальным пользователям
	if fileID, name, ok := imageFile(msg); ok {
		if msg.MediaGroupID != "" {
			b.albums.add(msg.MediaGroupID, msg.From.ID, msg.Chat.ID, albumPhoto{fileID: fileID, name: name})
			return
		}
		go b.handlePhoto(ctx, msg.From.ID, msg.Chat.ID, fileID, name)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	users := b.container.UserService

	switch msg.Command() {
	case "start":
		if _, err := users.Cancel(ctx, user.ID, user.ChatID); err != nil && !errors.Is(err, app.ErrBusy) {
			log.Errorf("Error saving user: %v", err)
		}
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := users.BeginCheck(ctx, user.ID, user.ChatID); err != nil {
			b.replyStateError(msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		if _, err := users.Cancel(ctx, user.ID, user.ChatID); err != nil {
			b.replyStateError(msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, msgCancelled)

	case "history":
		b.sendHistory(ctx, user)

	case "report":
		b.sendReport(ctx, user)

	case "clear":
		if err := b.container.DiagnosisService.ClearHistory(ctx, user.ID); err != nil {
			log.Errorf("Error clearing history: %v", err)
			b.sendMessage(msg.Chat.ID, msgInternalError)
			return
		}
		b.sendMessage(msg.Chat.ID, msgHistoryCleared)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto скачивает снимок, диагностирует его и отправляет результат
func (b *Bot) handlePhoto(ctx context.Context, userID, chatID int64, fileID, name string) {
	b.sendMessage(chatID, msgProcessing)

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Errorf("Error downloading photo: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	out, err := b.container.DiagnosisService.ProcessPhoto(ctx, userID, chatID, name, data)
	if err != nil {
		log.Errorw("photo processing failed", "user_id", userID, "file_id", fileID, "error", err)
		b.sendMessage(chatID, errorMessage(err))
		return
	}

	b.sendDiagnosis(chatID, out)
}

// handleAlbum скачивает снимки альбома и диагностирует их пачкой
func (b *Bot) handleAlbum(ctx context.Context, a *album) {
	b.sendMessage(a.chatID, fmt.Sprintf(msgProcessingAlbum, len(a.photos)))

	uploads := make([]app.Upload, 0, len(a.photos))
	for _, p := range a.photos {
		data, err := b.downloadFile(ctx, p.fileID)
		if err != nil {
			log.Errorf("Error downloading album photo: %v", err)
			b.sendMessage(a.chatID, msgProcessingError)
			return
		}
		uploads = append(uploads, app.Upload{ImageID: p.name, Data: data})
	}

	items, err := b.container.DiagnosisService.ProcessBatch(ctx, a.userID, a.chatID, uploads)
	if err != nil {
		log.Errorw("album processing failed", "user_id", a.userID, "media_group_id", a.groupID, "error", err)
		b.sendMessage(a.chatID, errorMessage(err))
		return
	}

	for i, item := range items {
		if item.Err != nil {
			log.Errorw("album photo failed", "user_id", a.userID, "index", i, "error", item.Err)
			b.sendMessage(a.chatID, fmt.Sprintf("%d: %s", i+1, errorMessage(item.Err)))
			continue
		}
		b.sendDiagnosis(a.chatID, item.Output)
	}
}

// sendDiagnosis отправляет фото с подсветкой и описанием; здоровый лист приходит текстом
func (b *Bot) sendDiagnosis(chatID int64, out *app.DiagnosisOutput) {
	if len(out.Highlighted) == 0 {
		b.sendMessage(chatID, out.Description)
		return
	}

	caption, truncated := truncateCaption(out.Description, maxCaption)
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  out.Result.ImageID + ".jpg",
		Bytes: out.Highlighted,
	})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.Errorf("Error sending photo: %v", err)
		b.sendMessage(chatID, out.Description)
		return
	}
	if truncated {
		b.sendMessage(chatID, out.Description)
	}
}

func (b *Bot) sendHistory(ctx context.Context, user *entity.User) {
	results, sum, err := b.container.DiagnosisService.History(ctx, user.ID)
	if err != nil {
		log.Errorf("Error loading history: %v", err)
		b.sendMessage(user.ChatID, msgInternalError)
		return
	}
	if len(results) == 0 {
		b.sendMessage(user.ChatID, msgHistoryEmpty)
		return
	}
	b.sendMessage(user.ChatID, formatHistory(results, sum))
}

func (b *Bot) sendReport(ctx context.Context, user *entity.User) {
	data, err := b.container.DiagnosisService.Report(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("Error building report: %v", err)
		b.sendMessage(user.ChatID, msgInternalError)
		return
	}

	doc := tgbotapi.NewDocument(user.ChatID, tgbotapi.FileBytes{Name: reportName, Bytes: data})
	if _, err := b.api.Send(doc); err != nil {
		log.Errorf("Error sending report: %v", err)
	}
}

func (b *Bot) replyStateError(chatID int64, err error) {
	if errors.Is(err, app.ErrBusy) {
		b.sendMessage(chatID, msgBusy)
		return
	}
	log.Errorf("Error saving user: %v", err)
	b.sendMessage(chatID, msgInternalError)
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

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Error sending message: %v", err)
	}
}

// imageFile выбирает снимок из сообщения: самое крупное фото или документ-картинку
func imageFile(msg *tgbotapi.Message) (fileID, name string, ok bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return photo.FileID, "", true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, msg.Document.FileName, true
	}
	return "", "", false
}

// errorMessage переводит ошибку диагностики в ответ пользователю
func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrBusy):
		return msgBusy
	case errors.Is(err, app.ErrDecode):
		return msgDecodeError
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	default:
		return msgProcessingError
	}
}

// truncateCaption обрезает текст по рунам, чтобы не разрезать UTF-8
func truncateCaption(text string, limit int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit-1]) + "…", true
}

func formatHistory(results []*entity.DiagnosisResult, sum report.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 Снимков: %d, средняя площадь поражения: %.2f%%\n", sum.Count, sum.MeanPercentage)
	for _, sev := range entity.Severities() {
		if n := sum.BySeverity[sev]; n > 0 {
			fmt.Fprintf(&sb, "• %s: %d\n", sev, n)
		}
	}
	for _, sym := range entity.Symptoms() {
		if n := sum.BySymptom[sym]; n > 0 {
			fmt.Fprintf(&sb, "• %s: %d\n", sym, n)
		}
	}
	sb.WriteString("\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s: %s, %.2f%%", i+1, r.ImageID, r.Severity, r.Percentage)
		if len(r.Symptoms) > 0 {
			names := make([]string, len(r.Symptoms))
			for j, s := range r.Symptoms {
				names[j] = string(s)
			}
			fmt.Fprintf(&sb, " (%s)", strings.Join(names, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
