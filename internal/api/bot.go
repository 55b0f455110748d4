package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "facecam/internal/application"
	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я слежу за камерой и распознаю лица и эмоции.

📋 Команды:
/capture — сделать снимок с разметкой
/expression — текущая эмоция
/status — состояние камеры и моделей
/gallery — снимки этой сессии
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /capture — бот пришлёт кадр с рамками, точками лица и эмоциями
2️⃣ /expression — эмоция первого найденного лица
3️⃣ /gallery — список сделанных снимков

💡 Если модели или камера не готовы, /status покажет причину.`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendCommand    = "📋 Я понимаю только команды. Используйте /help для справки."
	msgCapturing      = "⏳ Делаю снимок..."
	msgCaptureError   = "⚠️ Не удалось сделать снимок. Попробуйте позже."
	msgNotPlaying     = "📷 Камера ещё не запущена. Проверьте /status."
	msgNoFaces        = "🙈 Лицо не найдено."
	msgGalleryEmpty   = "🖼 Снимков пока нет. Используйте /capture."
)

// Session операции сессии, которые нужны боту
type Session interface {
	Capture(ctx context.Context) (*entity.CapturedImage, error)
	Expression() entity.Expression
	Status() app.Status
	Gallery() port.Gallery
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	session Session
}

// NewBot создаёт нового бота
func NewBot(token string, session Session) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:     api,
		out:     api,
		session: session,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
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
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgSendCommand)
		return
	}
	b.handleCommand(ctx, msg)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "capture":
		b.handleCapture(ctx, msg.Chat.ID)

	case "expression":
		b.sendMessage(msg.Chat.ID, expressionText(b.session.Expression()))

	case "status":
		b.sendMessage(msg.Chat.ID, statusText(b.session.Status()))

	case "gallery":
		b.sendMessage(msg.Chat.ID, galleryText(b.session.Gallery().List()))

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleCapture делает снимок и отправляет его фотографией
func (b *Bot) handleCapture(ctx context.Context, chatID int64) {
	b.sendMessage(chatID, msgCapturing)

	img, err := b.session.Capture(ctx)
	if errors.Is(err, app.ErrNotBound) {
		b.sendMessage(chatID, msgNotPlaying)
		return
	}
	if err != nil {
		log.Printf("Error capturing image: %v", err)
		b.sendMessage(chatID, msgCaptureError)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: img.FileName, Bytes: img.Data})
	photo.Caption = fmt.Sprintf("📸 %s\n%s", img.FileName, expressionText(b.session.Expression()))
	if _, err := b.out.Send(photo); err != nil {
		log.Printf("Error sending photo: %v", err)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

var expressionNames = map[entity.Expression]string{
	entity.Neutral:   "😐 нейтральное",
	entity.Happy:     "😄 радость",
	entity.Sad:       "😢 грусть",
	entity.Angry:     "😠 злость",
	entity.Fearful:   "😨 страх",
	entity.Disgusted: "🤢 отвращение",
	entity.Surprised: "😲 удивление",
}

func expressionText(e entity.Expression) string {
	name, ok := expressionNames[e]
	if !ok {
		return msgNoFaces
	}
	return "Эмоция: " + name
}

var stateNames = map[entity.InitState]string{
	entity.InitNotStarted: "не запущено",
	entity.InitLoading:    "загрузка",
	entity.InitReady:      "✅ готово",
	entity.InitFailed:     "❌ ошибка",
}

func statusText(st app.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧠 Модели: %s\n", initText(st.Models))
	fmt.Fprintf(&sb, "📷 Камера: %s\n", initText(st.Camera))
	if st.Polling {
		sb.WriteString("🔁 Детекция: идёт\n")
	} else {
		sb.WriteString("⏸ Детекция: остановлена\n")
	}
	fmt.Fprintf(&sb, "👤 Лиц в кадре: %d\n", st.Faces)
	fmt.Fprintf(&sb, "🖼 Снимков: %d", st.Captures)
	return sb.String()
}

func initText(s app.InitStatus) string {
	text := stateNames[s.State]
	if s.Error != "" {
		text += " (" + s.Error + ")"
	}
	return text
}

func galleryText(images []*entity.CapturedImage) string {
	if len(images) == 0 {
		return msgGalleryEmpty
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🖼 Снимков: %d\n", len(images))
	for i, img := range images {
		fmt.Fprintf(&sb, "%d. %s (%dx%d, %s)\n", i+1, img.FileName, img.Width, img.Height, img.CreatedAt.Format("15:04:05"))
	}
	return strings.TrimRight(sb.String(), "\n")
}
