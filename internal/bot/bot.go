package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/iforgot/internal/notes"
	"github.com/xaenox/iforgot/internal/storage"
	"github.com/xaenox/iforgot/internal/transcribe"
)

const (
	recentNotes           = 5
	defaultRequestTimeout = 90 * time.Second
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Config struct {
	// OwnerID, when set, is the owner every chat's notes are saved under.
	// Otherwise each Telegram user gets an owner id derived from their
	// Telegram id.
	OwnerID string
	// EnsureOwner is called once per derived owner id before its first note.
	EnsureOwner    func(ctx context.Context, ownerID string) error
	RequestTimeout time.Duration
}

type Bot struct {
	api         telegramAPI
	notes       *notes.Service
	transcriber transcribe.Transcriber
	cfg         Config
	httpClient  *http.Client
	logger      *zap.Logger

	ensured sync.Map
	wg      sync.WaitGroup
}

func New(token string, svc *notes.Service, transcriber transcribe.Transcriber, cfg Config, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return newBot(api, svc, transcriber, cfg, logger), nil
}

func newBot(api telegramAPI, svc *notes.Service, transcriber transcribe.Transcriber, cfg Config, logger *zap.Logger) *Bot {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Bot{
		api:         api,
		notes:       svc,
		transcriber: transcriber,
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:      logger,
	}
}

// Start long-polls for updates until ctx is cancelled, handling each message
// on its own goroutine. It waits for in-flight messages before returning.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

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

			b.wg.Add(1)
			go func(message *tgbotapi.Message) {
				defer b.wg.Done()
				msgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.RequestTimeout)
				defer cancel()
				b.handleMessage(msgCtx, message)
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	ownerID, err := b.ownerFor(ctx, message.From)
	if err != nil {
		b.logger.Error("Failed to resolve owner",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't set up your account. Please try again.")
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	if fileID, mimeType, ok := audioOf(message); ok {
		transcript, err := b.transcribe(ctx, fileID, mimeType)
		if err != nil {
			b.logger.Error("Failed to transcribe voice message",
				zap.Error(err),
				zap.Int64("user_id", message.From.ID))
			if errors.Is(err, transcribe.ErrNoProvider) {
				b.sendErrorMessage(message.Chat.ID, "Voice notes are not enabled. Please send text instead.")
			} else {
				b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't transcribe that voice message.")
			}
			return
		}
		content = strings.TrimSpace(strings.Join([]string{content, transcript}, "\n"))
	}

	if strings.TrimSpace(content) == "" {
		b.sendMessage(message.Chat.ID, "Send me a text or voice message and I'll remember it for you.")
		return
	}

	res, err := b.notes.CreateNote(ctx, ownerID, content, "")
	if err != nil {
		b.logger.Error("Failed to save note",
			zap.Error(err),
			zap.String("owner_id", ownerID),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your note. Please try again.")
		return
	}

	b.sendMarkdown(message.Chat.ID, message.MessageID, formatCreated(res))
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "notes":
		b.handleNotes(ctx, message)
	case "categories":
		b.handleCategories(ctx, message)
	case "assign":
		b.handleAssign(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to iForgot! 🧠
Send me whatever is on your mind, as text or a voice message. I'll save it, pick out themes, mood and tasks, and keep it in the right category.

Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/notes - Show your recent notes
/categories - Show your categories
/assign <note id> <category> - Put a note in a new category

Anything else you send is saved as a note.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleNotes(ctx context.Context, message *tgbotapi.Message) {
	ownerID, err := b.ownerFor(ctx, message.From)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't set up your account. Please try again.")
		return
	}

	list, err := b.notes.ListNotes(ctx, ownerID, storage.NoteFilter{Limit: recentNotes})
	if err != nil {
		b.logger.Error("Failed to list notes",
			zap.Error(err),
			zap.String("owner_id", ownerID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your notes.")
		return
	}

	b.sendMarkdown(message.Chat.ID, 0, formatNotes(list))
}

func (b *Bot) handleCategories(ctx context.Context, message *tgbotapi.Message) {
	ownerID, err := b.ownerFor(ctx, message.From)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't set up your account. Please try again.")
		return
	}

	categories, err := b.notes.ListCategories(ctx, ownerID)
	if err != nil {
		b.logger.Error("Failed to list categories",
			zap.Error(err),
			zap.String("owner_id", ownerID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, failed to retrieve your categories. Please try again later.")
		return
	}

	b.sendMarkdown(message.Chat.ID, 0, formatCategories(categories))
}

func (b *Bot) handleAssign(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 {
		b.sendMessage(message.Chat.ID, "Usage: /assign <note id> <category name>")
		return
	}
	noteID, name := args[0], strings.Join(args[1:], " ")

	ownerID, err := b.ownerFor(ctx, message.From)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't set up your account. Please try again.")
		return
	}

	// The service does not check who owns the note.
	if _, err := b.notes.GetNote(ctx, ownerID, noteID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.sendMessage(message.Chat.ID, "I couldn't find a note with that ID.")
			return
		}
		b.logger.Error("Failed to load note", zap.Error(err), zap.String("note_id", noteID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}

	category, err := b.notes.CreateAndAssign(ctx, ownerID, noteID, name)
	if err != nil {
		b.logger.Error("Failed to assign category",
			zap.Error(err),
			zap.String("note_id", noteID),
			zap.String("name", name))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't assign that category.")
		return
	}

	b.sendMarkdown(message.Chat.ID, message.MessageID,
		fmt.Sprintf("📂 Filed under *%s*", escapeMarkdown(category.Name)))
}

// ownerFor resolves the note owner for a Telegram user.
func (b *Bot) ownerFor(ctx context.Context, user *tgbotapi.User) (string, error) {
	if b.cfg.OwnerID != "" {
		return b.cfg.OwnerID, nil
	}
	if user == nil {
		return "", errors.New("message has no sender")
	}

	ownerID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://t.me/user/"+strconv.FormatInt(user.ID, 10))).String()
	if b.cfg.EnsureOwner == nil {
		return ownerID, nil
	}
	if _, done := b.ensured.Load(ownerID); done {
		return ownerID, nil
	}
	if err := b.cfg.EnsureOwner(ctx, ownerID); err != nil {
		return "", fmt.Errorf("ensure owner: %w", err)
	}
	b.ensured.Store(ownerID, struct{}{})
	return ownerID, nil
}

func audioOf(message *tgbotapi.Message) (fileID, mimeType string, ok bool) {
	switch {
	case message.Voice != nil:
		return message.Voice.FileID, message.Voice.MimeType, true
	case message.Audio != nil:
		return message.Audio.FileID, message.Audio.MimeType, true
	default:
		return "", "", false
	}
}

func (b *Bot) transcribe(ctx context.Context, fileID, mimeType string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download voice file: status %d", resp.StatusCode)
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	return b.transcriber.Transcribe(ctx, resp.Body, mimeType)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
