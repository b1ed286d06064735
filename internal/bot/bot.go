package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/intake"
	"saave-bot/internal/leads"
	"saave-bot/internal/metrics"
	"saave-bot/internal/storage"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type SessionStore interface {
	GetSession(ctx context.Context, chatID int64) (*intake.Session, error)
	SaveSession(ctx context.Context, chatID int64, session *intake.Session) error
	DropSession(ctx context.Context, chatID int64) error
	AllowQuote(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error)
	ReleaseQuote(ctx context.Context, chatID int64) error
}

type LeadStore interface {
	ListRecentLeads(ctx context.Context, limit int) ([]storage.Lead, error)
	GetLeadStatistics(ctx context.Context) (*storage.LeadStatistics, error)
}

type Options struct {
	AdminChatIDs []int64
	RateLimit    int
	RateWindow   time.Duration
}

type Bot struct {
	api      API
	logger   *zap.Logger
	sessions SessionStore
	store    LeadStore
	leads    *leads.Service
	driver   *intake.Driver
	metrics  *metrics.Metrics
	opts     Options
	commands map[string]func(context.Context, int64, string)
}

func New(
	api API,
	sessions SessionStore,
	store LeadStore,
	svc *leads.Service,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *Bot {
	b := &Bot{
		api:      api,
		logger:   logger,
		sessions: sessions,
		store:    store,
		leads:    svc,
		driver:   intake.NewDriver(svc.Quoter().Catalog()),
		metrics:  m,
		opts:     opts,
	}

	b.registerCommands()
	return b
}

func (b *Bot) registerCommands() {
	b.commands = map[string]func(context.Context, int64, string){
		"start":    b.handleStart,
		"cotizar":  b.handleStart,
		"help":     b.handleHelp,
		"ayuda":    b.handleHelp,
		"cancelar": b.handleCancel,
		"atras":    b.handleBack,
		"stats":    b.adminOnly(b.handleLeadStats),
		"export":   b.adminOnly(b.handleExportLeads),
	}
}

// Start consumes updates until ctx is cancelled. Updates are handled one at
// a time so a chat's answers are applied in order.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.api.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.processMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := msg.Text

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", text))

	if msg.IsCommand() {
		handler, ok := b.commands[msg.Command()]
		if !ok {
			b.sendError(chatID, "Comando desconocido. Use /start para comenzar una cotización.")
			return
		}
		handler(ctx, chatID, msg.CommandArguments())
		return
	}

	if msg.Contact != nil {
		text = msg.Contact.PhoneNumber
	}

	b.handleAnswer(ctx, chatID, text)
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, "❌ "+text))
}

func (b *Bot) isAdmin(chatID int64) bool {
	for _, id := range b.opts.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func (b *Bot) adminOnly(h func(context.Context, int64, string)) func(context.Context, int64, string) {
	return func(ctx context.Context, chatID int64, args string) {
		if !b.isAdmin(chatID) {
			b.sendError(chatID, "Comando desconocido. Use /start para comenzar una cotización.")
			return
		}
		h(ctx, chatID, args)
	}
}
