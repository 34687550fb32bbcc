// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/contract-bot/internal/config"
	"gitlab.com/yelinaung/contract-bot/internal/conversation"
	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/reminder"
	"gitlab.com/yelinaung/contract-bot/internal/renewal"
	"gitlab.com/yelinaung/contract-bot/internal/repository"
	"gitlab.com/yelinaung/contract-bot/internal/telemetry"
)

const (
	// pollTimeout is the long-polling timeout for getUpdates.
	pollTimeout = time.Minute
	// httpTimeout bounds a single Bot API request and must exceed pollTimeout.
	httpTimeout = pollTimeout + 30*time.Second
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot           *bot.Bot
	cfg           *config.Config
	engine        *conversation.Engine
	sessions      *sessionStore
	scheduler     *reminder.Scheduler
	renewal       *renewal.Job
	messageSender TelegramAPI
}

// New creates a new Bot instance.
func New(cfg *config.Config, db database.PGXDB) (*Bot, error) {
	b := newBot(cfg, db)

	opts := []bot.Option{
		bot.WithMiddlewares(b.loggingMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithHTTPClient(pollTimeout, telemetry.HTTPClient(httpTimeout)),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

// newBot wires everything except the Telegram client.
func newBot(cfg *config.Config, db database.PGXDB) *Bot {
	loc := cfg.Location()
	contracts := repository.NewContractRepository(db)

	b := &Bot{
		cfg:      cfg,
		sessions: newSessionStore(),
	}

	dispatcher := reminder.NewDispatcher(contracts, b, reminder.DispatcherOptions{
		WindowDays: cfg.ReminderWindowDays,
		OwnerOnly:  cfg.ReminderOwnerOnly,
	})
	b.scheduler = reminder.NewScheduler(
		repository.NewReminderSubscriptionRepository(db),
		dispatcher,
		cfg.ReminderHour,
		cfg.ReminderMinute,
		loc,
	)
	b.engine = conversation.NewEngine(newContractStore(db), b.scheduler, conversation.Options{
		StorageTimeout: cfg.StorageTimeout,
		Location:       loc,
		ReminderHour:   cfg.ReminderHour,
		ReminderMinute: cfg.ReminderMinute,
	})

	if cfg.RenewalLoopEnabled {
		b.renewal = renewal.NewJob(contracts, renewal.Options{CatchUp: cfg.RenewalCatchUp})
	}

	return b
}

// Start restores reminder subscriptions, starts the optional renewal loop and
// polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	defer b.scheduler.Close()

	restoreCtx, cancel := context.WithTimeout(ctx, b.cfg.StorageTimeout)
	restored, err := b.scheduler.Restore(restoreCtx)
	cancel()
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to restore reminder subscriptions")
	} else {
		logger.Log.Info().Int("count", restored).Msg("Restored reminder subscriptions")
	}

	if b.renewal != nil {
		go b.renewal.Loop(ctx, b.cfg.RenewalCheckInterval, b.cfg.Location())
	}

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers. Everything else
// reaches the dialogue through defaultHandler.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandlerMatchFunc(isHelpCommand, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, b.handleCallback)
}

// loggingMiddleware records who did what without logging raw identifiers.
func (b *Bot) loggingMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if extractUserID(update) == 0 {
			return
		}
		logUserAction(update)
		next(ctx, tgBot, update)
	}
}

// logUserAction logs the user's input/action.
func logUserAction(update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(extractUserID(update))).
			Str("chat_hash", logger.HashChatID(msg.Chat.ID))

		if isCommand(msg.Text) {
			event = event.Str("command", msg.Text)
		} else {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(update.CallbackQuery.From.ID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

// defaultHandler feeds text messages and commands into the dialogue.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleMessageCore(ctx, tgBot, update)
}

// Send delivers a reminder. It implements reminder.Sender.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	_, err := b.messageSender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}
