package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/contract-bot/internal/conversation"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
)

const helpText = `📚 <b>Contract Bot</b>

• /start - open the main menu
• /cancel - abandon the current dialogue
• /help - show this message

From the main menu you can record a new contract, look up stored contracts
and switch the daily deadline reminder on or off. Answer with the buttons,
or type when asked for an amount, a number of months or a date
(<code>2024-12-31</code> or <code>31.12.2024</code>).`

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      helpText,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send help")
	}
}

// handleMessageCore turns a text message or command into a dialogue event.
func (b *Bot) handleMessageCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	ev := conversation.Event{
		Kind:    conversation.EventText,
		ChatID:  msg.Chat.ID,
		UserID:  msg.From.ID,
		Payload: msg.Text,
	}
	if isCommand(msg.Text) {
		ev.Kind = conversation.EventCommand
	}

	b.sendReply(ctx, tg, msg.Chat.ID, b.converse(ctx, ev))
}

// handleCallback handles inline keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCallbackCore(ctx, tgBot, update)
}

// handleCallbackCore is the testable implementation of handleCallback. The
// reply replaces the pressed message when possible and is sent as a new
// message otherwise.
func (b *Bot) handleCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	if _, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	}); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to answer callback query")
	}

	chatID, messageID := callbackTarget(cq)
	reply := b.converse(ctx, conversation.Event{
		Kind:    conversation.EventCallback,
		ChatID:  chatID,
		UserID:  cq.From.ID,
		Payload: cq.Data,
	})

	if messageID != 0 {
		err := b.editReply(ctx, tg, chatID, messageID, reply)
		if err == nil {
			return
		}
		logger.Log.Debug().
			Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Edit failed, sending new message")
	}

	b.sendReply(ctx, tg, chatID, reply)
}

// converse runs ev through the chat's session.
func (b *Bot) converse(ctx context.Context, ev conversation.Event) conversation.Reply {
	cs := b.sessions.acquire(ev.ChatID)
	defer b.sessions.release(ev.ChatID, cs)
	return b.engine.Handle(ctx, cs.session, ev)
}

func (b *Bot) sendReply(ctx context.Context, tg TelegramAPI, chatID int64, reply conversation.Reply) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      reply.Text,
		ParseMode: models.ParseModeHTML,
	}
	if kb := keyboard(reply); kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().
			Err(err).
			Str("chat_hash", logger.HashChatID(chatID)).
			Msg("Failed to send reply")
	}
}

func (b *Bot) editReply(
	ctx context.Context,
	tg TelegramAPI,
	chatID int64,
	messageID int,
	reply conversation.Reply,
) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      reply.Text,
		ParseMode: models.ParseModeHTML,
	}
	if kb := keyboard(reply); kb != nil {
		params.ReplyMarkup = kb
	}

	_, err := tg.EditMessageText(ctx, params)
	return err
}

// callbackTarget returns the chat and message a callback came from. An
// inaccessible message yields messageID 0; without any message the chat is
// the user's private chat.
func callbackTarget(cq *models.CallbackQuery) (chatID int64, messageID int) {
	switch {
	case cq.Message.Message != nil:
		return cq.Message.Message.Chat.ID, cq.Message.Message.ID
	case cq.Message.InaccessibleMessage != nil:
		return cq.Message.InaccessibleMessage.Chat.ID, 0
	default:
		return cq.From.ID, 0
	}
}

func isCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// isHelpCommand matches "/help" and "/help@SomeBot" with optional arguments.
func isHelpCommand(update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	name, _, _ := strings.Cut(strings.TrimSpace(update.Message.Text), " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.EqualFold(name, "/help")
}
