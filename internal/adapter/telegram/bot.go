package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLength is Telegram's limit for one text message.
const maxMessageLength = 4096

// Bot long-polls Telegram for updates and answers them with a Handler.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	logger  *slog.Logger
}

// NewBot authorizes against the Telegram API.
func NewBot(token string, handler *Handler, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{api: api, handler: handler, logger: logger}, nil
}

// Run handles updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot authorized", "account", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.reply(ctx, update.Message)
		}
	}
}

func (b *Bot) reply(ctx context.Context, message *tgbotapi.Message) {
	text := b.handler.Handle(ctx, message)
	for _, part := range splitMessage(text, maxMessageLength) {
		msg := tgbotapi.NewMessage(message.Chat.ID, part)
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("telegram send failed", "chat_id", message.Chat.ID, "error", err)
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl + 1
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
