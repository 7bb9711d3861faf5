package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdRead      = "read"
	cmdArchive   = "archive"
	cmdUnarchive = "unarchive"
	cmdForget    = "forget"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, key, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}
	if _, known := b.lookup(key); !known {
		return
	}

	b.log.Info("callback", "action", action, "key", key, "chat_id", chatID)

	switch action {
	case cmdRead:
		b.handleRead(ctx, chatID, key)
	case cmdArchive:
		b.handleArchive(ctx, chatID, key, true)
	case cmdUnarchive:
		b.handleArchive(ctx, chatID, key, false)
	case cmdForget:
		b.handleForget(ctx, chatID, key)
	}
}
