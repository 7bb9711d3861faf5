// Package notify reports mutations the sync queue gave up on and sync
// failures that happen in the background.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"readlater/internal/model"
	"readlater/internal/queue"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications to a single chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// MutationDropped implements queue.DropSink.
func (t *Telegram) MutationDropped(_ context.Context, m model.Mutation, err error) {
	t.send(FormatDrop(m, err))
}

// SyncFailed reports a failed background sync.
func (t *Telegram) SyncFailed(err error) {
	t.send("Sync failed:\n\n" + err.Error())
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("send message", "chat_id", t.chatID, "error", err)
	}
}

// FormatDrop formats a dropped mutation as a notification message.
func FormatDrop(m model.Mutation, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gave up on %s after %d attempts.\n\n", describe(m), m.RetryCount)
	b.WriteString(m.URL)
	if err != nil {
		b.WriteString("\n\nLast error: ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func describe(m model.Mutation) string {
	switch m.Operation {
	case model.OpMarkRead:
		return "marking as read"
	case model.OpSetArchive:
		var p model.ArchivePayload
		if err := json.Unmarshal(m.Payload, &p); err == nil && !p.Archived {
			return "unarchiving"
		}
		return "archiving"
	default:
		return string(m.Operation)
	}
}

// Log writes dropped mutations to a logger.
type Log struct {
	log *slog.Logger
}

// NewLog creates a Log sink.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// MutationDropped implements queue.DropSink.
func (l *Log) MutationDropped(_ context.Context, m model.Mutation, err error) {
	l.log.Warn("mutation dropped",
		"id", m.ID, "op", m.Operation, "url", m.URL,
		"retries", m.RetryCount, "enqueued_at", m.EnqueuedAt, "error", err)
}

// Multi fans a drop out to several sinks in order.
type Multi []queue.DropSink

// MutationDropped implements queue.DropSink.
func (ms Multi) MutationDropped(ctx context.Context, m model.Mutation, err error) {
	for _, s := range ms {
		if s != nil {
			s.MutationDropped(ctx, m, err)
		}
	}
}
