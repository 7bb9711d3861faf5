// Package bot exposes the local reading list over a Telegram chat.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"readlater/internal/model"
	"readlater/internal/status"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Library is the part of the sync engine the bot drives.
type Library interface {
	Recent(ctx context.Context, count int) ([]model.Article, error)
	Archived(ctx context.Context, count int) ([]model.Article, error)
	Search(ctx context.Context, prefix string) ([]model.Article, error)
	Article(ctx context.Context, url string) (*model.Article, error)
	MarkRead(ctx context.Context, url string) error
	SetArchive(ctx context.Context, url string, archived bool) error
	DownloadArticle(ctx context.Context, url, titleHint string) (*model.FullArticle, error)
	RemoveOffline(ctx context.Context, url string) error
	PerformFullSync(ctx context.Context) error
	Status(ctx context.Context) status.Status
}

// Bot answers commands from a single Telegram chat.
type Bot struct {
	api    telegramAPI
	lib    Library
	chatID int64
	log    *slog.Logger

	mu   sync.Mutex
	keys map[string]string
}

// New creates a Bot that only accepts commands from chatID.
func New(token string, lib Library, chatID int64, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, lib, chatID, log), nil
}

func newBot(api telegramAPI, lib Library, chatID int64, log *slog.Logger) *Bot {
	return &Bot{
		api:    api,
		lib:    lib,
		chatID: chatID,
		log:    log,
		keys:   make(map[string]string),
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if b.allowed(update.CallbackQuery.Message) {
					b.handleCallback(ctx, update.CallbackQuery)
				}
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.allowed(update.Message) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) allowed(msg *tgbotapi.Message) bool {
	return msg != nil && msg.Chat != nil && msg.Chat.ID == b.chatID
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "list":
		b.handleList(ctx, chatID, args, false)
	case "archived":
		b.handleList(ctx, chatID, args, true)
	case "search":
		b.handleSearch(ctx, chatID, args)
	case cmdRead:
		b.handleRead(ctx, chatID, args)
	case "save":
		b.handleSave(ctx, chatID, args)
	case cmdArchive:
		b.handleArchive(ctx, chatID, args, true)
	case cmdUnarchive:
		b.handleArchive(ctx, chatID, args, false)
	case cmdForget:
		b.handleForget(ctx, chatID, args)
	case "sync":
		b.handleSync(ctx, chatID)
	case "status":
		b.handleStatus(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// remember records the short key of every listed article so later commands
// and buttons can refer to it.
func (b *Bot) remember(articles ...model.Article) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range articles {
		b.keys[ArticleKey(a.URL)] = a.URL
	}
}

func (b *Bot) lookup(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	url, ok := b.keys[key]
	return url, ok
}

// resolve turns a command argument into an article URL.
func (b *Bot) resolve(args string) (string, error) {
	ref, err := ParseArticleArg(args)
	if err != nil {
		return "", err
	}
	if ref.URL != "" {
		return ref.URL, nil
	}
	url, ok := b.lookup(ref.Key)
	if !ok {
		return "", fmt.Errorf("unknown article %q, use /list first", ref.Key)
	}
	return url, nil
}
