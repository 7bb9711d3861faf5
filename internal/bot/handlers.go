package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"readlater/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to readlater!

Your reading list is kept on this machine and synced with the server.

Quick start:
1. /list — show unread and recent articles
2. /read <key> — read an article
3. /save <url> — keep a new article for offline reading

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Reading list:
/list [n] — recent articles
/archived [n] — archived articles
/search <prefix> — find articles by title
/read <key|url> — show an article and mark it read
/save <url> — download an article for offline reading

Changes:
/archive <key|url> — archive an article
/unarchive <key|url> — move it back to the list
/forget <key|url> — drop the offline copy

Sync:
/sync — push queued changes and pull server changes
/status — show sync status

Keys are the 8-character codes shown by /list.`)
}

func (b *Bot) handleList(ctx context.Context, chatID int64, args string, archived bool) {
	n, err := ParseCountArg(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	var (
		articles []model.Article
		heading  string
	)
	if archived {
		articles, err = b.lib.Archived(ctx, n)
		heading = "Archived:"
	} else {
		articles, err = b.lib.Recent(ctx, n)
		heading = "Reading list:"
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	b.remember(articles...)
	b.reply(chatID, FormatArticleList(heading, articles))
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /search <prefix>")
		return
	}
	articles, err := b.lib.Search(ctx, args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.remember(articles...)
	b.reply(chatID, FormatArticleList(fmt.Sprintf("Titles starting with %q:", args), articles))
}

func (b *Bot) handleRead(ctx context.Context, chatID int64, args string) {
	url, err := b.resolve(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /read <key|url>\n%v", err))
		return
	}

	full, err := b.lib.DownloadArticle(ctx, url, "")
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load article: %v", err))
		return
	}
	b.remember(model.Article{URL: url})

	key := ArticleKey(url)
	msg := tgbotapi.NewMessage(chatID, FormatArticle(full))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Archive", cmdArchive+":"+key),
			tgbotapi.NewInlineKeyboardButtonData("Forget offline copy", cmdForget+":"+key),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send article", "url", url, "error", err)
		return
	}

	if err := b.lib.MarkRead(ctx, url); err != nil {
		b.log.Error("mark read", "url", url, "error", err)
	}
}

func (b *Bot) handleSave(ctx context.Context, chatID int64, args string) {
	ref, err := ParseArticleArg(args)
	if err != nil || ref.URL == "" {
		b.reply(chatID, "Usage: /save <url>")
		return
	}

	full, err := b.lib.DownloadArticle(ctx, ref.URL, "")
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save article: %v", err))
		return
	}
	b.remember(model.Article{URL: ref.URL})
	b.reply(chatID, fmt.Sprintf("Saved %s\nKey: %s", titleOf(full.Title), ArticleKey(ref.URL)))
}

func (b *Bot) handleArchive(ctx context.Context, chatID int64, args string, archived bool) {
	url, err := b.resolve(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.lib.SetArchive(ctx, url, archived); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if archived {
		b.reply(chatID, "Archived "+url)
	} else {
		b.reply(chatID, "Moved back to the list: "+url)
	}
}

func (b *Bot) handleForget(ctx context.Context, chatID int64, args string) {
	url, err := b.resolve(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.lib.RemoveOffline(ctx, url); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, "Offline copy removed: "+url)
}

func (b *Bot) handleSync(ctx context.Context, chatID int64) {
	if err := b.lib.PerformFullSync(ctx); err != nil {
		b.reply(chatID, fmt.Sprintf("Sync failed: %v", err))
		return
	}
	b.reply(chatID, FormatStatus(b.lib.Status(ctx)))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	b.reply(chatID, FormatStatus(b.lib.Status(ctx)))
}
