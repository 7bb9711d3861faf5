package engine

import (
	"context"
	"errors"
	"fmt"

	"readlater/internal/model"
	"readlater/internal/storage"
)

// MarkRead marks an article read locally, queues the change and kicks off a
// background sync when online. A nil error means applied and queued, not
// confirmed by the server.
func (e *Engine) MarkRead(ctx context.Context, url string) error {
	if err := e.store.SetUnread(ctx, url, false); err != nil {
		return err
	}
	if _, err := e.queue.Enqueue(ctx, model.OpMarkRead, url, model.ReadPayload{Unread: false}); err != nil {
		return err
	}
	e.status.Publish(ctx)
	e.triggerSync(ctx, "mark read")
	return nil
}

// SetArchive sets the archive flag locally, queues the change and kicks off a
// background sync when online.
func (e *Engine) SetArchive(ctx context.Context, url string, archived bool) error {
	if err := e.store.SetArchived(ctx, url, archived); err != nil {
		return err
	}
	if _, err := e.queue.Enqueue(ctx, model.OpSetArchive, url, model.ArchivePayload{Archived: archived}); err != nil {
		return err
	}
	e.status.Publish(ctx)
	e.triggerSync(ctx, "set archive")
	return nil
}

// DownloadArticle returns the stored article when its contents are cached and
// otherwise fetches it from the server and stores it. Downloads are never queued.
func (e *Engine) DownloadArticle(ctx context.Context, url, titleHint string) (*model.FullArticle, error) {
	local, err := e.store.GetArticle(ctx, url)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if local != nil && local.HasContents() {
		return &model.FullArticle{Title: local.Title, URL: local.URL, Contents: *local.Contents}, nil
	}

	full, err := e.remote.Summarize(ctx, url, titleHint)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	if err := e.storeContents(ctx, local, url, full); err != nil {
		return nil, err
	}
	e.log.Info("article downloaded", "url", url)
	return full, nil
}

// storeContents writes fetched contents, keeping the flags of an existing article.
// The article is stored under the requested url.
func (e *Engine) storeContents(ctx context.Context, local *model.Article, url string, full *model.FullArticle) error {
	a := model.Article{URL: url, Unread: true}
	if local != nil {
		a = *local
	}
	if full.Title != "" {
		a.Title = full.Title
	}
	contents := full.Contents
	if e.norm != nil {
		contents = e.norm(contents)
		full.Contents = contents
	}
	a.Contents = &contents
	a.HasBody = true
	a.DownloadedAt = e.now()

	if err := e.store.PutArticle(ctx, &a); err != nil {
		return fmt.Errorf("store article: %w", err)
	}
	return nil
}

// RemoveOffline drops the stored contents of an article but keeps its
// metadata and any queued mutations.
func (e *Engine) RemoveOffline(ctx context.Context, url string) error {
	return e.store.ClearContents(ctx, url)
}

// LoadInitialData warms the local store from the server's recent list.
//
// Missing articles are inserted and articles the server holds a body for are
// downloaded. A failed download is logged and skipped. The sync cursor is
// advanced at the end regardless of skipped downloads.
func (e *Engine) LoadInitialData(ctx context.Context) error {
	if !e.net.Online() {
		e.log.Info("offline, skipping initial load")
		return nil
	}

	recents, err := e.remote.Recents(ctx, e.recent)
	if err != nil {
		return fmt.Errorf("fetch recents: %w", err)
	}
	e.log.Info("loading initial data", "count", len(recents))

	inserted, filled := 0, 0
	for _, item := range recents {
		local, err := e.store.GetArticle(ctx, item.URL)
		if errors.Is(err, storage.ErrNotFound) {
			a := fromServer(item)
			a.DownloadedAt = e.now()
			if err := e.store.PutArticle(ctx, &a); err != nil {
				e.log.Error("store article", "url", item.URL, "error", err)
				continue
			}
			local, inserted = &a, inserted+1
		} else if err != nil {
			e.log.Error("read article", "url", item.URL, "error", err)
			continue
		}

		if !item.HasBody || local.HasContents() {
			continue
		}
		full, err := e.remote.Summarize(ctx, item.URL, item.Title)
		if err != nil {
			e.log.Warn("fetch article contents", "url", item.URL, "error", err)
			continue
		}
		if err := e.storeContents(ctx, local, item.URL, full); err != nil {
			e.log.Error("store article contents", "url", item.URL, "error", err)
			continue
		}
		filled++
	}

	if err := e.store.SetLastSync(ctx, e.now()); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	e.log.Info("initial data loaded", "inserted", inserted, "downloaded", filled)
	e.status.Publish(ctx)
	return nil
}

// Article returns a locally stored article.
func (e *Engine) Article(ctx context.Context, url string) (*model.Article, error) {
	return e.store.GetArticle(ctx, url)
}

// Recent returns up to count unarchived articles from the local store.
func (e *Engine) Recent(ctx context.Context, count int) ([]model.Article, error) {
	return e.store.ListRecent(ctx, count)
}

// Archived returns up to count archived articles from the local store.
func (e *Engine) Archived(ctx context.Context, count int) ([]model.Article, error) {
	return e.store.ListArchived(ctx, count)
}

// Search returns local articles whose title starts with prefix.
func (e *Engine) Search(ctx context.Context, prefix string) ([]model.Article, error) {
	return e.store.SearchTitles(ctx, prefix)
}

// Reset clears all local state.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return err
	}
	e.setLastError(nil)
	e.status.Publish(ctx)
	return nil
}
