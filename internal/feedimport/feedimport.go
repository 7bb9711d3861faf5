// Package feedimport saves the entries of an RSS or Atom feed for offline reading.
package feedimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"readlater/internal/model"
	"readlater/internal/storage"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader fetches and stores article contents.
type Downloader interface {
	Article(ctx context.Context, url string) (*model.Article, error)
	DownloadArticle(ctx context.Context, url, titleHint string) (*model.FullArticle, error)
}

// Result summarises an import.
type Result struct {
	Feed     string
	Matched  int
	Imported int
	Skipped  int
	Failed   int
}

// Importer downloads the entries of a feed through a Downloader.
type Importer struct {
	client  HTTPClient
	dl      Downloader
	log     *slog.Logger
	timeout time.Duration
}

// New creates an Importer.
func New(client HTTPClient, dl Downloader, log *slog.Logger) *Importer {
	return &Importer{
		client:  client,
		dl:      dl,
		log:     log,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed.
func (i *Importer) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "readlater/1.0")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Select returns the feed items that have a link and pass rules.
func Select(items []*gofeed.Item, rules []Rule) []Item {
	var out []Item
	for _, it := range items {
		if it == nil || it.Link == "" {
			continue
		}
		item := Item{Title: it.Title, Description: it.Description, Link: it.Link}
		if Match(item, rules) {
			out = append(out, item)
		}
	}
	return out
}

// Import fetches feedURL and downloads every selected entry that is not
// already stored with contents. Per-entry failures are logged and counted.
func (i *Importer) Import(ctx context.Context, feedURL string, rules []Rule) (Result, error) {
	feed, err := i.Fetch(ctx, feedURL)
	if err != nil {
		return Result{}, err
	}

	items := Select(feed.Items, rules)
	res := Result{Feed: feed.Title, Matched: len(items)}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		existing, err := i.dl.Article(ctx, item.Link)
		switch {
		case err == nil && existing.HasContents():
			res.Skipped++
			continue
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return res, fmt.Errorf("look up %s: %w", item.Link, err)
		}

		if _, err := i.dl.DownloadArticle(ctx, item.Link, item.Title); err != nil {
			i.log.Warn("import entry", "url", item.Link, "error", err)
			res.Failed++
			continue
		}
		res.Imported++
	}

	i.log.Info("feed imported", "feed", feed.Title, "matched", res.Matched,
		"imported", res.Imported, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
