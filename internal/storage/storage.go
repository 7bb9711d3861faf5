// Package storage defines the local persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"readlater/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Metadata keys.
const (
	KeyLastSync = "lastSyncTimestamp"
)

// Epoch is the cursor value used before the first successful sync.
var Epoch = time.Unix(0, 0).UTC()

// Storage is the interface for all local persistence operations.
type Storage interface {
	GetArticle(ctx context.Context, url string) (*model.Article, error)
	PutArticle(ctx context.Context, a *model.Article) error
	SetUnread(ctx context.Context, url string, unread bool) error
	SetArchived(ctx context.Context, url string, archived bool) error
	ClearContents(ctx context.Context, url string) error
	ListRecent(ctx context.Context, count int) ([]model.Article, error)
	ListArchived(ctx context.Context, count int) ([]model.Article, error)
	SearchTitles(ctx context.Context, prefix string) ([]model.Article, error)
	CountArticles(ctx context.Context) (int, error)

	Enqueue(ctx context.Context, m *model.Mutation) error
	ListPending(ctx context.Context) ([]model.Mutation, error)
	RemoveMutation(ctx context.Context, id int64) error
	IncrementRetry(ctx context.Context, id int64) (int, error)
	PendingCount(ctx context.Context) (int, error)

	GetMeta(ctx context.Context, key, def string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, t time.Time) error

	Clear(ctx context.Context) error
	Close() error
}
