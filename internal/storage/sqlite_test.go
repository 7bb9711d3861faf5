package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"readlater/internal/model"
)

var ignoreMutationTS = cmpopts.IgnoreFields(model.Mutation{}, "EnqueuedAt", "Payload")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func unix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func timePtr(t time.Time) *time.Time { return &t }

func urls(articles []model.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.URL)
	}
	return out
}

func TestArticleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	tests := []struct {
		name    string
		article model.Article
	}{
		{
			name: "metadata only",
			article: model.Article{
				URL:          "https://example.com/a",
				Title:        "Metadata only",
				Unread:       true,
				DownloadedAt: unix(1000),
			},
		},
		{
			name: "full article with server state",
			article: model.Article{
				URL:          "https://example.com/b",
				Title:        "Full",
				Contents:     strPtr("# Body"),
				HasBody:      true,
				Archived:     true,
				DownloadedAt: unix(2000),
				LastAccess:   timePtr(unix(3000)),
				LastKnownServerState: &model.ServerArticle{
					URL: "https://example.com/b", Title: "Full", HasBody: true, Archived: true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.article
			if err := s.PutArticle(ctx, &a); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := s.GetArticle(ctx, a.URL)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(tt.article, *got); diff != "" {
				t.Errorf("GetArticle mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetArticleNotFound(t *testing.T) {
	s := newTestDB(t)
	_, err := s.GetArticle(context.Background(), "https://missing.example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutArticleReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	a := model.Article{URL: "https://example.com/a", Title: "Old", Unread: true, DownloadedAt: unix(10)}
	if err := s.PutArticle(ctx, &a); err != nil {
		t.Fatalf("put: %v", err)
	}
	a.Title = "New"
	a.Unread = false
	if err := s.PutArticle(ctx, &a); err != nil {
		t.Fatalf("put again: %v", err)
	}

	n, err := s.CountArticles(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 article, got %d", n)
	}
	got, err := s.GetArticle(ctx, a.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(a, *got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	a := model.Article{
		URL: "https://example.com/a", Title: "A", Contents: strPtr("body"), HasBody: true,
		Unread: true, DownloadedAt: unix(10),
	}
	if err := s.PutArticle(ctx, &a); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.SetUnread(ctx, a.URL, false); err != nil {
		t.Fatalf("set unread: %v", err)
	}
	if err := s.SetArchived(ctx, a.URL, true); err != nil {
		t.Fatalf("set archived: %v", err)
	}
	if err := s.ClearContents(ctx, a.URL); err != nil {
		t.Fatalf("clear contents: %v", err)
	}
	// Missing rows are not an error.
	if err := s.SetUnread(ctx, "https://missing.example.com", false); err != nil {
		t.Fatalf("set unread on missing: %v", err)
	}

	got, err := s.GetArticle(ctx, a.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := model.Article{URL: a.URL, Title: "A", Archived: true, DownloadedAt: unix(10)}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestListRecentSortOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	articles := []model.Article{
		{URL: "https://example.com/fallback", Title: "Fallback", DownloadedAt: unix(10)},
		{URL: "https://example.com/hundred", Title: "Hundred", DownloadedAt: unix(20), LastAccess: timePtr(unix(100))},
		{URL: "https://example.com/fifty", Title: "Fifty", DownloadedAt: unix(30), LastAccess: timePtr(unix(50))},
		{URL: "https://example.com/archived", Title: "Archived", Archived: true, DownloadedAt: unix(999)},
	}
	for i := range articles {
		if err := s.PutArticle(ctx, &articles[i]); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	got, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	want := []string{"https://example.com/hundred", "https://example.com/fifty", "https://example.com/fallback"}
	if diff := cmp.Diff(want, urls(got)); diff != "" {
		t.Errorf("ListRecent order mismatch (-want +got):\n%s", diff)
	}

	got, err = s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list recent truncated: %v", err)
	}
	if diff := cmp.Diff(want[:2], urls(got)); diff != "" {
		t.Errorf("ListRecent truncation mismatch (-want +got):\n%s", diff)
	}

	archived, err := s.ListArchived(ctx, 10)
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if diff := cmp.Diff([]string{"https://example.com/archived"}, urls(archived)); diff != "" {
		t.Errorf("ListArchived mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchTitles(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, a := range []model.Article{
		{URL: "https://example.com/1", Title: "Go Concurrency Patterns", DownloadedAt: unix(1)},
		{URL: "https://example.com/2", Title: "go modules explained", DownloadedAt: unix(2)},
		{URL: "https://example.com/3", Title: "Rust for Gophers", DownloadedAt: unix(3)},
		{URL: "https://example.com/4", Title: "100% Go_lang", DownloadedAt: unix(4)},
		{URL: "https://example.com/5", Title: "Über alles", DownloadedAt: unix(5)},
		{URL: "https://example.com/6", Title: "Élan vital", DownloadedAt: unix(6)},
		{URL: "https://example.com/7", Title: "Apple", DownloadedAt: unix(7)},
	} {
		if err := s.PutArticle(ctx, &a); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "GO", want: []string{"https://example.com/1", "https://example.com/2"}},
		{prefix: "rust", want: []string{"https://example.com/3"}},
		{prefix: "gophers", want: []string{}},
		{prefix: "100%", want: []string{"https://example.com/4"}},
		{prefix: "1_", want: []string{}},
		{prefix: "über", want: []string{"https://example.com/5"}},
		{prefix: "ÜBER", want: []string{"https://example.com/5"}},
		{prefix: "élan", want: []string{"https://example.com/6"}},
		{prefix: "ÉLAN V", want: []string{"https://example.com/6"}},
		{prefix: "apple", want: []string{"https://example.com/7"}},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := s.SearchTitles(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if diff := cmp.Diff(tt.want, urls(got)); diff != "" {
				t.Errorf("SearchTitles(%q) mismatch (-want +got):\n%s", tt.prefix, diff)
			}
		})
	}
}

func TestFoldTitlesBackfillsOldRows(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.PutArticle(ctx, &model.Article{URL: "https://example.com/u", Title: "Über alles", DownloadedAt: unix(1)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Simulate a row written before title_lower existed.
	if _, err := s.db.ExecContext(ctx, `UPDATE articles SET title_lower = ''`); err != nil {
		t.Fatalf("reset title_lower: %v", err)
	}
	got, err := s.SearchTitles(ctx, "über")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no match before backfill, got %v", urls(got))
	}

	if err := s.foldTitles(ctx); err != nil {
		t.Fatalf("fold titles: %v", err)
	}
	got, err = s.SearchTitles(ctx, "ÜBER")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]string{"https://example.com/u"}, urls(got)); diff != "" {
		t.Errorf("SearchTitles after backfill mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncQueue(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	items := []model.Mutation{
		{URL: "https://example.com/a", Operation: model.OpMarkRead},
		{URL: "https://example.com/a", Operation: model.OpMarkRead},
		{URL: "https://example.com/b", Operation: model.OpSetArchive},
	}
	for i := range items {
		if err := s.Enqueue(ctx, &items[i]); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	pending, err := s.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if diff := cmp.Diff(items, pending, ignoreMutationTS); diff != "" {
		t.Errorf("ListPending mismatch (-want +got):\n%s", diff)
	}

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementRetry(ctx, items[0].ID)
		if err != nil {
			t.Fatalf("increment retry: %v", err)
		}
		if got != want {
			t.Errorf("retry count = %d, want %d", got, want)
		}
	}

	if err := s.RemoveMutation(ctx, items[1].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	n, err := s.PendingCount(ctx)
	if err != nil {
		t.Fatalf("pending count: %v", err)
	}
	if n != 2 {
		t.Errorf("pending count = %d, want 2", n)
	}

	if _, err := s.IncrementRetry(ctx, items[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for removed item, got %v", err)
	}
}

func TestLastSync(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	got, err := s.LastSync(ctx)
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !got.Equal(Epoch) {
		t.Errorf("default cursor = %v, want %v", got, Epoch)
	}

	now := time.Date(2025, 3, 4, 5, 6, 7, 890, time.UTC)
	if err := s.SetLastSync(ctx, now); err != nil {
		t.Fatalf("set last sync: %v", err)
	}
	got, err = s.LastSync(ctx)
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("cursor = %v, want %v", got, now)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.PutArticle(ctx, &model.Article{URL: "https://example.com/a", DownloadedAt: unix(1)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Enqueue(ctx, &model.Mutation{URL: "https://example.com/a", Operation: model.OpMarkRead}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := s.SetLastSync(ctx, time.Now()); err != nil {
		t.Fatalf("set last sync: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	articles, _ := s.CountArticles(ctx)
	pending, _ := s.PendingCount(ctx)
	cursor, _ := s.LastSync(ctx)
	if articles != 0 || pending != 0 || !cursor.Equal(Epoch) {
		t.Errorf("after clear: articles=%d pending=%d cursor=%v", articles, pending, cursor)
	}
}
