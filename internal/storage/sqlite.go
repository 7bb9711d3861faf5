package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"readlater/internal/model"
	"readlater/migrations"
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const articleColumns = `url, title, contents, has_body, unread, archived, downloaded_at, last_access, last_known_server_state`

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.foldTitles(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// foldTitles fills title_lower for rows written before the column existed.
func (s *SQLite) foldTitles(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title FROM articles WHERE title_lower = '' AND title != ''`,
	)
	if err != nil {
		return fmt.Errorf("select unfolded titles: %w", err)
	}
	folded := make(map[string]string)
	for rows.Next() {
		var url, title string
		if err := rows.Scan(&url, &title); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan unfolded title: %w", err)
		}
		folded[url] = foldTitle(title)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close unfolded titles: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate unfolded titles: %w", err)
	}

	for url, lower := range folded {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE articles SET title_lower = ? WHERE url = ?`, lower, url,
		); err != nil {
			return fmt.Errorf("fold title: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetArticle returns the article stored under url, or ErrNotFound.
func (s *SQLite) GetArticle(ctx context.Context, url string) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE url = ?`, url,
	)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// PutArticle inserts or fully replaces an article in a single statement.
func (s *SQLite) PutArticle(ctx context.Context, a *model.Article) error {
	var lastKnown *string
	if a.LastKnownServerState != nil {
		data, err := json.Marshal(a.LastKnownServerState)
		if err != nil {
			return fmt.Errorf("marshal server state: %w", err)
		}
		v := string(data)
		lastKnown = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`, title_lower)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
		   title = excluded.title,
		   title_lower = excluded.title_lower,
		   contents = excluded.contents,
		   has_body = excluded.has_body,
		   unread = excluded.unread,
		   archived = excluded.archived,
		   downloaded_at = excluded.downloaded_at,
		   last_access = excluded.last_access,
		   last_known_server_state = excluded.last_known_server_state`,
		a.URL, a.Title, a.Contents, boolToInt(a.HasBody), boolToInt(a.Unread), boolToInt(a.Archived),
		formatTime(a.DownloadedAt), formatTimePtr(a.LastAccess), lastKnown, foldTitle(a.Title),
	)
	if err != nil {
		return fmt.Errorf("put article: %w", err)
	}
	return nil
}

// SetUnread updates the unread flag of an existing article. Missing articles are ignored.
func (s *SQLite) SetUnread(ctx context.Context, url string, unread bool) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE articles SET unread = ? WHERE url = ?`, boolToInt(unread), url,
	); err != nil {
		return fmt.Errorf("set unread: %w", err)
	}
	return nil
}

// SetArchived updates the archived flag of an existing article. Missing articles are ignored.
func (s *SQLite) SetArchived(ctx context.Context, url string, archived bool) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE articles SET archived = ? WHERE url = ?`, boolToInt(archived), url,
	); err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return nil
}

// ClearContents drops the stored body of an article while keeping its metadata.
func (s *SQLite) ClearContents(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE articles SET contents = NULL, has_body = 0 WHERE url = ?`, url,
	); err != nil {
		return fmt.Errorf("clear contents: %w", err)
	}
	return nil
}

// ListRecent returns unarchived articles, most recently accessed first.
// Articles without a last access time are ordered by their download time.
func (s *SQLite) ListRecent(ctx context.Context, count int) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE archived = 0
		 ORDER BY COALESCE(last_access, downloaded_at) DESC, url
		 LIMIT ?`, count,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanArticles(rows)
}

// ListArchived returns archived articles, most recently downloaded first.
func (s *SQLite) ListArchived(ctx context.Context, count int) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE archived = 1
		 ORDER BY downloaded_at DESC, url
		 LIMIT ?`, count,
	)
	if err != nil {
		return nil, fmt.Errorf("query archived: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanArticles(rows)
}

// SearchTitles returns articles whose title starts with prefix, ignoring case.
func (s *SQLite) SearchTitles(ctx context.Context, prefix string) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE title_lower LIKE ? ESCAPE '\'
		 ORDER BY title_lower, url`, escapeLike(foldTitle(prefix))+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanArticles(rows)
}

// CountArticles returns the number of stored articles.
func (s *SQLite) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Enqueue appends a mutation to the sync queue and populates its ID.
func (s *SQLite) Enqueue(ctx context.Context, m *model.Mutation) error {
	payload := m.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if m.EnqueuedAt.IsZero() {
		m.EnqueuedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_queue (url, operation, payload, enqueued_at, retry_count) VALUES (?, ?, ?, ?, ?)`,
		m.URL, string(m.Operation), string(payload), formatTime(m.EnqueuedAt), m.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("enqueue mutation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	m.Payload = payload
	return nil
}

// ListPending returns queued mutations in enqueue order.
func (s *SQLite) ListPending(ctx context.Context) ([]model.Mutation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, operation, payload, enqueued_at, retry_count FROM sync_queue ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.Mutation
	for rows.Next() {
		var m model.Mutation
		var op, payload, enqueued string
		if err := rows.Scan(&m.ID, &m.URL, &op, &payload, &enqueued, &m.RetryCount); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		m.Operation = model.Operation(op)
		m.Payload = json.RawMessage(payload)
		m.EnqueuedAt = parseTime(enqueued)
		items = append(items, m)
	}
	return items, rows.Err()
}

// RemoveMutation deletes a mutation from the queue.
func (s *SQLite) RemoveMutation(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove mutation: %w", err)
	}
	return nil
}

// IncrementRetry bumps the retry counter of a mutation and returns the new value.
func (s *SQLite) IncrementRetry(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`UPDATE sync_queue SET retry_count = retry_count + 1 WHERE id = ? RETURNING retry_count`, id,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment retry: %w", err)
	}
	return n, nil
}

// PendingCount returns the number of queued mutations.
func (s *SQLite) PendingCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sync queue: %w", err)
	}
	return n, nil
}

// GetMeta returns the metadata value stored under key, or def when unset.
func (s *SQLite) GetMeta(ctx context.Context, key, def string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

// SetMeta stores a metadata value.
func (s *SQLite) SetMeta(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value,
	); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// LastSync returns the incremental sync cursor, defaulting to Epoch.
func (s *SQLite) LastSync(ctx context.Context) (time.Time, error) {
	v, err := s.GetMeta(ctx, KeyLastSync, Epoch.Format(time.RFC3339))
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", KeyLastSync, v, err)
	}
	return t.UTC(), nil
}

// SetLastSync persists the incremental sync cursor.
func (s *SQLite) SetLastSync(ctx context.Context, t time.Time) error {
	return s.SetMeta(ctx, KeyLastSync, t.UTC().Format(time.RFC3339Nano))
}

// Clear removes all articles, queued mutations and metadata in one transaction.
func (s *SQLite) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"articles", "sync_queue", "metadata"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := formatTime(*t)
	return &v
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// foldTitle lowercases with full Unicode case mapping.
func foldTitle(s string) string {
	return strings.ToLower(s)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArticle(row scannable) (*model.Article, error) {
	var a model.Article
	var contents, lastAccess, lastKnown sql.NullString
	var hasBody, unread, archived int
	var downloaded string
	err := row.Scan(&a.URL, &a.Title, &contents, &hasBody, &unread, &archived, &downloaded, &lastAccess, &lastKnown)
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	if contents.Valid {
		v := contents.String
		a.Contents = &v
	}
	a.HasBody = hasBody == 1
	a.Unread = unread == 1
	a.Archived = archived == 1
	a.DownloadedAt = parseTime(downloaded)
	if lastAccess.Valid {
		t := parseTime(lastAccess.String)
		a.LastAccess = &t
	}
	if lastKnown.Valid {
		var st model.ServerArticle
		if err := json.Unmarshal([]byte(lastKnown.String), &st); err != nil {
			return nil, fmt.Errorf("unmarshal server state: %w", err)
		}
		a.LastKnownServerState = &st
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]model.Article, error) {
	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}
