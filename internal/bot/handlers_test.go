package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"readlater/internal/model"
	"readlater/internal/status"
)

func TestParseArticleArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    ArticleRef
		wantErr bool
	}{
		{
			name: "https url",
			args: "https://example.com/post?id=1",
			want: ArticleRef{URL: "https://example.com/post?id=1"},
		},
		{
			name: "url with trailing words",
			args: "http://example.com/a please",
			want: ArticleRef{URL: "http://example.com/a"},
		},
		{
			name: "key",
			args: "0a1b2c3d",
			want: ArticleRef{Key: "0a1b2c3d"},
		},
		{
			name: "uppercase key",
			args: "0A1B2C3D",
			want: ArticleRef{Key: "0a1b2c3d"},
		},
		{
			name:    "empty",
			args:    "  ",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			args:    "ftp://example.com/file",
			wantErr: true,
		},
		{
			name:    "missing host",
			args:    "https://",
			wantErr: true,
		},
		{
			name:    "short key",
			args:    "abc",
			wantErr: true,
		},
		{
			name:    "non-hex key",
			args:    "zzzzzzzz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArticleArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseArticleArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCountArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int
		wantErr bool
	}{
		{name: "default", args: "", want: defaultListSize},
		{name: "explicit", args: "25", want: 25},
		{name: "maximum", args: "50", want: 50},
		{name: "zero", args: "0", wantErr: true},
		{name: "too large", args: "51", wantErr: true},
		{name: "not a number", args: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCountArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCountArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestArticleKey(t *testing.T) {
	a, b := ArticleKey("https://example.com/a"), ArticleKey("https://example.com/b")
	if len(a) != 8 {
		t.Errorf("key length = %d, want 8", len(a))
	}
	if a == b {
		t.Error("expected distinct keys for distinct urls")
	}
	if a != ArticleKey("https://example.com/a") {
		t.Error("expected stable keys")
	}
	if _, err := ParseArticleArg(a); err != nil {
		t.Errorf("generated key does not parse: %v", err)
	}
}

func TestFormatArticleList(t *testing.T) {
	body := "x"
	articles := []model.Article{
		{URL: "https://a.example.com", Title: "Alpha", Unread: true, Contents: &body, HasBody: true},
		{URL: "https://b.example.com"},
	}

	got := FormatArticleList("Reading list:", articles)
	want := "Reading list:\n" +
		"\n• " + ArticleKey("https://a.example.com") + "  Alpha [offline]\n   https://a.example.com\n" +
		"\n  " + ArticleKey("https://b.example.com") + "  (untitled)\n   https://b.example.com\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatArticleList() mismatch (-want +got):\n%s", diff)
	}

	if got := FormatArticleList("x", nil); got != "Nothing here yet." {
		t.Errorf("empty list = %q", got)
	}
}

func TestFormatArticle(t *testing.T) {
	t.Run("short body", func(t *testing.T) {
		got := FormatArticle(&model.FullArticle{Title: "T", URL: "https://a.example.com", Contents: "  body  "})
		if diff := cmp.Diff("T\nhttps://a.example.com\n\nbody", got); diff != "" {
			t.Errorf("FormatArticle() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("long body truncated", func(t *testing.T) {
		got := FormatArticle(&model.FullArticle{Title: "T", URL: "https://a.example.com", Contents: strings.Repeat("é", 10000)})
		if n := len([]rune(got)); n > maxMessageLen {
			t.Errorf("message has %d runes, want at most %d", n, maxMessageLen)
		}
		if !strings.HasSuffix(got, "...") {
			t.Error("expected truncation marker")
		}
	})
}

func TestFormatStatus(t *testing.T) {
	synced := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   status.Status
		want string
	}{
		{
			name: "offline",
			in:   status.Status{Pending: 3},
			want: "Offline\nPending changes: 3\nLast sync: never",
		},
		{
			name: "online with error",
			in:   status.Status{Online: true, Syncing: true, LastSync: &synced, Error: "pull: timeout"},
			want: "Online, syncing\nPending changes: 0\nLast sync: 2025-06-01T12:00:00Z\nLast error: pull: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatStatus(tt.in)); diff != "" {
				t.Errorf("FormatStatus() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
