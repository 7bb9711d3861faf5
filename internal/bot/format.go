package bot

import (
	"fmt"
	"strings"
	"time"

	"readlater/internal/model"
	"readlater/internal/status"
)

// maxMessageLen keeps article bodies under Telegram's 4096 character limit.
const maxMessageLen = 4000

// FormatArticleList formats a listing with the short key of every article.
func FormatArticleList(heading string, articles []model.Article) string {
	if len(articles) == 0 {
		return "Nothing here yet."
	}
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	for _, a := range articles {
		marker := " "
		if a.Unread {
			marker = "•"
		}
		offline := ""
		if a.HasContents() {
			offline = " [offline]"
		}
		fmt.Fprintf(&b, "\n%s %s  %s%s\n   %s\n", marker, ArticleKey(a.URL), titleOf(a.Title), offline, a.URL)
	}
	return b.String()
}

// FormatArticle formats an article body for a chat message, truncating long bodies.
func FormatArticle(a *model.FullArticle) string {
	var b strings.Builder
	b.WriteString(titleOf(a.Title))
	b.WriteString("\n")
	b.WriteString(a.URL)
	b.WriteString("\n\n")

	body := strings.TrimSpace(a.Contents)
	room := maxMessageLen - b.Len()
	if runes := []rune(body); len(runes) > room {
		body = string(runes[:room-3]) + "..."
	}
	b.WriteString(body)
	return b.String()
}

// FormatStatus formats a status snapshot.
func FormatStatus(st status.Status) string {
	var b strings.Builder
	if st.Online {
		b.WriteString("Online")
	} else {
		b.WriteString("Offline")
	}
	if st.Syncing {
		b.WriteString(", syncing")
	}
	fmt.Fprintf(&b, "\nPending changes: %d", st.Pending)
	if st.LastSync != nil {
		fmt.Fprintf(&b, "\nLast sync: %s", st.LastSync.UTC().Format(time.RFC3339))
	} else {
		b.WriteString("\nLast sync: never")
	}
	if st.Error != "" {
		fmt.Fprintf(&b, "\nLast error: %s", st.Error)
	}
	return b.String()
}

func titleOf(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}
