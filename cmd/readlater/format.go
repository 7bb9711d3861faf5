package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"readlater/internal/model"
	"readlater/internal/status"
)

var (
	faint = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

// formatArticle renders one list line: unread marker, offline marker, title and url.
func formatArticle(a model.Article) string {
	var b strings.Builder
	if a.Unread {
		b.WriteString(cyan("●"))
	} else {
		b.WriteString(" ")
	}
	if a.HasContents() {
		b.WriteString(green("↓"))
	} else {
		b.WriteString(" ")
	}
	b.WriteString(" ")

	title := a.Title
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(bold(title))
	b.WriteString("\n    ")
	b.WriteString(faint(a.URL))
	return b.String()
}

func formatServerArticle(a model.ServerArticle) string {
	return formatArticle(model.Article{URL: a.URL, Title: a.Title, Unread: a.Unread})
}

// formatStatus renders a status snapshot on a single line.
func formatStatus(st status.Status) string {
	var parts []string
	if st.Online {
		parts = append(parts, green("online"))
	} else {
		parts = append(parts, red("offline"))
	}
	if st.Syncing {
		parts = append(parts, "syncing")
	}
	parts = append(parts, fmt.Sprintf("%d pending", st.Pending))
	if st.LastSync != nil {
		parts = append(parts, "last sync "+st.LastSync.Local().Format(time.DateTime))
	} else {
		parts = append(parts, "never synced")
	}
	if st.Error != "" {
		parts = append(parts, red("error: "+st.Error))
	}
	return strings.Join(parts, faint(" · "))
}
