// Package model defines the domain types used across the application.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Article is the locally persisted copy of a saved article, keyed by its canonical URL.
type Article struct {
	URL      string
	Title    string
	Contents *string
	HasBody  bool
	Unread   bool
	Archived bool

	// DownloadedAt is set whenever the local copy is (re)written.
	DownloadedAt time.Time

	// LastAccess is server-owned and never set locally.
	LastAccess *time.Time

	// LastKnownServerState is the last server record merged into this article.
	LastKnownServerState *ServerArticle
}

// SortTime returns the time used to order recent articles.
func (a *Article) SortTime() time.Time {
	if a.LastAccess != nil {
		return *a.LastAccess
	}
	return a.DownloadedAt
}

// HasContents reports whether a body is stored locally.
func (a *Article) HasContents() bool {
	return a.Contents != nil && *a.Contents != ""
}

// ServerArticle is an article as reported by the remote changes and list endpoints.
type ServerArticle struct {
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	HasBody    bool       `json:"hasBody"`
	Unread     bool       `json:"unread"`
	Archived   bool       `json:"archived"`
	LastAccess *time.Time `json:"lastAccess,omitempty"`
}

// UnmarshalJSON decodes a server record. lastAccess is parsed leniently and
// left nil when unreadable so the rest of the record survives.
func (s *ServerArticle) UnmarshalJSON(data []byte) error {
	type plain ServerArticle
	aux := struct {
		*plain
		LastAccess json.RawMessage `json:"lastAccess"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.LastAccess = ParseLastAccess(aux.LastAccess)
	return nil
}

var lastAccessLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// ParseLastAccess reads an RFC 3339 string, a SQLite datetime string or a
// number of milliseconds since the epoch. Anything else yields nil.
func ParseLastAccess(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return nil
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return &t
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, layout := range lastAccessLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return &t
		}
	}
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}

// FullArticle is the response of a full content fetch.
type FullArticle struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Contents string `json:"contents"`
}

// Operation names a queued mutation kind.
type Operation string

// Supported mutation operations. OpDownload is reserved and never pushed.
const (
	OpMarkRead   Operation = "markRead"
	OpSetArchive Operation = "setArchive"
	OpDownload   Operation = "download"
)

// Mutation is a pending local change waiting to be sent to the server.
type Mutation struct {
	ID         int64
	URL        string
	Operation  Operation
	Payload    json.RawMessage
	EnqueuedAt time.Time
	RetryCount int
}

// ArchivePayload is the payload of an OpSetArchive mutation.
type ArchivePayload struct {
	Archived bool `json:"archived"`
}

// ReadPayload is the payload of an OpMarkRead mutation.
type ReadPayload struct {
	Unread bool `json:"unread"`
}
