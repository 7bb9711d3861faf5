// Package remote implements the client for the read-later server API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"readlater/internal/model"
)

// ErrUnauthorized is wrapped by errors for 401 responses so the credential owner can refresh.
var ErrUnauthorized = errors.New("unauthorized")

const maxBodySize = 20 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the sync-relevant endpoints of the server.
type Client struct {
	client  HTTPClient
	baseURL string
	token   string
}

// New creates a Client for the server at baseURL. token may be empty.
func New(client HTTPClient, baseURL, token string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Changes returns the articles changed on the server since the given time.
func (c *Client) Changes(ctx context.Context, since time.Time) ([]model.ServerArticle, error) {
	q := url.Values{"since": {since.UTC().Format(time.RFC3339Nano)}}
	return c.list(ctx, "/api/changes", q)
}

// Recents returns up to count recently accessed articles.
func (c *Client) Recents(ctx context.Context, count int) ([]model.ServerArticle, error) {
	return c.list(ctx, "/api/recents", url.Values{"count": {strconv.Itoa(count)}})
}

// Archive returns up to count archived articles.
func (c *Client) Archive(ctx context.Context, count int) ([]model.ServerArticle, error) {
	return c.list(ctx, "/api/archive", url.Values{"count": {strconv.Itoa(count)}})
}

// MarkRead marks an article as read on the server.
func (c *Client) MarkRead(ctx context.Context, articleURL string) error {
	body := struct {
		URL string `json:"url"`
	}{URL: articleURL}
	_, err := c.do(ctx, http.MethodPost, "/api/markRead", nil, body)
	return err
}

// SetArchive sets the archive flag of an article on the server.
func (c *Client) SetArchive(ctx context.Context, articleURL string, archived bool) error {
	q := url.Values{
		"url":        {articleURL},
		"setArchive": {strconv.FormatBool(archived)},
	}
	_, err := c.do(ctx, http.MethodPut, "/api/setArchive", q, nil)
	return err
}

// Summarize asks the server to fetch and process the full article.
func (c *Client) Summarize(ctx context.Context, articleURL, titleHint string) (*model.FullArticle, error) {
	body := struct {
		URL       string `json:"url"`
		TitleHint string `json:"titleHint,omitempty"`
	}{URL: articleURL, TitleHint: titleHint}
	data, err := c.do(ctx, http.MethodPost, "/api/summarize", nil, body)
	if err != nil {
		return nil, err
	}
	var article model.FullArticle
	if err := json.Unmarshal(data, &article); err != nil {
		return nil, fmt.Errorf("decode summarize response: %w", err)
	}
	if article.URL == "" {
		article.URL = articleURL
	}
	return &article, nil
}

// list fetches an article list. Empty or non-array bodies yield no items.
func (c *Client) list(ctx context.Context, path string, q url.Values) ([]model.ServerArticle, error) {
	data, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(data), nil
}

func decodeList(data []byte) []model.ServerArticle {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	items := make([]model.ServerArticle, 0, len(raw))
	for _, r := range raw {
		var item model.ServerArticle
		if err := json.Unmarshal(r, &item); err != nil || item.URL == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload any) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "readlater-sync/1.0")
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
