package bot

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultListSize = 10
	maxListSize     = 50
)

// ArticleRef is a parsed article argument: either a full URL or a short key.
type ArticleRef struct {
	URL string
	Key string
}

// ArticleKey returns the short key shown next to an article in listings.
func ArticleKey(articleURL string) string {
	h := sha256.Sum256([]byte(articleURL))
	return fmt.Sprintf("%x", h[:4])
}

// ParseArticleArg parses an http(s) URL or a key from a listing.
func ParseArticleArg(args string) (ArticleRef, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ArticleRef{}, fmt.Errorf("article URL or key is required")
	}
	s := fields[0]

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ArticleRef{}, fmt.Errorf("invalid article URL %q", s)
		}
		return ArticleRef{URL: s}, nil
	}

	if len(s) != 8 {
		return ArticleRef{}, fmt.Errorf("invalid article key %q", s)
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return ArticleRef{}, fmt.Errorf("invalid article key %q", s)
	}
	return ArticleRef{Key: strings.ToLower(s)}, nil
}

// ParseCountArg parses an optional list size between 1 and 50.
func ParseCountArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return defaultListSize, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 || n > maxListSize {
		return 0, fmt.Errorf("count must be between 1 and %d", maxListSize)
	}
	return n, nil
}
