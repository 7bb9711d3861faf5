// Package content normalises article bodies to Markdown and renders them for terminals.
package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
)

var htmlTag = regexp.MustCompile(`<(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|strong|em|b|i|code|pre|blockquote|article|section)[\s/>]`)

// IsHTML reports whether body looks like HTML rather than Markdown or plain text.
func IsHTML(body string) bool {
	if strings.Contains(body, "<!DOCTYPE") || strings.Contains(body, "<html") {
		return true
	}
	return htmlTag.MatchString(body)
}

// ToMarkdown converts an HTML body to Markdown. Anything else is returned unchanged,
// as is the input when conversion fails.
func ToMarkdown(body string) string {
	if body == "" || !IsHTML(body) {
		return body
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(md)
}

// Render formats Markdown for a terminal using the named glamour style.
func Render(markdown, style string) (string, error) {
	if style == "" {
		style = "dark"
	}
	return glamour.Render(markdown, style)
}
