package content

import (
	"strings"
	"testing"
)

func TestIsHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "doctype", in: "<!DOCTYPE html><p>x</p>", want: true},
		{name: "paragraph", in: "<p>hello</p>", want: true},
		{name: "self closing break", in: "line<br/>line", want: true},
		{name: "link with attributes", in: `see <a href="https://example.com">here</a>`, want: true},
		{name: "markdown", in: "# Title\n\nSome *text*.", want: false},
		{name: "plain text with angle brackets", in: "a < b and b > c", want: false},
		{name: "unknown tag prefix", in: "<pineapple>", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHTML(tt.in); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToMarkdown(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := ToMarkdown(""); got != "" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("markdown passthrough", func(t *testing.T) {
		in := "# Title\n\nbody"
		if got := ToMarkdown(in); got != in {
			t.Errorf("got %q, want %q", got, in)
		}
	})

	t.Run("html converted", func(t *testing.T) {
		got := ToMarkdown("<h1>Title</h1><p>Some <strong>bold</strong> text.</p>")
		for _, want := range []string{"# Title", "**bold**"} {
			if !strings.Contains(got, want) {
				t.Errorf("ToMarkdown output %q missing %q", got, want)
			}
		}
		if strings.Contains(got, "<p>") {
			t.Errorf("ToMarkdown left tags in %q", got)
		}
	})
}

func TestRender(t *testing.T) {
	out, err := Render("# Heading\n\nparagraph text", "notty")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "paragraph text") {
		t.Errorf("rendered output missing body: %q", out)
	}
}
