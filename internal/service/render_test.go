package service

import (
	"strings"
	"testing"
)

func TestRenderMarkdownProducesSanitizedHTML(t *testing.T) {
	html := RenderMarkdown("# Headline\n\nSome **bold** text.")
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>bold</strong>") {
		t.Fatalf("expected rendered markdown, got %q", html)
	}
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	html := RenderMarkdown("Hello <script>alert(1)</script> world")
	if strings.Contains(html, "<script") || strings.Contains(html, "alert(1)") {
		t.Fatalf("script content survived sanitization: %q", html)
	}
	if !strings.Contains(html, "Hello") {
		t.Fatalf("legitimate content was lost: %q", html)
	}
}

func TestSanitizeCommentStripsMarkup(t *testing.T) {
	got := SanitizeComment(`  Nice read! <img src=x onerror=alert(1)> <b>thanks</b>  `)
	if strings.Contains(got, "onerror") {
		t.Fatalf("event handler survived sanitization: %q", got)
	}
	if !strings.Contains(got, "Nice read!") {
		t.Fatalf("comment text was lost: %q", got)
	}
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Fatalf("expected trimmed output, got %q", got)
	}
}

func TestCalculateReadingTime(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "empty", content: "", want: 1},
		{name: "short", content: "just a few words", want: 1},
		{name: "exactly 200 words", content: strings.Repeat("word ", 200), want: 1},
		{name: "201 words rounds up", content: strings.Repeat("word ", 201), want: 2},
		{name: "450 words", content: strings.Repeat("word ", 450), want: 3},
		{name: "markup does not count", content: "<p>" + strings.Repeat("word ", 10) + "</p>", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateReadingTime(tt.content); got != tt.want {
				t.Fatalf("calculateReadingTime = %d, want %d", got, tt.want)
			}
		})
	}
}
