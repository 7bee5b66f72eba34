package service

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
	tagStrip  = regexp.MustCompile(`<[^>]*>`)
)

// RenderMarkdown converts article markdown to sanitized HTML.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return sanitizer.Sanitize(source)
	}
	return sanitizer.Sanitize(buf.String())
}

// SanitizeComment strips everything but safe inline markup from user comments.
func SanitizeComment(source string) string {
	return strings.TrimSpace(sanitizer.Sanitize(source))
}

// calculateReadingTime estimates minutes at 200 words per minute over the
// tag-stripped content. Always at least one minute.
func calculateReadingTime(content string) int {
	plain := tagStrip.ReplaceAllString(content, " ")
	words := len(strings.Fields(plain))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
