package markdown

import (
	"bytes"
	"html"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// CommonMark renders full CommonMark plus GFM tables and strikethrough.
// Raw HTML in the source is dropped by goldmark unless marked unsafe.
type CommonMark struct {
	md goldmark.Markdown
}

// NewCommonMark returns a goldmark-backed engine.
func NewCommonMark() *CommonMark {
	return &CommonMark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Render converts markdown to HTML. Conversion failures fall back to the
// escaped source text.
func (c *CommonMark) Render(markdown string) string {
	if markdown == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf); err != nil {
		slog.Warn("markdown conversion failed", "component", "markdown", "error", err)
		return html.EscapeString(markdown)
	}
	return buf.String()
}

// NewEngine resolves an engine by name; unknown names get the pipeline.
func NewEngine(name string, style Style) Engine {
	if name == "commonmark" {
		return NewCommonMark()
	}
	return New(style)
}
