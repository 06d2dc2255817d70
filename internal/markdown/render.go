// Package markdown converts the restricted Markdown subset produced by the
// analysis service into HTML.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Engine turns a Markdown block into an HTML fragment.
type Engine interface {
	Render(markdown string) string
}

// Style holds the class attribute emitted on each generated tag. Empty
// fields produce bare tags.
type Style struct {
	H1     string
	H2     string
	H3     string
	Strong string
	Em     string
	Code   string
	Pre    string
}

// SummaryStyle is used by the repository summary panel.
var SummaryStyle = Style{
	H1:     "text-3xl font-bold mt-10 mb-4 text-gray-800",
	H2:     "text-2xl font-bold mt-8 mb-3 text-gray-800",
	H3:     "text-xl font-bold mt-6 mb-2 text-gray-800",
	Strong: "font-semibold",
	Em:     "italic",
	Code:   "bg-gray-100 px-1.5 py-0.5 rounded text-sm font-mono text-pink-600",
	Pre:    "bg-gray-800 text-gray-100 p-4 rounded-lg overflow-x-auto my-4 font-mono text-sm",
}

// ChatStyle is used for transcript bubbles.
var ChatStyle = Style{
	H1:     "text-2xl font-bold mt-6 mb-3",
	H2:     "text-xl font-bold mt-5 mb-2",
	H3:     "text-lg font-bold mt-4 mb-2",
	Strong: "font-bold",
	Em:     "italic",
	Code:   "bg-gray-100 px-1.5 py-0.5 rounded text-sm font-mono text-pink-600",
	Pre:    "bg-gray-800 text-gray-100 p-3 rounded-lg overflow-x-auto my-3 font-mono text-sm",
}

// The character classes exclude CR as well as LF so a CRLF line ending is
// never swallowed into a heading or a span.
var (
	h3Pattern     = regexp.MustCompile(`(?m)^### ([^\r\n]*)`)
	h2Pattern     = regexp.MustCompile(`(?m)^## ([^\r\n]*)`)
	h1Pattern     = regexp.MustCompile(`(?m)^# ([^\r\n]*)`)
	strongPattern = regexp.MustCompile(`\*\*([^\r\n]*?)\*\*`)
	emPattern     = regexp.MustCompile(`\*([^\r\n]*?)\*`)
	codePattern   = regexp.MustCompile("`([^\\r\\n]*?)`")
	blockPattern  = regexp.MustCompile("```([^`]+)```")
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Pipeline applies a fixed sequence of substitutions. Each step sees the
// output of the previous one, so the order is part of the contract:
// headings, bold, italic, inline code, fenced code, then line breaks.
type Pipeline struct {
	rules []rule
}

// New builds a pipeline emitting the given style.
func New(style Style) *Pipeline {
	return &Pipeline{rules: []rule{
		{h3Pattern, wrap("h3", style.H3)},
		{h2Pattern, wrap("h2", style.H2)},
		{h1Pattern, wrap("h1", style.H1)},
		{strongPattern, wrap("strong", style.Strong)},
		{emPattern, wrap("em", style.Em)},
		{codePattern, wrap("code", style.Code)},
		{blockPattern, fmt.Sprintf("<pre%s><code>${1}</code></pre>", classAttr(style.Pre))},
	}}
}

// Render converts markdown to HTML. Empty input yields an empty string.
func (p *Pipeline) Render(markdown string) string {
	if markdown == "" {
		return ""
	}

	out := markdown
	for _, r := range p.rules {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}
	return strings.ReplaceAll(out, "\n", "<br />")
}

var plain = New(Style{})

// Render converts markdown with bare, class-less tags.
func Render(markdown string) string {
	return plain.Render(markdown)
}

func wrap(tag, class string) string {
	return fmt.Sprintf("<%s%s>${1}</%s>", tag, classAttr(class), tag)
}

func classAttr(class string) string {
	if class == "" {
		return ""
	}
	return fmt.Sprintf(` class="%s"`, class)
}
