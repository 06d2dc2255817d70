package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`<strong>ok</strong><script>alert(1)</script><img src=x onerror=alert(1)>`)

	assert.Contains(t, out, "<strong>ok</strong>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "<img")
}

func TestSanitizeKeepsPipelineClasses(t *testing.T) {
	out := Sanitize(New(SummaryStyle).Render("## Features\n`code`"))

	assert.Contains(t, out, `<h2 class="text-2xl font-bold mt-8 mb-3 text-gray-800">Features</h2>`)
	assert.Contains(t, out, `class="bg-gray-100 px-1.5 py-0.5 rounded text-sm font-mono text-pink-600"`)
	assert.Contains(t, out, "<br")
}

func TestSanitizeDropsJavascriptLinks(t *testing.T) {
	out := Sanitize(`<a href="javascript:alert(1)">x</a><a href="https://github.com">gh</a>`)

	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `href="https://github.com"`)
}

func TestHTMLEscapesRawMarkupFromSource(t *testing.T) {
	out := string(HTML(New(ChatStyle), "**hi** <iframe src=\"https://evil\"></iframe>"))

	assert.True(t, strings.HasPrefix(out, `<strong class="font-bold">hi</strong>`), out)
	assert.NotContains(t, out, "<iframe")
}

func TestCommonMarkEngine(t *testing.T) {
	e := NewEngine("commonmark", Style{})
	out := e.Render("# Title\n\n- one\n- two")

	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<li>one</li>")
	assert.Equal(t, "", e.Render(""))

	_, isPipeline := NewEngine("pipeline", Style{}).(*Pipeline)
	assert.True(t, isPipeline)
}
