package markdown

import (
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "h4", "p", "br", "hr",
		"strong", "em", "del", "code", "pre", "blockquote",
		"ul", "ol", "li", "table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\s.:/-]+$`)).Globally()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips every tag and attribute outside the allow-list.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}

// HTML renders markdown with e and sanitizes the result for direct
// insertion into a template.
func HTML(e Engine, markdown string) template.HTML {
	return template.HTML(Sanitize(e.Render(markdown)))
}
