// Package sanitize is the single gate every piece of rich-text content
// passes through before it is stored or rendered. It also provides the
// text normalization used to compare a learner's written answer
// against the expected side of a card.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var policy = newPolicy()

// newPolicy builds the allowlist for editor-produced rich text:
// inline formatting, lists, headings, tables and hardened links.
// Scripts, event handlers, iframes and forms never survive.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"a", "b", "i", "em", "strong", "u", "s", "sub", "sup",
		"p", "br", "span", "code", "pre", "mark", "blockquote", "hr",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("class", "style").Globally()
	p.AllowAttrs("href", "title").OnElements("a")

	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	p.AllowStyles("color", "background-color", "text-align", "text-decoration").Globally()

	return p
}

// HTML sanitizes untrusted rich-text content. Schema-valid input is
// not necessarily safe input, so this runs on every import path.
func HTML(raw string) string {
	return policy.Sanitize(raw)
}

// IsHTMLEmpty reports whether the sanitized content renders as blank.
func IsHTMLEmpty(raw string) bool {
	return strings.TrimSpace(Text(raw)) == ""
}

var whitespace = regexp.MustCompile(`\s+`)

// Text strips all markup from an HTML fragment and collapses
// whitespace, for sorting, filtering and answer comparison.
func Text(raw string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(b.String(), " "))
}

// NormalizeAnswer prepares free text for comparison: whitespace is
// collapsed, surrounding space trimmed, and case folded.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespace.ReplaceAllString(s, " ")))
}

// AnswersMatch compares a learner's typed answer against the expected
// card side. The expected side is HTML; the typed answer is plain text.
func AnswersMatch(typed, expectedHTML string) bool {
	return NormalizeAnswer(typed) == NormalizeAnswer(Text(expectedHTML))
}
