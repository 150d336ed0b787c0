// Package normalize implements the Normalizer interface.
// PlainText is the default: it flattens rich-text HTML into a single line of
// plain text. Markdown keeps structure by converting HTML with html-to-markdown.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gaurav-prasanna/wipipe/core"
)

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// entities are decoded one after another in this order, so "&amp;lt;"
// becomes "<". Any other entity is left as written.
var entities = []struct{ from, to string }{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
}

// PlainText strips markup from rich-text fields.
type PlainText struct{}

// New creates a PlainText normalizer.
func New() *PlainText {
	return &PlainText{}
}

// Normalize replaces every tag with a space, decodes the handled entities and
// collapses whitespace runs (newlines and non-breaking spaces included).
func (n *PlainText) Normalize(html string) string {
	return StripHTML(html)
}

// StripHTML is the function form of PlainText.Normalize.
func StripHTML(html string) string {
	text := tagRegex.ReplaceAllString(html, " ")
	for _, e := range entities {
		text = strings.ReplaceAll(text, e.from, e.to)
	}
	return strings.Join(strings.Fields(text), " ")
}

// Markdown converts rich-text HTML into Markdown using html-to-markdown.
type Markdown struct {
	fallback *PlainText
}

// NewMarkdown creates a Markdown normalizer.
func NewMarkdown() *Markdown {
	return &Markdown{fallback: New()}
}

// Normalize converts an HTML fragment into Markdown. A fragment the converter
// rejects is flattened with PlainText instead.
func (n *Markdown) Normalize(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return n.fallback.Normalize(html)
	}
	return strings.TrimSpace(markdown)
}

// InlinesImages reports that converted text keeps "![alt](src)" references.
func (n *Markdown) InlinesImages() bool {
	return true
}

// ByName returns the normalizer for a rich_text setting. Unknown names fall
// back to plain text.
func ByName(name string) core.Normalizer {
	if strings.EqualFold(strings.TrimSpace(name), "markdown") {
		return NewMarkdown()
	}
	return New()
}
