// Package render — HTML renderer.
// Converts the Markdown document to a standalone HTML page with goldmark.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/gaurav-prasanna/wipipe/core"
)

// HTMLRenderer renders the Markdown document as HTML. Raw HTML inside work
// item text is escaped, not passed through.
type HTMLRenderer struct {
	md     *MarkdownRenderer
	engine goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer on top of md.
func NewHTMLRenderer(md *MarkdownRenderer) *HTMLRenderer {
	return &HTMLRenderer{
		md: md,
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render converts the record's Markdown document into an HTML page.
func (r *HTMLRenderer) Render(_ context.Context, rec *core.WorkItemRecord) ([]byte, error) {
	var body bytes.Buffer
	if err := r.engine.Convert([]byte(r.md.Document(rec)), &body); err != nil {
		return nil, fmt.Errorf("converting markdown to HTML: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>Work Item #%d: %s</title>\n", rec.ID, html.EscapeString(rec.Title))
	buf.WriteString("</head>\n<body>\n")
	buf.Write(body.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
