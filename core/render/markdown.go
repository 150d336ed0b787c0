// Package render provides output renderers for work item records.
// The Markdown document is the canonical output; the HTML, PDF and
// embeddings renderers all start from it.
package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gaurav-prasanna/wipipe/core"
)

// extractedLayout matches JavaScript's Date.toISOString, which consumers of
// the document already parse.
const extractedLayout = "2006-01-02T15:04:05.000Z"

// MarkdownRenderer serializes a record into the fixed Markdown layout:
// heading, Overview, Dates, Description, Acceptance Criteria, Comments,
// Attachments and the trailing extraction timestamp.
type MarkdownRenderer struct {
	now func() time.Time
}

// MarkdownOption customizes a MarkdownRenderer.
type MarkdownOption func(*MarkdownRenderer)

// WithClock sets the clock used for the "Extracted:" line.
func WithClock(now func() time.Time) MarkdownOption {
	return func(r *MarkdownRenderer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(opts ...MarkdownOption) *MarkdownRenderer {
	r := &MarkdownRenderer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the Markdown document as bytes.
func (r *MarkdownRenderer) Render(_ context.Context, rec *core.WorkItemRecord) ([]byte, error) {
	return []byte(r.Document(rec)), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// Document renders rec. It performs no I/O and never fails: absent values
// render as placeholder text.
func (r *MarkdownRenderer) Document(rec *core.WorkItemRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Work Item #%d: %s\n\n", rec.ID, rec.Title)

	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- **ID**: %d\n", rec.ID)
	fmt.Fprintf(&b, "- **Type**: %s\n", rec.WorkItemType)
	fmt.Fprintf(&b, "- **State**: %s\n", rec.State)
	fmt.Fprintf(&b, "- **Reason**: %s\n", orDefault(rec.Reason, "Not specified"))
	fmt.Fprintf(&b, "- **Assigned To**: %s\n", orDefault(rec.AssignedTo, "Unassigned"))
	fmt.Fprintf(&b, "- **Area Path**: %s\n", rec.AreaPath)
	fmt.Fprintf(&b, "- **Iteration**: %s\n", rec.IterationPath)
	fmt.Fprintf(&b, "- **Priority**: %s\n", priority(rec.Priority))
	fmt.Fprintf(&b, "- **Severity**: %s\n", orDefault(rec.Severity, "Not set"))
	fmt.Fprintf(&b, "- **Tags**: %s\n", orDefault(strings.Join(rec.Tags, ", "), "None"))

	b.WriteString("\n## Dates\n")
	fmt.Fprintf(&b, "- **Created**: %s\n", rec.CreatedDate)
	fmt.Fprintf(&b, "- **Last Changed**: %s\n", rec.ChangedDate)

	fmt.Fprintf(&b, "\n## Description\n%s\n", orDefault(rec.DescriptionText, "No description provided"))
	fmt.Fprintf(&b, "\n## Acceptance Criteria\n%s\n", orDefault(rec.AcceptanceCriteriaText, "No acceptance criteria defined"))

	fmt.Fprintf(&b, "\n## Comments (%d)\n%s\n", len(rec.Comments), comments(rec.Comments))
	fmt.Fprintf(&b, "\n## Attachments (%d)\n%s\n", len(rec.Attachments), attachments(rec.Attachments))

	fmt.Fprintf(&b, "\n---\nExtracted: %s\n", r.now().UTC().Format(extractedLayout))
	return b.String()
}

func comments(cs []core.Comment) string {
	if len(cs) == 0 {
		return "No comments"
	}
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("\n### %s - %s\n%s\n", c.Author, c.Timestamp, c.Text))
	}
	return strings.Join(parts, "\n---\n")
}

func attachments(as []core.Attachment) string {
	if len(as) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(as))
	for _, a := range as {
		lines = append(lines, fmt.Sprintf("- [%s](%s)", a.Name, a.URL))
	}
	return strings.Join(lines, "\n")
}

// Azure DevOps reports 0 for an unset priority.
func priority(p *int) string {
	if p == nil || *p == 0 {
		return "Not set"
	}
	return strconv.Itoa(*p)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
