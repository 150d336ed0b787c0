package render_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/render"
)

var fixedTime = time.Date(2024, 5, 3, 9, 15, 30, 123000000, time.UTC)

func fixedRenderer() *render.MarkdownRenderer {
	return render.NewMarkdownRenderer(render.WithClock(func() time.Time { return fixedTime }))
}

func loginBug() *core.WorkItemRecord {
	return &core.WorkItemRecord{
		ID:           1234,
		Title:        "Fix login bug",
		State:        "Active",
		WorkItemType: "Bug",
		Comments:     []core.Comment{},
		Attachments:  []core.Attachment{{Name: "log.txt", URL: "https://files/log.txt"}},
	}
}

func TestDocumentLoginBug(t *testing.T) {
	doc := fixedRenderer().Document(loginBug())

	for _, want := range []string{
		"# Work Item #1234: Fix login bug\n",
		"## Comments (0)\nNo comments\n",
		"## Attachments (1)\n- [log.txt](https://files/log.txt)\n",
		"- **State**: Active\n",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestDocumentPlaceholders(t *testing.T) {
	doc := fixedRenderer().Document(&core.WorkItemRecord{ID: 1})

	for _, want := range []string{
		"- **Reason**: Not specified\n",
		"- **Assigned To**: Unassigned\n",
		"- **Priority**: Not set\n",
		"- **Severity**: Not set\n",
		"- **Tags**: None\n",
		"## Description\nNo description provided\n",
		"## Acceptance Criteria\nNo acceptance criteria defined\n",
		"## Comments (0)\nNo comments\n",
		"## Attachments (0)\nNone\n",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestDocumentZeroPriority(t *testing.T) {
	p := 0
	doc := fixedRenderer().Document(&core.WorkItemRecord{ID: 1, Priority: &p})

	if !strings.Contains(doc, "- **Priority**: Not set\n") {
		t.Errorf("zero priority not shown as unset:\n%s", doc)
	}
}

func TestDocumentFullLayout(t *testing.T) {
	p := 2
	rec := &core.WorkItemRecord{
		ID:                     42,
		Title:                  "Checkout fails",
		State:                  "Resolved",
		Reason:                 "Fixed",
		AssignedTo:             "Ana",
		AreaPath:               `Shop\Web`,
		IterationPath:          `Shop\Sprint 3`,
		Priority:               &p,
		Severity:               "2 - High",
		Tags:                   []string{"payments", "web"},
		WorkItemType:           "Bug",
		CreatedDate:            "2024-05-01T10:00:00Z",
		ChangedDate:            "2024-05-02T11:00:00Z",
		DescriptionText:        "Card payments time out",
		AcceptanceCriteriaText: "Payment succeeds",
		Comments: []core.Comment{
			{Author: "Ana", Timestamp: "t1", Text: "Looking"},
			{Author: "Bo", Timestamp: "t2", Text: "Fixed"},
		},
		Attachments: []core.Attachment{
			{Name: "a.log", URL: "u1"},
			{Name: "b.png", URL: "u2"},
		},
	}

	want := `# Work Item #42: Checkout fails

## Overview
- **ID**: 42
- **Type**: Bug
- **State**: Resolved
- **Reason**: Fixed
- **Assigned To**: Ana
- **Area Path**: Shop\Web
- **Iteration**: Shop\Sprint 3
- **Priority**: 2
- **Severity**: 2 - High
- **Tags**: payments, web

## Dates
- **Created**: 2024-05-01T10:00:00Z
- **Last Changed**: 2024-05-02T11:00:00Z

## Description
Card payments time out

## Acceptance Criteria
Payment succeeds

## Comments (2)

### Ana - t1
Looking

---

### Bo - t2
Fixed


## Attachments (2)
- [a.log](u1)
- [b.png](u2)

---
Extracted: 2024-05-03T09:15:30.123Z
`
	if got := fixedRenderer().Document(rec); got != want {
		t.Errorf("document mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestDocumentIsPureApartFromTimestamp(t *testing.T) {
	r := render.NewMarkdownRenderer()
	rec := loginBug()

	strip := func(doc string) string {
		i := strings.LastIndex(doc, "Extracted: ")
		if i < 0 {
			t.Fatalf("no extraction line in %q", doc)
		}
		return doc[:i]
	}

	first := strip(r.Document(rec))
	second := strip(r.Document(rec))
	if first != second {
		t.Error("same record rendered differently")
	}

	out, err := r.Render(context.Background(), rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strip(string(out)) != first {
		t.Error("Render and Document disagree")
	}
	if r.Extension() != ".md" {
		t.Errorf("Extension = %q", r.Extension())
	}
}
