// Package render — JSON renderer.
// Emits the normalized record as indented JSON for tools that would rather
// not parse the Markdown layout.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gaurav-prasanna/wipipe/core"
)

// JSONRenderer produces structured JSON output from a record.
type JSONRenderer struct {
	now func() time.Time
}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{now: time.Now}
}

type degradationJSON struct {
	Stage  string `json:"stage"`
	Target string `json:"target"`
	Error  string `json:"error,omitempty"`
}

type documentJSON struct {
	WorkItem     *core.WorkItemRecord `json:"work_item"`
	Degradations []degradationJSON    `json:"degradations"`
	ExtractedAt  string               `json:"extracted_at"`
}

// Render marshals rec together with its degradations.
func (r *JSONRenderer) Render(_ context.Context, rec *core.WorkItemRecord) ([]byte, error) {
	doc := documentJSON{
		WorkItem:     rec,
		Degradations: make([]degradationJSON, 0, len(rec.Degradations)),
		ExtractedAt:  r.now().UTC().Format(extractedLayout),
	}
	for _, d := range rec.Degradations {
		dj := degradationJSON{Stage: d.Stage, Target: d.Target}
		if d.Err != nil {
			dj.Error = d.Err.Error()
		}
		doc.Degradations = append(doc.Degradations, dj)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
