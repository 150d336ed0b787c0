// Package pipeline runs the fetch → render steps for one or more work items.
// Each extraction gets its own run id so its log lines can be grouped.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/fetch"
	"github.com/gaurav-prasanna/wipipe/core/render"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

// Result is the outcome of extracting a single work item.
type Result struct {
	ID     int
	RunID  string
	Data   []byte
	Record *core.WorkItemRecord // nil when Err is set
	Err    error
}

// Extractor fetches work items and renders them with one renderer.
type Extractor struct {
	fetcher  core.Fetcher
	renderer core.Renderer
	l        log.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.l = l
		}
	}
}

// New creates an Extractor.
func New(fetcher core.Fetcher, renderer core.Renderer, opts ...Option) *Extractor {
	e := &Extractor{
		fetcher:  fetcher,
		renderer: renderer,
		l:        log.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Renderer returns the renderer used for every item.
func (e *Extractor) Renderer() core.Renderer {
	return e.renderer
}

// Extract fetches and renders work item id. Fetch errors are returned
// unwrapped so callers can match them with errors.As.
func (e *Extractor) Extract(ctx context.Context, id int) Result {
	runID := uuid.NewString()
	ctx = log.WithRunID(ctx, runID)
	res := Result{ID: id, RunID: runID}

	rec, err := e.fetcher.Fetch(ctx, id)
	if err != nil {
		e.l.Errorf(ctx, "pipeline: work item #%d: %v", id, err)
		res.Err = err
		return res
	}
	data, err := e.renderer.Render(ctx, rec)
	if err != nil {
		res.Err = fmt.Errorf("render: %w", err)
		return res
	}
	res.Data = data
	res.Record = rec
	return res
}

// ExtractAll processes ids one after another. A failing item does not stop
// the run; its error is carried in its Result.
func (e *Extractor) ExtractAll(ctx context.Context, ids []int) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Err: err})
			continue
		}
		results = append(results, e.Extract(ctx, id))
	}
	return results
}

// ExtractMarkdown is the single-call entry point: it fetches work item id
// with cfg and returns the Markdown document.
func ExtractMarkdown(ctx context.Context, id int, cfg core.Config) (string, error) {
	f := fetch.New(cfg, fetch.NewClient(cfg))
	res := New(f, render.NewMarkdownRenderer()).Extract(ctx, id)
	if res.Err != nil {
		return "", res.Err
	}
	return string(res.Data), nil
}
