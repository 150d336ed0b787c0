// Package discover lists work items through the two-call WIQL protocol: a
// query returns ids only, then a batch request fills in summary fields.
package discover

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/fetch"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

// DefaultMaxResults caps the number of ids sent to the batch endpoint.
const DefaultMaxResults = 50

const missingPriority = 999

// summaryFields are requested from the batch endpoint.
var summaryFields = []string{
	fetch.FieldID,
	fetch.FieldTitle,
	fetch.FieldState,
	fetch.FieldAssignedTo,
	fetch.FieldWorkItemType,
	fetch.FieldTags,
	fetch.FieldIterationPath,
	fetch.FieldAreaPath,
	fetch.FieldPriority,
}

// Querier is the subset of fetch.Client used for discovery.
type Querier interface {
	QueryIDs(ctx context.Context, wiql string) ([]int, error)
	GetBatch(ctx context.Context, ids []int, fields []string) ([]fetch.WorkItem, error)
	WebURL(id int) string
}

// Discoverer runs listing queries for one organization/project.
type Discoverer struct {
	cfg        core.Config
	client     Querier
	maxResults int
	l          log.Logger
}

// Option customizes a Discoverer.
type Option func(*Discoverer)

// WithMaxResults caps how many work items a query returns.
func WithMaxResults(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.maxResults = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.l = l
		}
	}
}

// New creates a Discoverer.
func New(cfg core.Config, client Querier, opts ...Option) *Discoverer {
	d := &Discoverer{
		cfg:        cfg,
		client:     client,
		maxResults: DefaultMaxResults,
		l:          log.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mine returns the caller's open work items.
// The list is ordered by priority.
func (d *Discoverer) Mine(ctx context.Context) ([]core.WorkItemSummary, error) {
	out, err := d.run(ctx, MineQuery)
	if err != nil {
		return nil, err
	}
	SortByPriority(out)
	return out, nil
}

// Search returns work items whose title contains text or whose id equals
// it, in query order. Empty text falls back to Mine.
func (d *Discoverer) Search(ctx context.Context, text string) ([]core.WorkItemSummary, error) {
	if strings.TrimSpace(text) == "" {
		return d.Mine(ctx)
	}
	return d.run(ctx, SearchQuery(text))
}

// MineIDs returns only the ids of the caller's open work items, in query
// order. Used for bulk extraction where summaries are not needed.
func (d *Discoverer) MineIDs(ctx context.Context) ([]int, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}
	return d.queryIDs(ctx, MineQuery)
}

func (d *Discoverer) run(ctx context.Context, wiql string) ([]core.WorkItemSummary, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	ids, err := d.queryIDs(ctx, wiql)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []core.WorkItemSummary{}, nil
	}

	items, err := d.client.GetBatch(ctx, ids, summaryFields)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]fetch.WorkItem, len(items))
	for _, wi := range items {
		byID[wi.ID] = wi
	}

	out := make([]core.WorkItemSummary, 0, len(ids))
	for _, id := range ids {
		wi, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, d.summary(wi))
	}

	d.l.Debugf(ctx, "discover: %d of %d ids resolved", len(out), len(ids))
	return out, nil
}

func (d *Discoverer) queryIDs(ctx context.Context, wiql string) ([]int, error) {
	raw, err := d.client.QueryIDs(ctx, wiql)
	if err != nil {
		return nil, fmt.Errorf("querying work items: %w", err)
	}
	q := NewQueue(d.maxResults)
	for _, id := range raw {
		if q.Full() {
			break
		}
		q.Add(id)
	}
	return q.All(), nil
}

func (d *Discoverer) summary(wi fetch.WorkItem) core.WorkItemSummary {
	assigned := wi.Fields.Identity(fetch.FieldAssignedTo)
	if assigned == "" {
		assigned = "Unassigned"
	}
	return core.WorkItemSummary{
		ID:         wi.ID,
		Title:      wi.Fields.String(fetch.FieldTitle),
		State:      wi.Fields.String(fetch.FieldState),
		AssignedTo: assigned,
		Type:       wi.Fields.String(fetch.FieldWorkItemType),
		Tags:       wi.Fields.Tags(),
		Iteration:  wi.Fields.String(fetch.FieldIterationPath),
		Area:       wi.Fields.String(fetch.FieldAreaPath),
		Priority:   wi.Fields.Int(fetch.FieldPriority),
		WebURL:     d.client.WebURL(wi.ID),
	}
}

// SortByPriority orders summaries by ascending priority; items without a
// priority, or priority 0, go last. The sort is stable, so query order breaks ties.
func SortByPriority(items []core.WorkItemSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		return priorityOf(items[i]) < priorityOf(items[j])
	})
}

func priorityOf(s core.WorkItemSummary) int {
	if s.Priority == nil || *s.Priority == 0 {
		return missingPriority
	}
	return *s.Priority
}
