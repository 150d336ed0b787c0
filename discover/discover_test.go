package discover_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/fetch"
	"github.com/gaurav-prasanna/wipipe/discover"
)

var validConfig = core.Config{PAT: "pat", Organization: "org", Project: "proj"}

type fakeQuerier struct {
	ids      []int
	items    map[int]fetch.WorkItem
	queryErr error

	queries  []string
	batchIDs []int
	fields   []string
}

func (f *fakeQuerier) QueryIDs(_ context.Context, wiql string) ([]int, error) {
	f.queries = append(f.queries, wiql)
	return f.ids, f.queryErr
}

func (f *fakeQuerier) GetBatch(_ context.Context, ids []int, fields []string) ([]fetch.WorkItem, error) {
	f.batchIDs = ids
	f.fields = fields
	var out []fetch.WorkItem
	// Reverse order to prove results follow the query, not the batch.
	for i := len(ids) - 1; i >= 0; i-- {
		if wi, ok := f.items[ids[i]]; ok {
			out = append(out, wi)
		}
	}
	return out, nil
}

func (f *fakeQuerier) WebURL(id int) string {
	return "https://dev.azure.com/org/proj/_workitems/edit/" + jsonString(id)
}

func jsonString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func item(id int, fields map[string]any) fetch.WorkItem {
	f := fetch.Fields{}
	for k, v := range fields {
		f[k] = json.RawMessage(jsonString(v))
	}
	return fetch.WorkItem{ID: id, Fields: f}
}

func TestMineSortsByPriority(t *testing.T) {
	q := &fakeQuerier{
		ids: []int{10, 50, 20, 30, 40},
		items: map[int]fetch.WorkItem{
			10: item(10, map[string]any{fetch.FieldTitle: "no priority"}),
			20: item(20, map[string]any{fetch.FieldTitle: "p2", fetch.FieldPriority: 2}),
			30: item(30, map[string]any{fetch.FieldTitle: "p1", fetch.FieldPriority: 1}),
			40: item(40, map[string]any{fetch.FieldTitle: "p2 later", fetch.FieldPriority: 2}),
			50: item(50, map[string]any{fetch.FieldTitle: "p0", fetch.FieldPriority: 0}),
		},
	}

	got, err := discover.New(validConfig, q).Mine(context.Background())
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}

	var ids []int
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	if want := []int{30, 20, 40, 10, 50}; !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if len(q.queries) != 1 || q.queries[0] != discover.MineQuery {
		t.Errorf("queries = %q", q.queries)
	}
	if len(q.fields) != 9 {
		t.Errorf("batch fields = %v", q.fields)
	}
}

func TestSearchKeepsQueryOrder(t *testing.T) {
	q := &fakeQuerier{
		ids: []int{10, 20, 30},
		items: map[int]fetch.WorkItem{
			10: item(10, map[string]any{fetch.FieldTitle: "login p3", fetch.FieldPriority: 3}),
			20: item(20, map[string]any{fetch.FieldTitle: "login none"}),
			30: item(30, map[string]any{fetch.FieldTitle: "login p1", fetch.FieldPriority: 1}),
		},
	}

	got, err := discover.New(validConfig, q).Search(context.Background(), "login")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	var ids []int
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	if want := []int{10, 20, 30}; !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestSummaryFields(t *testing.T) {
	q := &fakeQuerier{
		ids: []int{1234},
		items: map[int]fetch.WorkItem{
			1234: item(1234, map[string]any{
				fetch.FieldTitle:         "Fix login bug",
				fetch.FieldState:         "Active",
				fetch.FieldWorkItemType:  "Bug",
				fetch.FieldTags:          "auth; web",
				fetch.FieldAreaPath:      `Shop\Web`,
				fetch.FieldIterationPath: `Shop\Sprint 3`,
			}),
		},
	}

	got, err := discover.New(validConfig, q).Search(context.Background(), "login")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := core.WorkItemSummary{
		ID:         1234,
		Title:      "Fix login bug",
		State:      "Active",
		AssignedTo: "Unassigned",
		Type:       "Bug",
		Tags:       []string{"auth", "web"},
		Iteration:  `Shop\Sprint 3`,
		Area:       `Shop\Web`,
		WebURL:     "https://dev.azure.com/org/proj/_workitems/edit/1234",
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0], want) {
		t.Errorf("Search() = %+v, want %+v", got, want)
	}
}

func TestSearchCapsAndDeduplicates(t *testing.T) {
	q := &fakeQuerier{ids: []int{1, 2, 2, 3, 4}}

	_, err := discover.New(validConfig, q, discover.WithMaxResults(3)).Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(q.batchIDs, want) {
		t.Errorf("batch ids = %v, want %v", q.batchIDs, want)
	}
}

func TestSearchEmptyTextFallsBackToMine(t *testing.T) {
	q := &fakeQuerier{}
	got, err := discover.New(validConfig, q).Search(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Search() = %v, want empty non-nil", got)
	}
	if len(q.queries) != 1 || q.queries[0] != discover.MineQuery {
		t.Errorf("queries = %q", q.queries)
	}
	if q.batchIDs != nil {
		t.Error("batch endpoint called for an empty result")
	}
}

func TestInvalidConfigMakesNoCalls(t *testing.T) {
	q := &fakeQuerier{}
	_, err := discover.New(core.Config{Organization: "org", Project: "proj"}, q).Mine(context.Background())

	var cfgErr *core.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "pat" {
		t.Fatalf("Mine() error = %v, want ConfigurationError for pat", err)
	}
	if len(q.queries) != 0 {
		t.Error("query issued despite invalid configuration")
	}
}

func TestQueryErrorKeepsType(t *testing.T) {
	q := &fakeQuerier{queryErr: &core.AuthenticationError{StatusCode: 401}}
	_, err := discover.New(validConfig, q).Mine(context.Background())

	var authErr *core.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("Mine() error = %v, want AuthenticationError", err)
	}
}

func TestMineIDs(t *testing.T) {
	q := &fakeQuerier{ids: []int{5, 5, 6}}
	got, err := discover.New(validConfig, q).MineIDs(context.Background())
	if err != nil {
		t.Fatalf("MineIDs() error = %v", err)
	}
	if want := []int{5, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("MineIDs() = %v, want %v", got, want)
	}
}

func TestWriteList(t *testing.T) {
	p := 1
	var buf bytes.Buffer
	err := discover.WriteList(&buf, []core.WorkItemSummary{{
		ID:       1234,
		Title:    "Fix login bug",
		State:    "Active",
		Type:     "Bug",
		Area:     `Shop\Web`,
		Priority: &p,
		WebURL:   "https://dev.azure.com/org/proj/_workitems/edit/1234",
	}}, true)
	if err != nil {
		t.Fatalf("WriteList() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"#1234", "Bug", "Active", "P1", "Fix login bug", "(Web)", "_workitems/edit/1234"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := discover.WriteList(&buf, nil, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No work items found\n" {
		t.Errorf("empty output = %q", buf.String())
	}
}
