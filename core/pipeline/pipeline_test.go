package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/images"
	"github.com/gaurav-prasanna/wipipe/core/pipeline"
	"github.com/gaurav-prasanna/wipipe/core/render"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

type stubFetcher struct {
	records map[int]*core.WorkItemRecord
	calls   []int
	runIDs  []string
}

func (s *stubFetcher) Fetch(ctx context.Context, id int) (*core.WorkItemRecord, error) {
	s.calls = append(s.calls, id)
	s.runIDs = append(s.runIDs, log.RunID(ctx))
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return nil, &core.NotFoundError{ID: id}
}

func TestExtractAllContinuesPastFailures(t *testing.T) {
	f := &stubFetcher{records: map[int]*core.WorkItemRecord{
		1: {ID: 1, Title: "first"},
		3: {ID: 3, Title: "third"},
	}}
	e := pipeline.New(f, render.NewMarkdownRenderer())

	results := e.ExtractAll(context.Background(), []int{1, 2, 3})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	var nf *core.NotFoundError
	if !errors.As(results[1].Err, &nf) || nf.ID != 2 {
		t.Errorf("results[1].Err = %v, want NotFoundError for 2", results[1].Err)
	}
	for _, i := range []int{0, 2} {
		if results[i].Err != nil {
			t.Errorf("results[%d].Err = %v", i, results[i].Err)
		}
		if !strings.HasPrefix(string(results[i].Data), "# Work Item #") {
			t.Errorf("results[%d].Data = %q", i, results[i].Data)
		}
	}

	if f.runIDs[0] == "" || f.runIDs[0] == f.runIDs[1] {
		t.Errorf("run ids not unique per item: %q", f.runIDs)
	}
}

func TestExtractAllStopsFetchingOnCancel(t *testing.T) {
	f := &stubFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pipeline.New(f, render.NewMarkdownRenderer()).ExtractAll(ctx, []int{1, 2})
	if len(f.calls) != 0 {
		t.Errorf("fetch called %d times after cancel", len(f.calls))
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", r.Err)
		}
	}
}

func TestExtractMarkdown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/org/proj/_apis/wit/workitems/1234", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1234,
			"fields": map[string]any{
				"System.Title":       "Fix login bug",
				"System.State":       "Active",
				"System.Description": "<p>See&nbsp;attached</p>",
			},
			"relations": []map[string]any{
				{"rel": "AttachedFile", "url": "https://files/log.txt", "attributes": map[string]any{"name": "log.txt"}},
			},
		})
	})
	mux.HandleFunc("/org/proj/_apis/wit/workitems/1234/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"comments":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := core.Config{PAT: "pat", Organization: "org", Project: "proj", BaseURL: srv.URL}
	md, err := pipeline.ExtractMarkdown(context.Background(), 1234, cfg)
	if err != nil {
		t.Fatalf("ExtractMarkdown() error = %v", err)
	}
	for _, want := range []string{
		"# Work Item #1234: Fix login bug",
		"## Description\nSee attached\n",
		"## Comments (0)\nNo comments",
		"## Attachments (1)\n- [log.txt](https://files/log.txt)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("document missing %q:\n%s", want, md)
		}
	}
}

func TestExtractMarkdownConfigurationError(t *testing.T) {
	_, err := pipeline.ExtractMarkdown(context.Background(), 1234, core.Config{Organization: "org", Project: "proj"})
	var cfgErr *core.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}

func TestExtractMarkdownDownloadsWithoutImagesDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	mux := http.NewServeMux()
	mux.HandleFunc("/org/proj/_apis/wit/attachments/abc-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	})
	mux.HandleFunc("/org/proj/_apis/wit/workitems/1234/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"comments":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	img := srv.URL + "/org/proj/_apis/wit/attachments/abc-1?fileName=a.png"
	mux.HandleFunc("/org/proj/_apis/wit/workitems/1234", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1234,
			"fields": map[string]any{
				"System.Title":       "Fix login bug",
				"System.Description": `<p>Screen</p><img src="` + img + `">`,
			},
		})
	})

	cfg := core.Config{PAT: "pat", Organization: "org", Project: "proj", BaseURL: srv.URL, DownloadImages: true}
	md, err := pipeline.ExtractMarkdown(context.Background(), 1234, cfg)
	if err != nil {
		t.Fatalf("ExtractMarkdown() error = %v", err)
	}

	local := filepath.Join(images.ItemDir(core.DefaultImagesDir(), 1234), "attachment_abc-1.png")
	if !strings.Contains(md, "![attachment_abc-1.png]("+local+")") {
		t.Errorf("document does not reference %s:\n%s", local, md)
	}
	if data, err := os.ReadFile(local); err != nil || string(data) != "png" {
		t.Errorf("ReadFile(%s) = %q, %v", local, data, err)
	}
}
