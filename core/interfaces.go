// Package core defines the pipeline types and interfaces for wipipe.
// Each stage of the fetch → normalize → render pipeline is a small interface
// so it can be swapped or mocked in isolation.
package core

import "context"

// Comment is a single discussion entry on a work item.
type Comment struct {
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"` // HTML already stripped
}

// RelatedItem is a linked work item. Relation traversal is not performed, so
// records always carry an empty list.
type RelatedItem struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Attachment is a file attached to a work item.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DownloadedImage pairs an embedded image URL with the local file it was
// written to.
type DownloadedImage struct {
	RemoteURL string `json:"remote_url"`
	LocalPath string `json:"local_path"`
}

// Degradation records a best-effort step that failed without aborting the
// extraction (an unreachable comment endpoint, an image that could not be
// downloaded).
type Degradation struct {
	Stage  string `json:"stage"`
	Target string `json:"target"`
	Err    error  `json:"-"`
}

// WorkItemRecord is the fully normalized view of a single work item.
// It is built by one fetch and discarded after rendering.
type WorkItemRecord struct {
	ID                     int           `json:"id"`
	Title                  string        `json:"title"`
	State                  string        `json:"state"`
	Reason                 string        `json:"reason"`
	AssignedTo             string        `json:"assigned_to"`
	AreaPath               string        `json:"area_path"`
	IterationPath          string        `json:"iteration_path"`
	Priority               *int          `json:"priority,omitempty"`
	Severity               string        `json:"severity"`
	Tags                   []string      `json:"tags"`
	Description            string        `json:"-"`
	DescriptionText        string        `json:"description"`
	AcceptanceCriteria     string        `json:"-"`
	AcceptanceCriteriaText string        `json:"acceptance_criteria"`
	WorkItemType           string        `json:"work_item_type"`
	CreatedDate            string        `json:"created_date"`
	ChangedDate            string        `json:"changed_date"`
	Comments               []Comment     `json:"comments"`
	RelatedItems           []RelatedItem `json:"related_items"`
	Attachments            []Attachment  `json:"attachments"`
	Images                 []string      `json:"images"`
	Degradations           []Degradation `json:"-"`
}

// WorkItemSummary is the short form of a work item returned by list queries.
type WorkItemSummary struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	State      string   `json:"state"`
	AssignedTo string   `json:"assigned_to"`
	Type       string   `json:"type"`
	Tags       []string `json:"tags"`
	Iteration  string   `json:"iteration"`
	Area       string   `json:"area"`
	Priority   *int     `json:"priority,omitempty"`
	WebURL     string   `json:"web_url"`
}

// Fetcher retrieves a work item and normalizes its rich-text fields.
type Fetcher interface {
	Fetch(ctx context.Context, id int) (*WorkItemRecord, error)
}

// Normalizer converts a rich-text HTML field into display text.
type Normalizer interface {
	Normalize(html string) string
}

// ImageInliner is implemented by normalizers whose output keeps image
// references where they appear, as Markdown "![alt](url)".
type ImageInliner interface {
	InlinesImages() bool
}

// Renderer converts a work item record into a final output format.
type Renderer interface {
	Render(ctx context.Context, rec *WorkItemRecord) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}

// Embedder generates a vector embedding for a text input.
type Embedder interface {
	Embed(ctx context.Context, text string, model string) ([]float64, error)
}
