package fetch

import (
	"context"
	"fmt"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/images"
	"github.com/gaurav-prasanna/wipipe/core/normalize"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

const unknown = "Unknown"

// Fetcher builds a WorkItemRecord from the item, its comments and the images
// embedded in its rich-text fields. Calls run sequentially.
type Fetcher struct {
	cfg        core.Config
	client     *Client
	normalizer core.Normalizer
	resolver   *images.Resolver
	l          log.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithNormalizer replaces the rich-text normalizer (plain text by default).
func WithNormalizer(n core.Normalizer) Option {
	return func(f *Fetcher) {
		if n != nil {
			f.normalizer = n
		}
	}
}

// WithLogger sets the logger used for degradations.
func WithLogger(l log.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.l = l
		}
	}
}

// New creates a Fetcher for cfg using client for every call.
func New(cfg core.Config, client *Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg:        cfg,
		client:     client,
		normalizer: normalize.New(),
		l:          log.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	var downloader *images.Downloader
	if cfg.DownloadImages {
		downloader = images.NewDownloader(client, cfg.ImagesRoot())
	}
	f.resolver = images.NewResolver(f.normalizer, downloader, f.l)
	return f
}

// Fetch retrieves work item id. Configuration problems are reported before any
// request is made. The item call is load-bearing: its failures are returned as
// AuthenticationError, NotFoundError or TransportError. Comments and images
// are best-effort and only add Degradations to the record.
func (f *Fetcher) Fetch(ctx context.Context, id int) (*core.WorkItemRecord, error) {
	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, &core.ConfigurationError{Field: "id", Err: core.ErrInvalidID}
	}

	wi, err := f.client.GetWorkItem(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := &core.WorkItemRecord{
		ID:                 wi.ID,
		Title:              wi.Fields.String(FieldTitle),
		State:              wi.Fields.String(FieldState),
		Reason:             wi.Fields.String(FieldReason),
		AssignedTo:         wi.Fields.Identity(FieldAssignedTo),
		AreaPath:           wi.Fields.String(FieldAreaPath),
		IterationPath:      wi.Fields.String(FieldIterationPath),
		Priority:           wi.Fields.Int(FieldPriority),
		Severity:           wi.Fields.String(FieldSeverity),
		Tags:               wi.Fields.Tags(),
		Description:        wi.Fields.String(FieldDescription),
		AcceptanceCriteria: wi.Fields.String(FieldAcceptanceCriteria),
		WorkItemType:       wi.Fields.String(FieldWorkItemType),
		CreatedDate:        wi.Fields.String(FieldCreatedDate),
		ChangedDate:        wi.Fields.String(FieldChangedDate),
		RelatedItems:       []core.RelatedItem{},
		Attachments:        attachments(wi.Relations),
		Images:             []string{},
	}
	if rec.ID == 0 {
		rec.ID = id
	}

	rec.Comments = f.comments(ctx, rec)

	desc := f.resolver.Resolve(ctx, rec.Description, id)
	accept := f.resolver.Resolve(ctx, rec.AcceptanceCriteria, id)
	rec.DescriptionText = desc.Text
	rec.AcceptanceCriteriaText = accept.Text
	rec.Images = append(rec.Images, desc.LocalPaths...)
	rec.Images = append(rec.Images, accept.LocalPaths...)
	rec.Degradations = append(rec.Degradations, desc.Degradations()...)
	rec.Degradations = append(rec.Degradations, accept.Degradations()...)

	f.l.Infof(ctx, "fetch: work item #%d %q: %d comments, %d attachments, %d images, %d degradations",
		rec.ID, rec.Title, len(rec.Comments), len(rec.Attachments), len(rec.Images), len(rec.Degradations))
	return rec, nil
}

// comments is the best-effort branch: an erroring comment endpoint yields an
// empty list and a Degradation, never an error.
func (f *Fetcher) comments(ctx context.Context, rec *core.WorkItemRecord) []core.Comment {
	items, err := f.client.GetComments(ctx, rec.ID)
	if err != nil {
		f.l.Warnf(ctx, "fetch: work item #%d: comments unavailable: %v", rec.ID, err)
		rec.Degradations = append(rec.Degradations, core.Degradation{
			Stage:  "comments",
			Target: fmt.Sprintf("#%d", rec.ID),
			Err:    err,
		})
		return []core.Comment{}
	}

	comments := make([]core.Comment, 0, len(items))
	for _, c := range items {
		author := unknown
		if c.CreatedBy != nil && c.CreatedBy.DisplayName != "" {
			author = c.CreatedBy.DisplayName
		}
		comments = append(comments, core.Comment{
			Author:    author,
			Timestamp: c.CreatedDate,
			Text:      normalize.StripHTML(c.Text),
		})
	}
	return comments
}

// attachments keeps the relations that are attached files, in relation order.
func attachments(relations []Relation) []core.Attachment {
	out := []core.Attachment{}
	for _, r := range relations {
		if r.Rel != RelAttachedFile {
			continue
		}
		name := r.Attributes.Name
		if name == "" {
			name = unknown
		}
		out = append(out, core.Attachment{Name: name, URL: r.URL})
	}
	return out
}
