package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
)

// Work item field reference names.
const (
	FieldID                 = "System.Id"
	FieldTitle              = "System.Title"
	FieldState              = "System.State"
	FieldReason             = "System.Reason"
	FieldAssignedTo         = "System.AssignedTo"
	FieldAreaPath           = "System.AreaPath"
	FieldIterationPath      = "System.IterationPath"
	FieldWorkItemType       = "System.WorkItemType"
	FieldTags               = "System.Tags"
	FieldDescription        = "System.Description"
	FieldCreatedDate        = "System.CreatedDate"
	FieldChangedDate        = "System.ChangedDate"
	FieldPriority           = "Microsoft.VSTS.Common.Priority"
	FieldSeverity           = "Microsoft.VSTS.Common.Severity"
	FieldAcceptanceCriteria = "Microsoft.VSTS.Common.AcceptanceCriteria"
)

// RelAttachedFile is the relation kind of a file attachment.
const RelAttachedFile = "AttachedFile"

// Fields holds the raw field values of a work item keyed by reference name.
type Fields map[string]json.RawMessage

// String returns a string field, or "" when absent or not a string.
func (f Fields) String(name string) string {
	var s string
	if raw, ok := f[name]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Identity returns the display name of an identity field, falling back to the
// unique name.
func (f Fields) Identity(name string) string {
	raw, ok := f[name]
	if !ok {
		return ""
	}
	var ref IdentityRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return ""
	}
	if ref.DisplayName != "" {
		return ref.DisplayName
	}
	return ref.UniqueName
}

// Int returns a numeric field, or nil when absent or not a whole number.
func (f Fields) Int(name string) *int {
	raw, ok := f[name]
	if !ok {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil || n != math.Trunc(n) {
		return nil
	}
	v := int(n)
	return &v
}

// Tags splits the semicolon-delimited tag field, keeping source order.
func (f Fields) Tags() []string {
	tags := []string{}
	for _, t := range strings.Split(f.String(FieldTags), ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// IdentityRef is a user reference.
type IdentityRef struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

// Relation is a link from a work item to another resource.
type Relation struct {
	Rel        string `json:"rel"`
	URL        string `json:"url"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

// WorkItem is the API representation of a work item.
type WorkItem struct {
	ID        int        `json:"id"`
	Fields    Fields     `json:"fields"`
	Relations []Relation `json:"relations"`
}

// CommentItem is a single comment as returned by the API.
type CommentItem struct {
	Text        string       `json:"text"`
	CreatedDate string       `json:"createdDate"`
	CreatedBy   *IdentityRef `json:"createdBy"`
}

type commentsResponse struct {
	Comments []CommentItem `json:"comments"`
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type batchRequest struct {
	IDs    []int    `json:"ids"`
	Fields []string `json:"fields,omitempty"`
}

type batchResponse struct {
	Value []WorkItem `json:"value"`
}

// GetWorkItem retrieves a work item with all fields and relations expanded.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*WorkItem, error) {
	var wi WorkItem
	err := c.do(ctx, request{
		op:     "get work item",
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/_apis/wit/workitems/%d?api-version=%s&$expand=All", c.apiBase, id, apiVersion),
		itemID: id,
	}, &wi)
	if err != nil {
		return nil, err
	}
	return &wi, nil
}

// GetComments retrieves the comments of a work item in API order. Only the
// first page is read.
func (c *Client) GetComments(ctx context.Context, id int) ([]CommentItem, error) {
	var resp commentsResponse
	err := c.do(ctx, request{
		op:     "get comments",
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/_apis/wit/workitems/%d/comments?api-version=%s", c.apiBase, id, commentsAPIVersion),
		itemID: id,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// QueryIDs runs a WIQL query and returns the matching ids in result order.
func (c *Client) QueryIDs(ctx context.Context, wiql string) ([]int, error) {
	var resp wiqlResponse
	err := c.do(ctx, request{
		op:     "run query",
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/_apis/wit/wiql?api-version=%s", c.apiBase, apiVersion),
		body:   wiqlRequest{Query: wiql},
	}, &resp)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(resp.WorkItems))
	for _, wi := range resp.WorkItems {
		ids = append(ids, wi.ID)
	}
	return ids, nil
}

// GetBatch retrieves the listed fields for a set of work items.
func (c *Client) GetBatch(ctx context.Context, ids []int, fields []string) ([]WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resp batchResponse
	err := c.do(ctx, request{
		op:     "get work items batch",
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/_apis/wit/workitemsbatch?api-version=%s", c.apiBase, apiVersion),
		body:   batchRequest{IDs: ids, Fields: fields},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}
