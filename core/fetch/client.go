// Package fetch talks to the work item tracking REST API and assembles
// normalized work item records.
//
// Client is the transport: authentication, status mapping and JSON decoding.
// Fetcher orchestrates the calls needed for one work item.
package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

const (
	apiVersion         = "7.0"
	commentsAPIVersion = "7.0-preview"
	defaultUserAgent   = "wipipe/1.0 (https://github.com/gaurav-prasanna/wipipe)"
	maxErrorBody       = 512
)

// Client performs authenticated requests against one organization/project.
// No request timeout is set; the transport default applies.
type Client struct {
	apiBase    string
	authHost   string
	pat        string
	httpClient *http.Client
	limiter    *rate.Limiter
	l          log.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithClientLogger sets the logger used for request tracing.
func WithClientLogger(l log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

// NewClient creates a Client for cfg. It does not validate cfg; Fetcher does
// that before the first request.
func NewClient(cfg core.Config, opts ...ClientOption) *Client {
	c := &Client{
		apiBase:    cfg.APIBase(),
		pat:        cfg.PAT,
		httpClient: &http.Client{},
		l:          log.NewNop(),
	}
	if u, err := url.Parse(c.apiBase); err == nil {
		c.authHost = u.Host
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WebURL returns the browser URL of a work item.
func (c *Client) WebURL(id int) string {
	return fmt.Sprintf("%s/_workitems/edit/%d", c.apiBase, id)
}

// basicAuth encodes the PAT as HTTP Basic credentials with an empty username.
func basicAuth(pat string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+pat))
}

// request describes one API call.
type request struct {
	op     string
	method string
	url    string
	body   any
	itemID int // work item the call is about; 404 maps to NotFoundError when set
}

// do executes req and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return &core.TransportError{Op: req.op, Err: fmt.Errorf("marshaling request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.send(ctx, req.op, req.method, req.url, body, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := classify(req.op, req.itemID, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.TransportError{Op: req.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// Download performs a raw GET on an attachment or image URL. Credentials are
// only sent to the API host.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "download image"

	resp, err := c.send(ctx, op, http.MethodGet, rawURL, nil, c.sameHost(rawURL))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// A 203 sign-in page is not image data.
	if err := classify(op, 0, resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, op, method, rawURL string, body io.Reader, auth bool) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &core.TransportError{Op: op, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if auth {
		httpReq.Header.Set("Authorization", basicAuth(c.pat))
	}

	c.l.Debugf(ctx, "fetch: %s %s", method, rawURL)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) sameHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, c.authHost)
}

// classify maps a non-success response onto the error taxonomy. Azure DevOps
// answers a rejected PAT with either 401 or a 203 sign-in page.
func classify(op string, itemID int, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNonAuthoritativeInfo:
		return &core.AuthenticationError{StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound && itemID > 0:
		return &core.NotFoundError{ID: itemID}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var err error
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			err = errors.New(msg)
		}
		return &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}
