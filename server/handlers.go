package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/pipeline"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

// RequestIDHeader carries the per-request id on every response.
const RequestIDHeader = "X-Request-ID"

var contentTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".pdf":  "application/pdf",
}

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (srv *Server) mapHandlers() {
	srv.gin.Use(gin.Recovery(), srv.requestID())

	srv.gin.GET("/healthz", srv.healthz)
	srv.gin.GET("/workitems", srv.searchWorkItems)
	srv.gin.GET("/workitems/:id", srv.getWorkItem)
}

// requestID tags each request with a uuid, echoed in the response header
// and used as the log run id.
func (srv *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(log.WithRunID(c.Request.Context(), id))
		c.Next()
	}
}

func (srv *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (srv *Server) getWorkItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResp{Error: "work item id must be a positive integer", Kind: "invalid_id"})
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "markdown"))
	renderer, ok := srv.renderers[format]
	if !ok {
		c.JSON(http.StatusBadRequest, errorResp{
			Error: "unsupported format " + strconv.Quote(format) + ", want one of " + strings.Join(srv.formats(), ", "),
			Kind:  "invalid_format",
		})
		return
	}

	res := pipeline.New(srv.fetcher, renderer, pipeline.WithLogger(srv.l)).Extract(c.Request.Context(), id)
	if res.Err != nil {
		srv.writeError(c, res.Err)
		return
	}

	ct, ok := contentTypes[renderer.Extension()]
	if !ok {
		ct = "application/octet-stream"
	}
	c.Data(http.StatusOK, ct, res.Data)
}

func (srv *Server) searchWorkItems(c *gin.Context) {
	items, err := srv.searcher.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		srv.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

func (srv *Server) writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		srv.l.Errorf(c.Request.Context(), "server: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, errorResp{Error: err.Error(), Kind: kind})
}

// classify maps the error taxonomy to an HTTP status. Upstream failures are
// reported as 502 since the caller's request itself was fine.
func classify(err error) (int, string) {
	var (
		cfgErr       *core.ConfigurationError
		authErr      *core.AuthenticationError
		notFoundErr  *core.NotFoundError
		transportErr *core.TransportError
	)
	switch {
	case errors.Is(err, core.ErrInvalidID):
		return http.StatusBadRequest, "invalid_id"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "configuration"
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "authentication"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, "transport"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (srv *Server) formats() []string {
	out := make([]string, 0, len(srv.renderers))
	for f := range srv.renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
