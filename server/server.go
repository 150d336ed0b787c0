// Package server exposes work item extraction over HTTP for host
// applications that prefer a local endpoint to shelling out to the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/render"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

const shutdownTimeout = 10 * time.Second

// Searcher lists work item summaries.
type Searcher interface {
	Search(ctx context.Context, text string) ([]core.WorkItemSummary, error)
}

// Server holds the HTTP dependencies.
type Server struct {
	gin       *gin.Engine
	l         log.Logger
	port      int
	fetcher   core.Fetcher
	searcher  Searcher
	renderers map[string]core.Renderer
}

// Config is the dependency bag passed to New.
type Config struct {
	Port     int
	Mode     string // gin mode: debug, release or test
	Fetcher  core.Fetcher
	Searcher Searcher
	// Renderers maps a ?format= value to its renderer. Defaults to
	// markdown, json and html.
	Renderers map[string]core.Renderer
}

// New creates a Server with its routes registered.
func New(l log.Logger, cfg Config) (*Server, error) {
	if l == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if cfg.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	renderers := cfg.Renderers
	if len(renderers) == 0 {
		md := render.NewMarkdownRenderer()
		renderers = map[string]core.Renderer{
			"markdown": md,
			"json":     render.NewJSONRenderer(),
			"html":     render.NewHTMLRenderer(md),
		}
	}

	srv := &Server{
		gin:       gin.New(),
		l:         l,
		port:      cfg.Port,
		fetcher:   cfg.Fetcher,
		searcher:  cfg.Searcher,
		renderers: renderers,
	}
	srv.mapHandlers()
	return srv, nil
}

// Handler returns the root http.Handler.
func (srv *Server) Handler() http.Handler {
	return srv.gin
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", srv.port),
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.l.Infof(ctx, "server: listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.l.Infof(ctx, "server: shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
