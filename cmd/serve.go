// Package cmd — serve command.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/wipipe/server"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve work item extraction over HTTP",
	Long: `Serve starts an HTTP server exposing:

  GET /healthz
  GET /workitems/:id?format=markdown|json|html
  GET /workitems?q=text`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&flagPort, "port", 8080, "Listen port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Fail on a bad configuration now rather than on the first request.
	if err := appConfig.Core().Validate(); err != nil {
		return err
	}

	client := newClient(appConfig)
	srv, err := server.New(logger, server.Config{
		Port:     appConfig.Server.Port,
		Mode:     appConfig.Server.Mode,
		Fetcher:  newFetcher(appConfig, client),
		Searcher: newDiscoverer(appConfig, client),
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
