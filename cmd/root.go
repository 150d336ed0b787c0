// Package cmd implements the CLI commands for wipipe using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/wipipe/config"
	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/fetch"
	"github.com/gaurav-prasanna/wipipe/core/normalize"
	"github.com/gaurav-prasanna/wipipe/discover"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

// Persistent flag variables.
var (
	flagConfig       string
	flagPAT          string
	flagOrganization string
	flagProject      string
	flagBaseURL      string
	flagLogLevel     string
)

// Resolved by the root PersistentPreRunE before any subcommand runs.
var (
	appConfig *config.Config
	logger    log.Logger = log.NewNop()
)

// flagKeys binds flag names to configuration keys. Flags a command does not
// define are skipped.
var flagKeys = map[string]string{
	"pat":             "azure_devops.pat",
	"organization":    "azure_devops.organization",
	"project":         "azure_devops.project",
	"base_url":        "azure_devops.base_url",
	"log_level":       "logger.level",
	"download_images": "images.download",
	"images_dir":      "images.dir",
	"rich_text":       "rich_text",
	"max_results":     "search.max_results",
	"port":            "server.port",
}

var rootCmd = &cobra.Command{
	Use:   "wipipe",
	Short: "wipipe — turn Azure DevOps work items into Markdown",
	Long: `wipipe fetches Azure DevOps work items (fields, comments, attachments and
embedded images) and renders them as a self-contained Markdown document,
or as JSON, HTML, PDF or embeddings.

Usage:
  wipipe extract <id> [flags]
  wipipe list [search text]
  wipipe serve`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: wipipe.yaml in ., ./config or ~/.config/wipipe)")
	pf.StringVar(&flagPAT, "pat", "", "Personal access token (prefer "+config.PATEnv+")")
	pf.StringVar(&flagOrganization, "organization", "", "Azure DevOps organization")
	pf.StringVar(&flagProject, "project", "", "Azure DevOps project")
	pf.StringVar(&flagBaseURL, "base_url", "", "Service base URL (default "+core.DefaultBaseURL+")")
	pf.StringVar(&flagLogLevel, "log_level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("binding flags: %w", bindErr)
	}

	cfg, err := config.Load(v, flagConfig)
	if err != nil {
		return err
	}
	appConfig = cfg
	logger = log.Init(cfg.Logger)
	return nil
}

// newClient builds the API client shared by every call of a run.
func newClient(cfg *config.Config) *fetch.Client {
	return fetch.NewClient(cfg.Core(),
		fetch.WithRateLimit(cfg.AzureDevOps.RateLimit),
		fetch.WithClientLogger(logger),
	)
}

func newFetcher(cfg *config.Config, client *fetch.Client) *fetch.Fetcher {
	return fetch.New(cfg.Core(), client,
		fetch.WithNormalizer(normalize.ByName(cfg.RichText)),
		fetch.WithLogger(logger),
	)
}

func newDiscoverer(cfg *config.Config, client *fetch.Client) *discover.Discoverer {
	return discover.New(cfg.Core(), client,
		discover.WithMaxResults(cfg.Search.MaxResults),
		discover.WithLogger(logger),
	)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
