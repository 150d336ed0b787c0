// Package cmd — extract command.
// This is the main command that orchestrates the pipeline:
// fetch → normalize → resolve images → render → write.
//
// It handles flag validation, renderer selection, id parsing and --mine.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/core/output"
	"github.com/gaurav-prasanna/wipipe/core/pipeline"
	"github.com/gaurav-prasanna/wipipe/core/render"
	"github.com/gaurav-prasanna/wipipe/discover"
)

// Flag variables.
var (
	flagMine           bool
	flagPDF            bool
	flagMarkdown       bool
	flagJSON           bool
	flagHTML           bool
	flagEmbeddings     bool
	flagModel          string
	flagChunkSize      int
	flagOllamaURL      string
	flagOutputDir      string
	flagDownloadImages bool
	flagImagesDir      string
	flagRichText       string
)

var extractCmd = &cobra.Command{
	Use:   "extract <id|text>...",
	Short: "Extract work items to Markdown or another format",
	Long: `Extract fetches a work item with its comments and attachments, normalizes
the rich-text fields and renders the result (Markdown by default).

Each argument is a work item id or any text containing one: "#1234", a work
item URL or a pasted sentence. The first 4 to 6 digit number is used.

Examples:
  wipipe extract 1234
  wipipe extract https://dev.azure.com/contoso/Shop/_workitems/edit/1234 --json
  wipipe extract 1234 5678 --output_dir ./items
  wipipe extract --mine --pdf --output_dir ./items
  wipipe extract 1234 --download_images --images_dir ./images
  wipipe extract 1234 --embeddings --model nomic-embed-text`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&flagMine, "mine", false, "Extract every open work item assigned to you")

	// Output format flags (mutually exclusive).
	extractCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown (default)")
	extractCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")
	extractCmd.Flags().BoolVar(&flagHTML, "html", false, "Output HTML")
	extractCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	extractCmd.Flags().BoolVar(&flagEmbeddings, "embeddings", false, "Output embeddings")

	// Embedding-specific flags.
	extractCmd.Flags().StringVar(&flagModel, "model", "", "Embedding model (required with --embeddings)")
	extractCmd.Flags().IntVar(&flagChunkSize, "chunk_size", 512, "Word chunk size for embeddings")
	extractCmd.Flags().StringVar(&flagOllamaURL, "ollama_url", render.DefaultOllamaURL, "Ollama embeddings endpoint")

	extractCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: stdout for a single text document)")

	// Rich-text handling.
	extractCmd.Flags().BoolVar(&flagDownloadImages, "download_images", false, "Download embedded images and link local copies")
	extractCmd.Flags().StringVar(&flagImagesDir, "images_dir", "", "Root directory for downloaded images")
	extractCmd.Flags().StringVar(&flagRichText, "rich_text", "plain", "Rich-text rendering: plain or markdown (markdown keeps images inline)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := validateExtractFlags(args); err != nil {
		return err
	}

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := newClient(appConfig)
	if flagMine {
		mine, err := newDiscoverer(appConfig, client).MineIDs(ctx)
		if err != nil {
			return err
		}
		if len(mine) == 0 {
			fmt.Fprintln(os.Stderr, "No open work items assigned to you")
			return nil
		}
		ids = mine
	}

	extractor := pipeline.New(newFetcher(appConfig, client), renderer, pipeline.WithLogger(logger))

	if toStdout(len(ids), renderer) {
		res := extractor.Extract(ctx, ids[0])
		if res.Err != nil {
			return res.Err
		}
		_, err := os.Stdout.Write(res.Data)
		return err
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	return writeResults(os.Stdout, os.Stderr, writer, renderer, extractor.ExtractAll(ctx, ids))
}

// toStdout reports whether a single text document should be printed instead
// of written to a file.
func toStdout(n int, r core.Renderer) bool {
	if n != 1 || flagOutputDir != "" {
		return false
	}
	switch r.Extension() {
	case ".md", ".json", ".html":
		return true
	default:
		return false
	}
}

// writeResults stores every successful result and reports failures. A run
// with any failed item returns an error once every item has been tried.
func writeResults(stdout, stderr io.Writer, writer *output.Writer, r core.Renderer, results []pipeline.Result) error {
	var errCount int
	for i, res := range results {
		prefix := fmt.Sprintf("[%d/%d] #%d", i+1, len(results), res.ID)
		if res.Err != nil {
			fmt.Fprintf(stderr, "%s ✗ Error: %v\n", prefix, res.Err)
			errCount++
			continue
		}
		path, err := writer.Write(res.ID, res.Data, r.Extension())
		if err != nil {
			fmt.Fprintf(stderr, "%s ✗ Write error: %v\n", prefix, err)
			errCount++
			continue
		}
		fmt.Fprintf(stdout, "%s ✓ Written: %s\n", prefix, path)
		if len(res.Record.Degradations) > 0 {
			fmt.Fprintf(stderr, "%s ! %d best-effort step(s) degraded\n", prefix, len(res.Record.Degradations))
		}
	}
	if errCount > 0 {
		return fmt.Errorf("%d/%d work items failed", errCount, len(results))
	}
	return nil
}

// parseIDs turns each argument into a work item id.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, ok := discover.ParseID(arg)
		if !ok {
			return nil, fmt.Errorf("no work item id found in %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validateExtractFlags checks that at most one output format is chosen and
// that ids and --mine are not combined.
func validateExtractFlags(args []string) error {
	if flagMine && len(args) > 0 {
		return errors.New("--mine cannot be combined with work item ids")
	}
	if !flagMine && len(args) == 0 {
		return errors.New("at least one work item id is required (or use --mine)")
	}

	formatCount := 0
	for _, set := range []bool{flagMarkdown, flagJSON, flagHTML, flagPDF, flagEmbeddings} {
		if set {
			formatCount++
		}
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	// --model is required with --embeddings.
	if flagEmbeddings && flagModel == "" {
		return errors.New("--model is required when using --embeddings")
	}

	switch flagRichText {
	case "plain", "markdown":
	default:
		return fmt.Errorf("--rich_text must be plain or markdown, got %q", flagRichText)
	}
	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	md := render.NewMarkdownRenderer()
	switch {
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagHTML:
		return render.NewHTMLRenderer(md), nil
	case flagPDF:
		return render.NewPDFRenderer(md), nil
	case flagEmbeddings:
		return render.NewEmbeddingsRenderer(md, render.NewOllamaEmbedder(flagOllamaURL), flagModel, flagChunkSize), nil
	default:
		return md, nil
	}
}
