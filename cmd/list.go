// Package cmd — list command.
// Prints your open work items, or the result of a title/id search, one per
// line ordered by priority.
package cmd

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/wipipe/discover"
)

var (
	flagListJSON   bool
	flagListURLs   bool
	flagMaxResults int
)

var listCmd = &cobra.Command{
	Use:   "list [search text]",
	Short: "List your open work items or search by title or id",
	Long: `List runs a work item query and prints a summary line per item.

Without arguments it lists open items assigned to you. With arguments the
text is matched against titles (contains) and ids (equals).

Examples:
  wipipe list
  wipipe list login bug
  wipipe list 1234 --urls
  wipipe list --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "Print summaries as JSON")
	listCmd.Flags().BoolVar(&flagListURLs, "urls", false, "Print the browser URL under each item")
	listCmd.Flags().IntVar(&flagMaxResults, "max_results", discover.DefaultMaxResults, "Maximum number of work items")
}

func runList(cmd *cobra.Command, args []string) error {
	d := newDiscoverer(appConfig, newClient(appConfig))

	items, err := d.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	if flagListJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	return discover.WriteList(os.Stdout, items, flagListURLs)
}
