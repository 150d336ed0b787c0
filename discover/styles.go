// Package discover — terminal list formatting.
package discover

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gaurav-prasanna/wipipe/core"
)

// Colors
var (
	colorBlue   = lipgloss.Color("#61AFEF")
	colorYellow = lipgloss.Color("#E5C07B")
	colorOrange = lipgloss.Color("#D19A66")
	colorGreen  = lipgloss.Color("#98C379")
	colorRed    = lipgloss.Color("#E06C75")
	colorMuted  = lipgloss.Color("#636B78")
)

var (
	idStyle = lipgloss.NewStyle().
		Foreground(colorMuted)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	areaStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	urlStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginLeft(8)
)

func stateColor(state string) lipgloss.Color {
	switch strings.ToLower(state) {
	case "active", "new":
		return colorBlue
	case "committed":
		return colorYellow
	case "in progress":
		return colorOrange
	case "done", "closed":
		return colorGreen
	default:
		return colorMuted
	}
}

// PriorityTag returns "P1".."P4" or "" when priority is unset.
func PriorityTag(p *int) string {
	if p == nil || *p == 0 {
		return ""
	}
	return fmt.Sprintf("P%d", *p)
}

func priorityStyle(p *int) lipgloss.Style {
	s := lipgloss.NewStyle()
	if p == nil {
		return s
	}
	switch *p {
	case 1:
		return s.Foreground(colorRed).Bold(true)
	case 2:
		return s.Foreground(colorOrange)
	case 3:
		return s.Foreground(colorYellow)
	default:
		return s.Foreground(colorMuted)
	}
}

// areaLeaf returns the last segment of an area path.
func areaLeaf(area string) string {
	if i := strings.LastIndex(area, `\`); i >= 0 {
		return area[i+1:]
	}
	return area
}

// FormatSummary renders one work item as a single styled line. Columns are
// padded before styling so escape codes do not skew the alignment.
func FormatSummary(s core.WorkItemSummary) string {
	line := idStyle.Render(fmt.Sprintf("%-8s", fmt.Sprintf("#%d", s.ID))) +
		fmt.Sprintf("%-12s", s.Type) + " " +
		lipgloss.NewStyle().Foreground(stateColor(s.State)).Render(fmt.Sprintf("%-12s", s.State)) + " " +
		priorityStyle(s.Priority).Render(fmt.Sprintf("%-3s", PriorityTag(s.Priority))) + " " +
		titleStyle.Render(s.Title)
	if leaf := areaLeaf(s.Area); leaf != "" {
		line += " " + areaStyle.Render("("+leaf+")")
	}
	return line
}

// WriteList prints every summary, optionally followed by its browser URL.
func WriteList(w io.Writer, items []core.WorkItemSummary, withURL bool) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No work items found")
		return err
	}
	for _, s := range items {
		if _, err := fmt.Fprintln(w, FormatSummary(s)); err != nil {
			return err
		}
		if withURL && s.WebURL != "" {
			if _, err := fmt.Fprintln(w, urlStyle.Render(s.WebURL)); err != nil {
				return err
			}
		}
	}
	return nil
}
