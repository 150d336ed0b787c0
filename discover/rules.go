// Package discover — WIQL query builders and id parsing.
// Search text is embedded in a WIQL string literal, so single quotes are
// doubled before interpolation.
package discover

import (
	"regexp"
	"strconv"
	"strings"
)

const summaryColumns = "[System.Id], [System.Title], [System.State], [System.AssignedTo], " +
	"[System.WorkItemType], [System.Tags], [System.IterationPath], [System.AreaPath], " +
	"[Microsoft.VSTS.Common.Priority]"

// MineQuery selects the caller's work items that are still open, most
// important first.
const MineQuery = "SELECT " + summaryColumns + " FROM WorkItems" +
	" WHERE [System.AssignedTo] = @Me AND [System.State] NOT IN ('Done', 'Closed', 'Removed')" +
	" ORDER BY [Microsoft.VSTS.Common.Priority], [System.ChangedDate] DESC"

var idRegex = regexp.MustCompile(`\b\d{4,6}\b`)

// SearchQuery matches work items whose title contains text or whose id
// equals it, most recently changed first.
func SearchQuery(text string) string {
	lit := escapeLiteral(strings.TrimSpace(text))
	return "SELECT " + summaryColumns + " FROM WorkItems" +
		" WHERE [System.Title] CONTAINS '" + lit + "' OR [System.Id] = '" + lit + "'" +
		" ORDER BY [System.ChangedDate] DESC"
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// ParseID extracts a work item id from free text: a bare number, "#1234",
// a work item URL or a pasted sentence. The first standalone 4 to 6 digit
// number wins; plain numbers of any length are accepted as-is.
func ParseID(text string) (int, bool) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	if id, err := strconv.Atoi(text); err == nil {
		return id, id > 0
	}
	m := idRegex.FindString(text)
	if m == "" {
		return 0, false
	}
	id, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return id, true
}
