package discover_test

import (
	"strings"
	"testing"

	"github.com/gaurav-prasanna/wipipe/discover"
)

func TestSearchQueryEscapesQuotes(t *testing.T) {
	q := discover.SearchQuery("can't login")
	if !strings.Contains(q, "[System.Title] CONTAINS 'can''t login' OR [System.Id] = 'can''t login'") {
		t.Errorf("SearchQuery() = %q", q)
	}
	if !strings.HasSuffix(q, "ORDER BY [System.ChangedDate] DESC") {
		t.Errorf("SearchQuery() order = %q", q)
	}
}

func TestMineQuery(t *testing.T) {
	for _, want := range []string{
		"[System.AssignedTo] = @Me",
		"NOT IN ('Done', 'Closed', 'Removed')",
		"ORDER BY [Microsoft.VSTS.Common.Priority], [System.ChangedDate] DESC",
	} {
		if !strings.Contains(discover.MineQuery, want) {
			t.Errorf("MineQuery missing %q", want)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"1234", 1234, true},
		{"#1234", 1234, true},
		{"  42 ", 42, true},
		{"https://dev.azure.com/org/proj/_workitems/edit/98765", 98765, true},
		{"please look at bug 4321 and 5678", 4321, true},
		{"version 1234567 only", 0, false},
		{"no ids here", 0, false},
		{"0", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := discover.ParseID(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseID(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestQueue(t *testing.T) {
	q := discover.NewQueue(2)
	if !q.Add(1) || q.Add(1) {
		t.Error("duplicate handling broken")
	}
	if !q.Add(2) || q.Add(3) {
		t.Error("cap not enforced")
	}
	if !q.Full() || q.Len() != 2 {
		t.Errorf("Full() = %v, Len() = %d", q.Full(), q.Len())
	}
}
