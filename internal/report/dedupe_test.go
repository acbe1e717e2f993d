package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sqlreview/pkg/models"
)

func TestDedupeIssuesFirstWins(t *testing.T) {
	dup := models.Issue{
		RuleID:   strPtr("R4_DELETE_NO_WHERE"),
		Severity: "ERROR",
		Message:  "full-table delete",
		Line:     intPtr(1),
		Column:   models.ColumnAt(1),
		Source:   models.SourceStaticAnalyzer,
	}
	other := models.Issue{Severity: "unlabeled", Message: "different"}

	got := DedupeIssues([]models.Issue{dup, other, dup})
	want := []models.Issue{dup, other}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeIssuesDetailKeyOrderInsensitive(t *testing.T) {
	a := models.Issue{Message: "m", Details: []map[string]interface{}{{"rule": "R1", "hits": 2.0}}}
	b := models.Issue{Message: "m", Details: []map[string]interface{}{{"hits": 2.0, "rule": "R1"}}}

	got := DedupeIssues([]models.Issue{a, b})
	if len(got) != 1 {
		t.Errorf("got %d issues, want 1: detail maps with equal content must collapse", len(got))
	}
}

func TestDedupeIssuesValueDifferencesKept(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Issue
	}{
		{
			name: "messages differ",
			a:    models.Issue{Message: "one"},
			b:    models.Issue{Message: "two"},
		},
		{
			name: "sources differ",
			a:    models.Issue{Message: "m", Source: models.SourceStaticAnalyzer},
			b:    models.Issue{Message: "m", Source: models.SourceDMLPrompt},
		},
		{
			name: "scalar and one-element list columns stay distinct",
			a:    models.Issue{Message: "m", Column: models.ColumnAt(3)},
			b:    models.Issue{Message: "m", Column: models.ColumnList(3)},
		},
		{
			name: "nil and zero line stay distinct",
			a:    models.Issue{Message: "m"},
			b:    models.Issue{Message: "m", Line: intPtr(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DedupeIssues([]models.Issue{tt.a, tt.b}); len(got) != 2 {
				t.Errorf("got %d issues, want both kept", len(got))
			}
		})
	}
}

func TestDedupeIssuesIdempotent(t *testing.T) {
	issues := []models.Issue{
		{Message: "a"},
		{Message: "b"},
		{Message: "a"},
		{Message: "c"},
		{Message: "b"},
	}
	once := DedupeIssues(issues)
	twice := DedupeIssues(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed the result (-once +twice):\n%s", diff)
	}
	wantOrder := []string{"a", "b", "c"}
	for i, issue := range once {
		if issue.Message != wantOrder[i] {
			t.Errorf("position %d = %q, want %q", i, issue.Message, wantOrder[i])
		}
	}
}
