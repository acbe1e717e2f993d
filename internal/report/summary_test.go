package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sqlreview/pkg/models"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "empty"},
		{"   ", "empty"},
		{"Completed", "success"},
		{"DONE", "success"},
		{"ok", "success"},
		{"workflow_finished", "success"},
		{"ready", "success"},
		{"Failed", "error"},
		{"access denied", "error"},
		{"rejected by policy", "error"},
		{"Invalid input", "error"},
		{"ServerException", "error"},
		{"user_cancelled", "cancelled"},
		{"aborted", "cancelled"},
		{"pending", "processing"},
		{"in progress", "processing"},
		{"Generating answer", "processing"},
		{"queued", "processing"},
		{"analyzing", "processing"},
		{"idle", "idle"},
		{"waiting for input", "idle"},
		{"standby", "idle"},
		{"???", "unknown"},
		{"42", "unknown"},
	}
	for _, tt := range tests {
		if got := MapStatus(tt.raw); got != tt.want {
			t.Errorf("MapStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMapStatusVocabularyOrder(t *testing.T) {
	// Earlier vocabulary entries win when a status matches several.
	tests := []struct {
		raw  string
		want string
	}{
		{"cancellation failed", "error"},
		{"processing complete", "success"},
		{"error while cancelling", "error"},
	}
	for _, tt := range tests {
		if got := MapStatus(tt.raw); got != tt.want {
			t.Errorf("MapStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{models.SourceStaticAnalyzer, "靜態分析"},
		{models.SourceDMLPrompt, "AI 審查"},
		{models.SourceDifyWorkflow, "Dify 工作流"},
		{"Static-Analyzer", "靜態分析"},
		{"difyWorkflow", "Dify 工作流"},
		{"legacy_pass", "legacy_pass"},
	}
	for _, tt := range tests {
		if got := DisplayLabel(tt.source); got != tt.want {
			t.Errorf("DisplayLabel(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestConsolidateSource(t *testing.T) {
	candidates := []models.ReportSource{
		{Metrics: map[string]interface{}{"segments": 3}},
		{
			Status:       "running",
			ErrorMessage: "first error",
			GeneratedAt:  "2026-08-01T10:00:00Z",
			Metrics:      map[string]interface{}{"segments": 9, "conversation": "abc"},
		},
		{
			Status:      "done",
			Message:     "stored message",
			GeneratedAt: "2026-07-01T10:00:00Z",
			Metrics:     map[string]interface{}{"rules": 5},
		},
	}

	got := ConsolidateSource(candidates)
	if got.Status != "running" {
		t.Errorf("status = %q, want first non-empty %q", got.Status, "running")
	}
	if got.ErrorMessage != "first error" {
		t.Errorf("error = %q, want %q", got.ErrorMessage, "first error")
	}
	if got.GeneratedAt != "2026-08-01T10:00:00Z" {
		t.Errorf("generatedAt = %q, want the earlier candidate's value", got.GeneratedAt)
	}
	if got.Message != "stored message" {
		t.Errorf("message = %q, want %q", got.Message, "stored message")
	}
	wantMetrics := map[string]interface{}{"segments": 3, "conversation": "abc", "rules": 5}
	if diff := cmp.Diff(wantMetrics, got.Metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestConsolidateSourceEmpty(t *testing.T) {
	got := ConsolidateSource(nil)
	if got.Status != "" || got.Metrics != nil {
		t.Errorf("got %+v, want zero state", got)
	}
}

func TestBuildSummaries(t *testing.T) {
	aggregated := []models.Issue{
		{Message: "a", Source: models.SourceStaticAnalyzer},
		{Message: "b", Source: "STATIC_ANALYZER"},
		{Message: "c", Source: models.SourceDMLPrompt},
		{Message: "d"},
	}
	sources := []SourceCandidates{
		{
			Source: models.SourceStaticAnalyzer,
			Candidates: []models.ReportSource{
				{Status: "completed", GeneratedAt: "2026-08-02T08:00:00Z"},
			},
		},
		{
			Source: models.SourceDMLPrompt,
			Candidates: []models.ReportSource{
				{},
				{Status: "failed", ErrorMessage: "provider unreachable"},
			},
		},
		{Source: models.SourceDifyWorkflow},
	}

	got := BuildSummaries(aggregated, sources)
	want := []models.SummaryRecord{
		{
			Source:      models.SourceStaticAnalyzer,
			Label:       "靜態分析",
			TotalIssues: 2,
			Status:      "success",
			GeneratedAt: "2026-08-02T08:00:00Z",
		},
		{
			Source:       models.SourceDMLPrompt,
			Label:        "AI 審查",
			TotalIssues:  1,
			Status:       "error",
			ErrorMessage: "provider unreachable",
		},
		{
			Source:      models.SourceDifyWorkflow,
			Label:       "Dify 工作流",
			TotalIssues: 0,
			Status:      "empty",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
}
