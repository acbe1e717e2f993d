package models

import (
	"strings"
	"unicode/utf8"
)

// Producer keys for issue attribution
const (
	SourceStaticAnalyzer = "static_analyzer"
	SourceDMLPrompt      = "dml_prompt"
	SourceDifyWorkflow   = "dify_workflow"
)

// Mapped report-source statuses
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusCancelled  = "cancelled"
	StatusProcessing = "processing"
	StatusIdle       = "idle"
	StatusUnknown    = "unknown"
	StatusEmpty      = "empty"
)

// DefaultSeverity is attached to normalized records that carry no severity of their own.
const DefaultSeverity = "unlabeled"

// MaxEvidenceLen caps the evidence field of an Issue, counted in runes.
const MaxEvidenceLen = 300

// Issue represents one structured diagnostic finding. Every producer's output
// is normalized into this shape; after normalization an issue carries exactly
// one source key.
type Issue struct {
	RuleID         *string                  `json:"rule_id"`
	Severity       string                   `json:"severity"`
	Message        string                   `json:"message"`
	ObjectName     string                   `json:"object"`
	Line           *int                     `json:"line"`
	Column         Column                   `json:"column"`
	Snippet        string                   `json:"snippet"`
	Evidence       string                   `json:"evidence"`
	Source         string                   `json:"source,omitempty"`
	Recommendation string                   `json:"recommendation,omitempty"`
	Details        []map[string]interface{} `json:"details,omitempty"`
}

// RuleRef returns the issue's rule id or "" when it has none.
func (i Issue) RuleRef() string {
	if i.RuleID == nil {
		return ""
	}
	return *i.RuleID
}

// TruncateEvidence trims a candidate evidence string to MaxEvidenceLen runes.
func TruncateEvidence(s string) string {
	if utf8.RuneCountInString(s) <= MaxEvidenceLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxEvidenceLen])
}

// Segment is a bounded slice of source content sized to fit the remote
// analyzer's input budget. Index is 1-based; when no splitting occurred there
// is exactly one segment equal to the full content.
type Segment struct {
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Text      string `json:"text"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// Selection is the optional sub-range of a file submitted for review.
type Selection struct {
	Text        string `json:"text"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	StartColumn int    `json:"start_column"`
	EndColumn   int    `json:"end_column"`
	Label       string `json:"label,omitempty"`
}

// LineCount returns the number of lines covered by the selection text.
func (s Selection) LineCount() int {
	if s.Text == "" {
		return 0
	}
	return strings.Count(s.Text, "\n") + 1
}

// ReportSource is one producer's raw state candidate consulted by the summary
// builder. Status stays free text until mapping.
type ReportSource struct {
	Status       string                 `json:"status,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	GeneratedAt  string                 `json:"generated_at,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
}

// SummaryRecord is the derived per-source summary row of a combined report.
type SummaryRecord struct {
	Source       string `json:"source"`
	Label        string `json:"label"`
	TotalIssues  int    `json:"total_issues"`
	Status       string `json:"status,omitempty"`
	GeneratedAt  string `json:"generated_at,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Message      string `json:"message,omitempty"`
}

// CombinedReport is the final persisted/exported artifact.
type CombinedReport struct {
	Summary []SummaryRecord `json:"summary"`
	Issues  []Issue         `json:"issues"`
}

// IssueList wraps a bare issue collection, the shape of the static-only and
// AI-only persisted blobs.
type IssueList struct {
	Issues []Issue `json:"issues"`
}

// SegmentResult records one remote-workflow exchange: which segment was sent
// and what came back.
type SegmentResult struct {
	Index          int    `json:"index"`
	Total          int    `json:"total"`
	ConversationID string `json:"conversation_id,omitempty"`
	Answer         string `json:"answer"`
}
