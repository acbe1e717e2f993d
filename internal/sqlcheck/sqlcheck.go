// Package sqlcheck is the local SQL rule engine: it masks comment and string
// literals, runs the detection rules over the masked text, and anchors every
// finding in the original source through the position index.
package sqlcheck

import (
	"encoding/json"

	"github.com/sqlreview/pkg/models"
)

// Informational summary strings
const (
	SummaryOK        = "ok"
	SummaryNotString = "input is not a string"
)

// Report is the rule engine's output payload.
type Report struct {
	Summary Summary        `json:"summary"`
	Issues  []models.Issue `json:"issues"`
}

// Summary is either an informational string or per-rule issue counts. It
// marshals as a plain string when Text is set and as a
// {total_issues, by_rule} object otherwise.
type Summary struct {
	Text        string
	TotalIssues int
	ByRule      map[string]int
}

type summaryCounts struct {
	TotalIssues int            `json:"total_issues"`
	ByRule      map[string]int `json:"by_rule"`
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Text != "" {
		return json.Marshal(s.Text)
	}
	return json.Marshal(summaryCounts{TotalIssues: s.TotalIssues, ByRule: s.ByRule})
}

// UnmarshalJSON implements json.Unmarshaler, accepting both forms.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Summary{Text: text}
		return nil
	}
	var counts summaryCounts
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	*s = Summary{TotalIssues: counts.TotalIssues, ByRule: counts.ByRule}
	return nil
}

// Analyze runs every rule over sql. It never fails on well-formed input: zero
// findings yield an "ok" report, anything else the issue list with per-rule
// counts. Rules scan only the masked text; reported offsets are anchored in
// the original.
func Analyze(sql string) *Report {
	masked := MaskCommentsAndStrings(sql)

	var issues []models.Issue
	checkCJK(sql, masked, &issues)
	checkNamingPrefixes(sql, masked, &issues)
	checkDeleteFullTable(sql, masked, &issues)
	checkCartesian(sql, masked, &issues)

	if len(issues) == 0 {
		return &Report{Summary: Summary{Text: SummaryOK}, Issues: []models.Issue{}}
	}

	byRule := make(map[string]int)
	for _, issue := range issues {
		byRule[issue.RuleRef()]++
	}
	return &Report{
		Summary: Summary{TotalIssues: len(issues), ByRule: byRule},
		Issues:  issues,
	}
}

// AnalyzeValue guards the dynamic boundary where request payloads arrive as
// arbitrary decoded JSON. Non-string input degrades to an informational
// empty-issue report instead of an error.
func AnalyzeValue(v interface{}) *Report {
	sql, ok := v.(string)
	if !ok {
		return &Report{Summary: Summary{Text: SummaryNotString}, Issues: []models.Issue{}}
	}
	return Analyze(sql)
}
