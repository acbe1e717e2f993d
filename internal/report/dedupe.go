package report

import (
	"encoding/json"
	"fmt"

	"github.com/sqlreview/pkg/models"
)

// DedupeIssues drops exact duplicates, keeping the first occurrence and the
// original order. Equality is structural: each issue is serialized with
// recursively sorted object keys, so two issues differing only in key order
// collapse while any field-value difference keeps them apart. Idempotent.
func DedupeIssues(issues []models.Issue) []models.Issue {
	seen := make(map[string]struct{}, len(issues))
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		key := issueKey(issue)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, issue)
	}
	return out
}

// issueKey serializes an issue into its canonical comparison key. Struct
// fields marshal in declaration order and map keys sort, so the key is
// deterministic; a scalar column and a one-element list column produce
// different keys.
func issueKey(issue models.Issue) string {
	b, err := json.Marshal(issue)
	if err != nil {
		return fmt.Sprintf("%#v", issue)
	}
	return string(b)
}
