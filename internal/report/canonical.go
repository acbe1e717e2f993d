// Package report turns raw producer output into typed issues and folds the
// per-producer results of an analysis run, together with whatever survived in
// the stored row, into one combined {summary, issues} report.
package report

import (
	"strings"
	"unicode"
)

// CanonicalKey lowers an identifier to its alphanumeric runes only, so
// static_analyzer, staticAnalyzer and STATIC-ANALYZER all address the same
// entry.
func CanonicalKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
