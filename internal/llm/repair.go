// Package llm turns raw model answers into decoded JSON values, repairing the
// formatting damage language models routinely inflict on structured output.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats records what a repair pass had to do to an answer.
type RepairStats struct {
	OriginalBytes int           `json:"original_bytes"`
	RepairedBytes int           `json:"repaired_bytes"`
	CommentsLost  int           `json:"comments_lost"`
	ErrorsFixed   int           `json:"errors_fixed"`
	RepairTime    time.Duration `json:"repair_time"`
	Strategies    []string      `json:"strategies"`
	WasRepaired   bool          `json:"was_repaired"`
}

var (
	trailingCommaRe  = regexp.MustCompile(`,\s*([}\]])`)
	nestedQuoteRe    = regexp.MustCompile(`("(?:message|recommendation|evidence)":\s*")([^"]*)"([^"]*)"([^"]*)("[\s,}])`)
	tripleQuoteRe    = regexp.MustCompile(`"[^"]*"[^"]*"[^"]*"`)
	blockCommentRe   = regexp.MustCompile(`/\*.*?\*/`)
	unquotedKeyRe    = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*:)`)
	singleQuoteRe    = regexp.MustCompile(`'([^']*)'`)
	hasUnquotedKeyRe = regexp.MustCompile(`[{,]\s*[a-zA-Z_][a-zA-Z0-9_]*\s*:`)
)

// RepairJSON walks a ladder of repair strategies over a malformed payload:
// trailing commas, quotes nested inside string values, unclosed objects and
// arrays, JavaScript-style comments, unquoted keys, single-quoted strings,
// and finally the jsonrepair library. Valid input passes through untouched.
func RepairJSON(raw string) (string, RepairStats, error) {
	start := time.Now()
	stats := RepairStats{OriginalBytes: len(raw)}

	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		stats.RepairedBytes = len(raw)
		stats.RepairTime = time.Since(start)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if trailingCommaRe.MatchString(repaired) {
		repaired = trailingCommaRe.ReplaceAllString(repaired, "$1")
		stats.note("trailing_commas")
	}

	if tripleQuoteRe.MatchString(repaired) {
		if fixed := nestedQuoteRe.ReplaceAllString(repaired, `$1$2\"$3\"$4$5`); fixed != repaired {
			repaired = fixed
			stats.note("nested_quotes")
		}
	}

	if openCount(repaired) > 0 {
		if fixed := closeUnfinished(repaired); fixed != repaired {
			repaired = fixed
			stats.note("completion")
		}
	}

	if strings.Contains(repaired, "//") || strings.Contains(repaired, "/*") {
		fixed, lost := stripComments(repaired)
		if fixed != repaired {
			repaired = fixed
			stats.CommentsLost = lost
			stats.note("comments_removed")
		}
	}

	if hasUnquotedKeyRe.MatchString(repaired) {
		if fixed := unquotedKeyRe.ReplaceAllString(repaired, `$1"$2"$3`); fixed != repaired {
			repaired = fixed
			stats.note("key_quotes")
		}
	}

	if singleQuoteRe.MatchString(repaired) {
		if fixed := singleQuoteRe.ReplaceAllString(repaired, `"$1"`); fixed != repaired {
			repaired = fixed
			stats.note("single_quotes")
		}
	}

	if json.Unmarshal([]byte(repaired), &probe) != nil {
		if libFixed, libErr := jsonrepair.JSONRepair(repaired); libErr == nil && libFixed != repaired {
			repaired = libFixed
			stats.note("jsonrepair_library")
		}
	}

	stats.RepairedBytes = len(repaired)
	stats.RepairTime = time.Since(start)
	if json.Unmarshal([]byte(repaired), &probe) != nil {
		return repaired, stats, fmt.Errorf("repair failed after %d strategies", len(stats.Strategies))
	}
	return repaired, stats, nil
}

func (s *RepairStats) note(strategy string) {
	s.Strategies = append(s.Strategies, strategy)
	s.ErrorsFixed++
}

// openCount reports how many braces and brackets remain unclosed.
func openCount(s string) int {
	braces := strings.Count(s, "{") - strings.Count(s, "}")
	brackets := strings.Count(s, "[") - strings.Count(s, "]")
	open := 0
	if braces > 0 {
		open += braces
	}
	if brackets > 0 {
		open += brackets
	}
	return open
}

// closeUnfinished appends the closers an answer cut off mid-structure still
// needs, last opened first closed.
func closeUnfinished(s string) string {
	trimmed := strings.TrimSpace(s)
	var stack []rune
	for _, r := range trimmed {
		switch r {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == r {
				stack = stack[:len(stack)-1]
			}
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		trimmed += string(stack[i])
	}
	return trimmed
}

func stripComments(s string) (string, int) {
	lost := 0
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx != -1 {
			lines[i] = line[:idx]
			lost++
		}
	}
	s = strings.Join(lines, "\n")

	blocks := blockCommentRe.FindAllString(s, -1)
	lost += len(blocks)
	return blockCommentRe.ReplaceAllString(s, ""), lost
}
