// Package segment splits arbitrarily long review content into newline-aligned,
// size-bounded pieces for the remote analyzer, sized from the configured token
// budget.
package segment

import (
	"strings"

	"github.com/sqlreview/pkg/models"
)

// Default budget factors for the remote analyzer's input window.
const (
	DefaultTokenLimit    = 4000
	DefaultCharsPerToken = 3.0
	DefaultSafetyMargin  = 0.9
)

// Clamp floors: every budget factor has a safe minimum, and so does the
// derived window itself.
const (
	minTokenLimit    = 256
	minCharsPerToken = 1.0
	minSafetyMargin  = 0.1
	minWindow        = 400
)

// newlineFloor is the fraction of the window below which a newline is ignored
// when choosing a cut point, so a split never produces a tiny fragment.
const newlineFloor = 0.3

// MaxChars derives the segment window from the token budget:
// tokenLimit × charsPerToken × safetyMargin, each factor independently
// clamped before multiplying, the product floored at minWindow.
func MaxChars(tokenLimit int, charsPerToken, safetyMargin float64) int {
	if tokenLimit < minTokenLimit {
		tokenLimit = minTokenLimit
	}
	if charsPerToken < minCharsPerToken {
		charsPerToken = minCharsPerToken
	}
	if safetyMargin < minSafetyMargin {
		safetyMargin = minSafetyMargin
	}
	window := int(float64(tokenLimit) * charsPerToken * safetyMargin)
	if window < minWindow {
		window = minWindow
	}
	return window
}

// Partition splits text into pieces of at most maxChars runes, preferring to
// cut immediately after the last newline in each window. A newline sitting
// before newlineFloor of the window is ignored and the cut falls on the hard
// boundary instead. The pieces always concatenate back to exactly the input;
// input within budget comes back as a single piece.
func Partition(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{text}
	}

	var parts []string
	for start := 0; start < len(runes); {
		end := start + maxChars
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}
		cut := end
		window := runes[start:end]
		if nl := lastNewline(window); nl >= int(float64(len(window))*newlineFloor) {
			cut = start + nl + 1
		}
		parts = append(parts, string(runes[start:cut]))
		start = cut
	}
	return parts
}

// BuildSegments wraps Partition output in 1-based Segment metadata with the
// line range each piece covers.
func BuildSegments(text string, maxChars int) []models.Segment {
	parts := Partition(text, maxChars)
	segments := make([]models.Segment, len(parts))
	line := 1
	for i, part := range parts {
		newlines := strings.Count(part, "\n")
		endLine := line + newlines
		if strings.HasSuffix(part, "\n") {
			endLine--
		}
		segments[i] = models.Segment{
			Index:     i + 1,
			Total:     len(parts),
			Text:      part,
			StartLine: line,
			EndLine:   endLine,
		}
		line += newlines
	}
	return segments
}

func lastNewline(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '\n' {
			return i
		}
	}
	return -1
}
