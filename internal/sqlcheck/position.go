package sqlcheck

import (
	"strings"
	"unicode/utf8"
)

// snippetMaxLen caps reported source-line snippets, counted in runes.
const snippetMaxLen = 240

// offsetToLineCol converts a byte offset into a 1-based (line, column) pair.
// Lines count newlines before the offset; columns count runes from the start
// of the line, so multi-byte characters report the position a reader sees.
// Offsets past the end of text clamp to the final line.
func offsetToLineCol(text string, offset int) (int, int) {
	offset = clampOffset(text, offset)
	line := 1 + strings.Count(text[:offset], "\n")
	lastNL := strings.LastIndex(text[:offset], "\n")
	col := utf8.RuneCountInString(text[lastNL+1:offset]) + 1
	return line, col
}

// lineSnippet returns the full line containing offset, with a trailing \r
// stripped and an ellipsis appended when the line exceeds snippetMaxLen runes.
func lineSnippet(text string, offset int) string {
	offset = clampOffset(text, offset)
	start := strings.LastIndex(text[:offset], "\n") + 1
	end := strings.Index(text[offset:], "\n")
	if end == -1 {
		end = len(text)
	} else {
		end += offset
	}
	snippet := strings.TrimRight(text[start:end], "\r")
	if utf8.RuneCountInString(snippet) > snippetMaxLen {
		runes := []rune(snippet)
		snippet = string(runes[:snippetMaxLen]) + "..."
	}
	return snippet
}

func clampOffset(text string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(text) {
		return len(text)
	}
	return offset
}
