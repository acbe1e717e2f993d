package sqlcheck

import "regexp"

// Mask patterns, applied one at a time in this order: block comments, line
// comments, single-quoted strings, double-quoted strings. Both quote forms
// use doubled-quote escaping.
var maskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)/\*.*?\*/`),
	regexp.MustCompile(`(?m)--.*?$`),
	regexp.MustCompile(`'(?:''|[^'])*'`),
	regexp.MustCompile(`"(?:""|[^"])*"`),
}

// MaskCommentsAndStrings blanks comment and string contents with spaces while
// keeping every newline, so the masked text has the same byte length and line
// breaks as the input and matched offsets stay valid in the original.
func MaskCommentsAndStrings(sql string) string {
	masked := []byte(sql)
	for _, re := range maskPatterns {
		for _, span := range matchSpans(re, string(masked)) {
			maskSpan(masked, span[0], span[1])
		}
	}
	return string(masked)
}

// matchSpans collects every match of re with an explicit cursor. A
// zero-length match bumps the cursor by one so the scan always terminates.
func matchSpans(re *regexp.Regexp, s string) [][2]int {
	var spans [][2]int
	pos := 0
	for pos <= len(s) {
		loc := re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start {
			pos = start + 1
			continue
		}
		spans = append(spans, [2]int{start, end})
		pos = end
	}
	return spans
}

func maskSpan(b []byte, start, end int) {
	for i := start; i < end; i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}
