package sqlcheck

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlreview/pkg/models"
)

// Rule identifiers
const (
	RuleCJKName       = "R1_CJK_NAME"
	RulePrefixTable   = "R2_PREFIX_TABLE"
	RulePrefixView    = "R2_PREFIX_VIEW"
	RulePrefixProc    = "R2_PREFIX_PROC"
	RulePrefixFunc    = "R2_PREFIX_FUNC"
	RuleTmpTriple     = "R3_TMP_TRIPLE"
	RuleDeleteNoWhere = "R4_DELETE_NO_WHERE"
	RuleFromComma     = "R5_FROM_COMMA"
	RuleJoinNoOn      = "R5_JOIN_NO_ON"
)

const severityError = "ERROR"

// nameToken matches an optionally qualified, optionally delimited SQL object
// name: backticks, double quotes, brackets, letters, digits, and the usual
// identifier punctuation.
const nameToken = "[`\"\\[\\]\\p{L}\\p{N}_.$#@]+"

var (
	cjkRe = regexp.MustCompile(`[\x{3400}-\x{4DBF}\x{4E00}-\x{9FFF}\x{F900}-\x{FAFF}\x{3040}-\x{30FF}\x{AC00}-\x{D7AF}]`)

	createTableRe = regexp.MustCompile(`(?i)\bCREATE\s+(?:OR\s+REPLACE\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + nameToken + `)`)
	createViewRe  = regexp.MustCompile(`(?i)\bCREATE\s+(?:OR\s+REPLACE\s+)?VIEW\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + nameToken + `)`)
	createProcRe  = regexp.MustCompile(`(?i)\bCREATE\s+(?:OR\s+REPLACE\s+)?PROCEDURE\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + nameToken + `)`)
	createFuncRe  = regexp.MustCompile(`(?i)\bCREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + nameToken + `)`)

	deleteFromRe = regexp.MustCompile(`(?is)\bDELETE\s+FROM\s+(` + nameToken + `)([^;]*)`)
	whereRe      = regexp.MustCompile(`(?i)\bWHERE\b`)

	fromRe           = regexp.MustCompile(`(?i)\bFROM\b`)
	clauseBoundaryRe = regexp.MustCompile(`(?i)\bWHERE\b|\bGROUP\b|\bORDER\b|\bHAVING\b|\bLIMIT\b|;`)
	joinRe           = regexp.MustCompile(`(?i)\bJOIN\b`)
	joinConditionRe  = regexp.MustCompile(`(?i)\bON\b|\bUSING\b|\bNATURAL\b|\bCROSS\b`)
)

// lastIdentifier reduces a matched name token to its terminal identifier:
// whitespace trimmed, schema qualifiers dropped, bracket/backtick/quote
// delimiters stripped.
func lastIdentifier(token string) string {
	token = strings.TrimSpace(token)
	if idx := strings.LastIndex(token, "."); idx >= 0 {
		token = token[idx+1:]
	}
	if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") && len(token) >= 2 {
		token = token[1 : len(token)-1]
	}
	return strings.Trim(token, "`\"")
}

// addIssue anchors a finding in the original text via the position index.
func addIssue(issues *[]models.Issue, ruleID, message, original string, offset int, evidence, objName, recommendation string) {
	line, col := offsetToLineCol(original, offset)
	snippet := lineSnippet(original, offset)
	if evidence == "" {
		evidence = snippet
	}
	id := ruleID
	*issues = append(*issues, models.Issue{
		RuleID:         &id,
		Severity:       severityError,
		Message:        message,
		ObjectName:     objName,
		Line:           &line,
		Column:         models.ColumnAt(col),
		Snippet:        snippet,
		Evidence:       models.TruncateEvidence(evidence),
		Recommendation: recommendation,
	})
}

// checkCJK flags the first CJK/Hangul/Kana codepoint left in the masked text.
func checkCJK(original, masked string, issues *[]models.Issue) {
	loc := cjkRe.FindStringIndex(masked)
	if loc == nil {
		return
	}
	ch := masked[loc[0]:loc[1]]
	addIssue(issues, RuleCJKName,
		"non-ASCII (CJK) characters detected, likely used in object or column names; use English identifiers",
		original, loc[0], "..."+ch+"...", "", "")
}

// checkNamingPrefixes enforces the T_/V_/P_/F_ prefixes on created objects
// and rejects the forbidden TMP_TMP_TMP triple-temp prefix on tables.
func checkNamingPrefixes(original, masked string, issues *[]models.Issue) {
	for _, m := range createTableRe.FindAllStringSubmatchIndex(masked, -1) {
		name := lastIdentifier(masked[m[2]:m[3]])
		upper := strings.ToUpper(name)
		evidence := masked[m[0]:m[1]]
		if !strings.HasPrefix(upper, "T_") {
			addIssue(issues, RulePrefixTable,
				fmt.Sprintf("table name must start with T_: found %s", name),
				original, m[0], evidence, name, "")
		}
		if strings.HasPrefix(upper, "TMP_TMP_TMP") {
			addIssue(issues, RuleTmpTriple,
				fmt.Sprintf("temporary tables must not use the TMP_TMP_TMP prefix: found %s", name),
				original, m[0], evidence, name, "")
		}
	}

	for _, m := range createViewRe.FindAllStringSubmatchIndex(masked, -1) {
		name := lastIdentifier(masked[m[2]:m[3]])
		if !strings.HasPrefix(strings.ToUpper(name), "V_") {
			addIssue(issues, RulePrefixView,
				fmt.Sprintf("view name must start with V_: found %s", name),
				original, m[0], masked[m[0]:m[1]], name, "")
		}
	}

	for _, m := range createProcRe.FindAllStringSubmatchIndex(masked, -1) {
		name := lastIdentifier(masked[m[2]:m[3]])
		if !strings.HasPrefix(strings.ToUpper(name), "P_") {
			addIssue(issues, RulePrefixProc,
				fmt.Sprintf("procedure name must start with P_: found %s", name),
				original, m[0], masked[m[0]:m[1]], name, "")
		}
	}

	for _, m := range createFuncRe.FindAllStringSubmatchIndex(masked, -1) {
		name := lastIdentifier(masked[m[2]:m[3]])
		if !strings.HasPrefix(strings.ToUpper(name), "F_") {
			addIssue(issues, RulePrefixFunc,
				fmt.Sprintf("function name must start with F_: found %s", name),
				original, m[0], masked[m[0]:m[1]], name, "")
		}
	}
}

// checkDeleteFullTable flags DELETE statements with no WHERE before the next
// statement terminator.
func checkDeleteFullTable(original, masked string, issues *[]models.Issue) {
	for _, m := range deleteFromRe.FindAllStringSubmatchIndex(masked, -1) {
		tail := masked[m[4]:m[5]]
		if whereRe.MatchString(tail) {
			continue
		}
		name := lastIdentifier(masked[m[2]:m[3]])
		addIssue(issues, RuleDeleteNoWhere,
			fmt.Sprintf("full-table delete detected on %s (DELETE without WHERE); use TRUNCATE instead", name),
			original, m[0], masked[m[0]:m[1]], name,
			"Use TRUNCATE for full-table cleanup.")
	}
}

// checkCartesian flags implicit comma joins in FROM clauses and JOINs that
// carry no ON/USING/NATURAL condition.
func checkCartesian(original, masked string, issues *[]models.Issue) {
	for _, m := range fromRe.FindAllStringIndex(masked, -1) {
		start := m[1]
		end := len(masked)
		if b := clauseBoundaryRe.FindStringIndex(masked[start:]); b != nil {
			end = start + b[0]
		}
		fragment := masked[start:end]
		if strings.Contains(fragment, ",") && !joinRe.MatchString(fragment) {
			addIssue(issues, RuleFromComma,
				"comma join in FROM clause risks a cartesian product; use explicit JOIN ... ON",
				original, start, strings.TrimSpace(fragment), "", "")
		}
	}

	joins := joinRe.FindAllStringIndex(masked, -1)
	bounds := clauseBoundaryRe.FindAllStringIndex(masked, -1)
	for idx, jm := range joins {
		segStart := jm[1]
		segEnd := len(masked)
		if idx+1 < len(joins) {
			segEnd = joins[idx+1][0]
		}
		for _, b := range bounds {
			if b[0] >= segStart && b[0] < segEnd {
				segEnd = b[0]
				break
			}
		}
		segment := masked[segStart:segEnd]
		if joinConditionRe.MatchString(segment) {
			continue
		}
		addIssue(issues, RuleJoinNoOn,
			"JOIN without ON/USING/NATURAL detected; this may produce a cartesian product or unclear semantics",
			original, jm[0], strings.TrimSpace("JOIN"+segment), "", "")
	}
}
