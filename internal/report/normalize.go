package report

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlreview/pkg/models"
)

// Alias chains for every issue field, resolved first-match. Keys are
// canonical, so each entry also covers the camelCase spelling of the same
// name.
var (
	ruleAliases           = []string{"ruleid", "rule"}
	severityAliases       = []string{"severity", "severitylevel", "level"}
	messageAliases        = []string{"message", "issue", "description"}
	objectAliases         = []string{"object", "objectname"}
	lineAliases           = []string{"line", "linenumber"}
	columnAliases         = []string{"column", "col"}
	snippetAliases        = []string{"snippet", "code"}
	evidenceAliases       = []string{"evidence", "context"}
	sourceAliases         = []string{"source", "analysissource"}
	recommendationAliases = []string{"recommendation", "suggestion"}
)

// NormalizeIssues lowers any decoded JSON value into typed issues: a list is
// normalized element by element, a map is treated as an issue container when
// it wraps a record list under "issues" and as a single record otherwise, and
// a bare string becomes one message-only issue. Anything else degrades to an
// empty result.
func NormalizeIssues(v interface{}) []models.Issue {
	switch t := v.(type) {
	case []interface{}:
		var out []models.Issue
		for _, item := range t {
			switch entry := item.(type) {
			case map[string]interface{}:
				out = append(out, NormalizeRecord(entry)...)
			case string:
				if strings.TrimSpace(entry) != "" {
					out = append(out, messageOnlyIssue(entry))
				}
			}
		}
		return out
	case map[string]interface{}:
		if inner, ok := containedIssueList(t); ok {
			return NormalizeIssues(inner)
		}
		return NormalizeRecord(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []models.Issue{messageOnlyIssue(t)}
	default:
		return nil
	}
}

// NormalizeRecord lowers one raw record into typed issues. A record carrying
// parallel arrays (rule_ids, severity_levels, issues as message strings,
// evidence_list, recommendation as a list) expands into one issue per aligned
// tuple, single-value fields acting as fallbacks for short arrays. Unusable
// values degrade to zero-value fields; the legacy fixed_code field is
// dropped.
func NormalizeRecord(raw map[string]interface{}) []models.Issue {
	if len(raw) == 0 {
		return nil
	}
	idx := fieldIndex(raw)

	ruleIDs, hasRuleIDs := listField(idx, "ruleids")
	severities, hasSeverities := listField(idx, "severitylevels")
	messages, hasMessages := stringListField(idx, "issues")
	evidences, hasEvidences := listField(idx, "evidencelist")
	recommendations, hasRecs := listField(idx, "recommendation")

	n := 0
	for _, arr := range [][]interface{}{ruleIDs, severities, evidences, recommendations} {
		if len(arr) > n {
			n = len(arr)
		}
	}
	if len(messages) > n {
		n = len(messages)
	}
	expanded := hasRuleIDs || hasSeverities || hasMessages || hasEvidences || hasRecs
	if !expanded || n == 0 {
		return []models.Issue{singleIssue(idx)}
	}

	columns, columnIsList := listField(idx, columnAliases...)
	out := make([]models.Issue, 0, n)
	for i := 0; i < n; i++ {
		issue := models.Issue{
			RuleID:     optStringAt(ruleIDs, i, stringField(idx, ruleAliases...)),
			Severity:   stringAt(severities, i, stringField(idx, severityAliases...)),
			Message:    stringListAt(messages, i, stringField(idx, messageAliases...)),
			ObjectName: stringField(idx, objectAliases...),
			Line:       intField(idx, lineAliases...),
			Snippet:    stringField(idx, snippetAliases...),
			Evidence:   models.TruncateEvidence(stringAt(evidences, i, stringField(idx, evidenceAliases...))),
			Source:     stringField(idx, sourceAliases...),
			Details:    detailsField(idx),
		}
		if issue.Severity == "" {
			issue.Severity = models.DefaultSeverity
		}
		if columnIsList {
			if i < len(columns) {
				issue.Column = scalarColumn(columns[i])
			}
		} else {
			issue.Column = columnField(idx)
		}
		if i < len(recommendations) {
			issue.Recommendation = asString(recommendations[i])
		} else if !hasRecs {
			issue.Recommendation = stringField(idx, recommendationAliases...)
		}
		out = append(out, issue)
	}
	return out
}

// AttributeIssue tags an issue with the producer it belongs to and returns
// the re-tagged copy. Force overwrites whatever is there; otherwise only a
// missing source is attached, so a merge never steals issues that already
// name another producer.
func AttributeIssue(issue models.Issue, target string, force bool) models.Issue {
	switch {
	case force:
		issue.Source = target
	case issue.Source == "":
		issue.Source = target
	}
	return issue
}

// AttributeIssues applies AttributeIssue across a list.
func AttributeIssues(issues []models.Issue, target string, force bool) []models.Issue {
	out := make([]models.Issue, len(issues))
	for i, issue := range issues {
		out[i] = AttributeIssue(issue, target, force)
	}
	return out
}

func singleIssue(idx map[string]interface{}) models.Issue {
	issue := models.Issue{
		Severity:       stringField(idx, severityAliases...),
		Message:        stringField(idx, messageAliases...),
		ObjectName:     stringField(idx, objectAliases...),
		Line:           intField(idx, lineAliases...),
		Column:         columnField(idx),
		Snippet:        stringField(idx, snippetAliases...),
		Evidence:       models.TruncateEvidence(stringField(idx, evidenceAliases...)),
		Source:         stringField(idx, sourceAliases...),
		Recommendation: stringField(idx, recommendationAliases...),
		Details:        detailsField(idx),
	}
	if rule := stringField(idx, ruleAliases...); rule != "" {
		issue.RuleID = &rule
	}
	if issue.Severity == "" {
		issue.Severity = models.DefaultSeverity
	}
	return issue
}

func messageOnlyIssue(message string) models.Issue {
	return models.Issue{Severity: models.DefaultSeverity, Message: message}
}

// containedIssueList reports whether a map is a wrapper like the persisted
// {summary, issues} blob rather than a record. A record's own "issues" field
// holds message strings, never objects.
func containedIssueList(raw map[string]interface{}) (interface{}, bool) {
	idx := fieldIndex(raw)
	v, ok := idx["issues"]
	if !ok {
		return nil, false
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	if len(list) == 0 {
		return list, true
	}
	for _, item := range list {
		if _, isMap := item.(map[string]interface{}); isMap {
			return list, true
		}
	}
	return nil, false
}

// fieldIndex keys every record entry by its canonical name. Raw keys are
// visited in sorted order so colliding spellings resolve deterministically,
// first writer wins.
func fieldIndex(raw map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	idx := make(map[string]interface{}, len(raw))
	for _, k := range keys {
		ck := CanonicalKey(k)
		if _, taken := idx[ck]; !taken {
			idx[ck] = raw[k]
		}
	}
	return idx
}

func stringField(idx map[string]interface{}, aliases ...string) string {
	for _, alias := range aliases {
		if s := asString(idx[alias]); s != "" {
			return s
		}
	}
	return ""
}

func intField(idx map[string]interface{}, aliases ...string) *int {
	for _, alias := range aliases {
		if n, ok := asInt(idx[alias]); ok {
			return &n
		}
	}
	return nil
}

func columnField(idx map[string]interface{}) models.Column {
	for _, alias := range columnAliases {
		if v, ok := idx[alias]; ok && v != nil {
			return models.ColumnFromValue(v)
		}
	}
	return models.Column{}
}

func detailsField(idx map[string]interface{}) []map[string]interface{} {
	list, ok := idx["details"].([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, item := range list {
		if m, isMap := item.(map[string]interface{}); isMap {
			out = append(out, m)
		}
	}
	return out
}

func listField(idx map[string]interface{}, aliases ...string) ([]interface{}, bool) {
	for _, alias := range aliases {
		if list, ok := idx[alias].([]interface{}); ok {
			return list, true
		}
	}
	return nil, false
}

// stringListField matches only a list whose entries are all strings, which
// keeps a record's parallel "issues" messages apart from nested record lists.
func stringListField(idx map[string]interface{}, alias string) ([]string, bool) {
	list, ok := idx[alias].([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, isString := item.(string)
		if !isString {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func stringAt(list []interface{}, i int, fallback string) string {
	if i < len(list) {
		if s := asString(list[i]); s != "" {
			return s
		}
	}
	return fallback
}

func stringListAt(list []string, i int, fallback string) string {
	if i < len(list) && list[i] != "" {
		return list[i]
	}
	return fallback
}

func optStringAt(list []interface{}, i int, fallback string) *string {
	s := stringAt(list, i, fallback)
	if s == "" {
		return nil
	}
	return &s
}

func scalarColumn(v interface{}) models.Column {
	if n, ok := asInt(v); ok {
		return models.ColumnAt(n)
	}
	return models.Column{}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t)), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}
