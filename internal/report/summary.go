package report

import (
	"strings"

	"github.com/sqlreview/pkg/models"
)

// statusVocab maps free-text producer statuses onto the fixed vocabulary by
// substring, evaluated in this order.
var statusVocab = []struct {
	status string
	terms  []string
}{
	{models.StatusSuccess, []string{"complete", "done", "ok", "ready", "finish", "success"}},
	{models.StatusError, []string{"fail", "error", "denied", "rejected", "invalid", "exception"}},
	{models.StatusCancelled, []string{"cancel", "abort"}},
	{models.StatusProcessing, []string{"pending", "progress", "running", "generat", "queue", "process", "analyz"}},
	{models.StatusIdle, []string{"idle", "wait", "standby"}},
}

// displayLabels are the localized per-producer labels shown in summaries.
var displayLabels = map[string]string{
	models.SourceStaticAnalyzer: "靜態分析",
	models.SourceDMLPrompt:      "AI 審查",
	models.SourceDifyWorkflow:   "Dify 工作流",
}

// MapStatus folds a raw free-text status into one of success, error,
// cancelled, processing, idle, unknown or empty.
func MapStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.StatusEmpty
	}
	lowered := strings.ToLower(trimmed)
	for _, entry := range statusVocab {
		for _, term := range entry.terms {
			if strings.Contains(lowered, term) {
				return entry.status
			}
		}
	}
	return models.StatusUnknown
}

// DisplayLabel returns the localized label for a producer key. Unknown
// producers keep their raw key as the label.
func DisplayLabel(source string) string {
	if label, ok := displayLabels[CanonicalSourceLabelKey(source)]; ok {
		return label
	}
	return source
}

// CanonicalSourceLabelKey maps any spelling of a known producer key onto its
// constant form.
func CanonicalSourceLabelKey(source string) string {
	switch CanonicalKey(source) {
	case CanonicalKey(models.SourceStaticAnalyzer):
		return models.SourceStaticAnalyzer
	case CanonicalKey(models.SourceDMLPrompt):
		return models.SourceDMLPrompt
	case CanonicalKey(models.SourceDifyWorkflow):
		return models.SourceDifyWorkflow
	default:
		return source
	}
}

// SourceCandidates binds one producer to its raw state candidates in priority
// order, current run first, stored snapshot after.
type SourceCandidates struct {
	Source     string
	Candidates []models.ReportSource
}

// ConsolidateSource folds an ordered candidate list into one state: status,
// error message, timestamp and message each resolve to the first non-empty
// candidate, and metrics merge across all candidates first-writer-wins per
// label.
func ConsolidateSource(candidates []models.ReportSource) models.ReportSource {
	var out models.ReportSource
	for _, c := range candidates {
		if out.Status == "" {
			out.Status = strings.TrimSpace(c.Status)
		}
		if out.ErrorMessage == "" {
			out.ErrorMessage = c.ErrorMessage
		}
		if out.GeneratedAt == "" {
			out.GeneratedAt = c.GeneratedAt
		}
		if out.Message == "" {
			out.Message = c.Message
		}
		for label, value := range c.Metrics {
			if out.Metrics == nil {
				out.Metrics = make(map[string]interface{})
			}
			if _, taken := out.Metrics[label]; !taken {
				out.Metrics[label] = value
			}
		}
	}
	return out
}

// BuildSummaries derives one summary record per producer, in the order the
// sources are given. Issue totals count the aggregated issues whose source
// matches the producer.
func BuildSummaries(aggregated []models.Issue, sources []SourceCandidates) []models.SummaryRecord {
	counts := make(map[string]int, len(aggregated))
	for _, issue := range aggregated {
		if issue.Source == "" {
			continue
		}
		counts[CanonicalKey(issue.Source)]++
	}

	records := make([]models.SummaryRecord, 0, len(sources))
	for _, sc := range sources {
		state := ConsolidateSource(sc.Candidates)
		records = append(records, models.SummaryRecord{
			Source:       sc.Source,
			Label:        DisplayLabel(sc.Source),
			TotalIssues:  counts[CanonicalKey(sc.Source)],
			Status:       MapStatus(state.Status),
			GeneratedAt:  state.GeneratedAt,
			ErrorMessage: state.ErrorMessage,
			Message:      state.Message,
		})
	}
	return records
}
