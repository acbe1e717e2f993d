package report

import "github.com/sqlreview/pkg/models"

// State carries everything the aggregation cascade consults: the current
// run's per-producer findings plus whatever snapshots survived in the stored
// row. Any field may be empty; missing inputs simply push the cascade down a
// tier.
type State struct {
	Static   []models.Issue
	AI       []models.Issue
	Workflow []models.Issue

	StoredCombined []models.Issue
	StoredStatic   []models.Issue
	StoredAI       []models.Issue
}

// aggregationTiers is the fallback ladder, tried top to bottom until a tier
// yields issues. Persisted state is frequently partial, so the tiers must
// stay separate rather than merging everything available.
var aggregationTiers = []func(State) []models.Issue{
	tierCurrentRun,
	tierWorkflowAsStatic,
	tierStoredCombined,
	tierStoredStatic,
	tierStoredAI,
}

// CollectAggregatedIssues resolves the issue list for a combined report from
// the first non-empty tier. With nothing to offer on any tier it returns an
// empty list, never nil.
func CollectAggregatedIssues(state State) []models.Issue {
	for _, tier := range aggregationTiers {
		if issues := tier(state); len(issues) > 0 {
			return issues
		}
	}
	return []models.Issue{}
}

// Tier 1: what this run produced locally and through the AI review pass.
func tierCurrentRun(state State) []models.Issue {
	merged := append(
		AttributeIssues(state.Static, models.SourceStaticAnalyzer, false),
		AttributeIssues(state.AI, models.SourceDMLPrompt, false)...)
	return DedupeIssues(merged)
}

// Tier 2: the remote workflow stood in for the local engine, so its findings
// are re-attributed to the rule-engine bucket before merging.
func tierWorkflowAsStatic(state State) []models.Issue {
	if len(state.Workflow) == 0 {
		return nil
	}
	merged := append(
		AttributeIssues(state.Workflow, models.SourceStaticAnalyzer, true),
		AttributeIssues(state.AI, models.SourceDMLPrompt, false)...)
	return DedupeIssues(merged)
}

// Tier 3: issues recovered from the stored combined blob, re-attributed to
// the rule-engine bucket as-is.
func tierStoredCombined(state State) []models.Issue {
	return AttributeIssues(state.StoredCombined, models.SourceStaticAnalyzer, true)
}

// Tiers 4 and 5: raw stored snapshots, untouched.
func tierStoredStatic(state State) []models.Issue {
	return state.StoredStatic
}

func tierStoredAI(state State) []models.Issue {
	return state.StoredAI
}

// BuildCombinedReport assembles the final artifact: the cascade's issue list
// plus one summary record per producer. Each record's total counts the
// aggregated issues attributed to that producer at build time.
func BuildCombinedReport(state State, sources []SourceCandidates) models.CombinedReport {
	issues := CollectAggregatedIssues(state)
	return models.CombinedReport{
		Summary: BuildSummaries(issues, sources),
		Issues:  issues,
	}
}
