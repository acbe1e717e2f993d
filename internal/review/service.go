// Package review orchestrates one report generation: route the input to the
// local rule engine or the remote workflow, fold in the supplementary AI
// pass, aggregate against stored state, and persist the outcome.
package review

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/dify"
	"github.com/sqlreview/internal/llm"
	"github.com/sqlreview/internal/report"
	"github.com/sqlreview/internal/segment"
	"github.com/sqlreview/internal/sqlcheck"
	"github.com/sqlreview/internal/store"
	"github.com/sqlreview/pkg/models"
)

// Request identifies what to review. Content and Selection are alternatives;
// when both are set the selection text is what gets analyzed.
type Request struct {
	ProjectID string            `json:"project_id"`
	Path      string            `json:"path"`
	Content   string            `json:"content"`
	Selection *models.Selection `json:"selection,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
}

// Result is the outcome of one generation run. Warnings carry non-fatal
// degradations (workflow failures, persistence problems); the report itself
// is always present.
type Result struct {
	Report         models.CombinedReport `json:"report"`
	Segments       []models.Segment      `json:"segments,omitempty"`
	ConversationID string                `json:"conversation_id,omitempty"`
	RawReport      string                `json:"raw_report,omitempty"`
	Warnings       []string              `json:"warnings,omitempty"`
}

// Workflow is the remote analyzer surface the service drives.
type Workflow interface {
	AnalyzeSegments(ctx context.Context, ex dify.Exchange) (dify.Outcome, error)
}

// AIReviewer is the supplementary review pass.
type AIReviewer interface {
	Enabled() bool
	Review(ctx context.Context, content string) ([]models.Issue, error)
}

// Reports is the persistence surface the service reads and writes.
type Reports interface {
	Get(ctx context.Context, projectID, path string) (*store.ReportRow, error)
	Upsert(ctx context.Context, row *store.ReportRow) error
}

// Service runs the generation pipeline. Workflow, reviewer, and reports may
// each be nil when the deployment does not configure them.
type Service struct {
	cfg      *config.Config
	workflow Workflow
	reviewer AIReviewer
	reports  Reports
}

// NewService wires the pipeline dependencies.
func NewService(cfg *config.Config, workflow Workflow, reviewer AIReviewer, reports Reports) *Service {
	return &Service{cfg: cfg, workflow: workflow, reviewer: reviewer, reports: reports}
}

// IsSQLPath reports whether the path routes to the local rule engine.
func IsSQLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// GenerateReport runs the full pipeline for one request. Input and
// configuration faults fail the call; analyzer failures degrade into warnings
// and error summaries while the aggregation still yields whatever state
// exists.
func (s *Service) GenerateReport(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "anon-" + uuid.NewString()
	}

	content := req.Content
	if req.Selection != nil && strings.TrimSpace(req.Selection.Text) != "" {
		content = req.Selection.Text
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result := &Result{}
	var state report.State
	var staticCands, aiCands, workflowCands []models.ReportSource

	isSQL := IsSQLPath(req.Path)
	log.Debug().
		Str("project", req.ProjectID).
		Str("path", req.Path).
		Bool("sql", isSQL).
		Str("user", userID).
		Msg("Generating report")

	var exchange []models.SegmentResult
	if isSQL {
		staticReport := sqlcheck.Analyze(content)
		state.Static = report.AttributeIssues(staticReport.Issues, models.SourceStaticAnalyzer, false)
		staticCands = append(staticCands, models.ReportSource{
			Status:      models.StatusSuccess,
			GeneratedAt: now,
			Message:     staticReport.Summary.Text,
			Metrics: map[string]interface{}{
				"total_issues": len(state.Static),
			},
		})
	} else {
		workflowResult, cand, err := s.runWorkflow(ctx, req, userID, content)
		result.Segments = workflowResult.segments
		result.ConversationID = workflowResult.conversationID
		result.RawReport = workflowResult.rawReport
		state.Workflow = workflowResult.issues
		exchange = workflowResult.results
		workflowCands = append(workflowCands, cand)
		if err != nil {
			if models.IsConfigurationError(err) {
				return nil, err
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("workflow: %v", err))
		}
	}

	if s.reviewer != nil && s.reviewer.Enabled() {
		aiIssues, err := s.reviewer.Review(ctx, content)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("ai review: %v", err))
			aiCands = append(aiCands, models.ReportSource{
				Status:       models.StatusError,
				ErrorMessage: err.Error(),
				GeneratedAt:  now,
			})
		} else {
			state.AI = aiIssues
			aiCands = append(aiCands, models.ReportSource{
				Status:      models.StatusSuccess,
				GeneratedAt: now,
				Metrics: map[string]interface{}{
					"provider": s.cfg.AIReview.Provider,
					"model":    s.cfg.AIReview.Model,
				},
			})
		}
	}

	stored := s.loadStored(ctx, req, result)
	if stored != nil {
		state.StoredCombined = stored.Combined.Issues
		state.StoredStatic = stored.StaticOnly.Issues
		state.StoredAI = stored.AIOnly.Issues

		storedAt := stored.GeneratedAt.UTC().Format(time.RFC3339)
		staticCands = append(staticCands, models.ReportSource{GeneratedAt: storedAt})
		aiCands = append(aiCands, models.ReportSource{GeneratedAt: storedAt})
		workflowCands = append(workflowCands, models.ReportSource{
			GeneratedAt: storedAt,
			Metrics:     map[string]interface{}{"conversation_id": stored.ConversationID},
		})
	}

	sources := []report.SourceCandidates{
		{Source: models.SourceStaticAnalyzer, Candidates: staticCands},
		{Source: models.SourceDMLPrompt, Candidates: aiCands},
		{Source: models.SourceDifyWorkflow, Candidates: workflowCands},
	}
	result.Report = report.BuildCombinedReport(state, sources)

	s.persist(ctx, req, userID, state, exchange, result)
	return result, nil
}

type workflowRun struct {
	segments       []models.Segment
	results        []models.SegmentResult
	conversationID string
	rawReport      string
	issues         []models.Issue
}

// runWorkflow segments the content, drives the sequential exchange, and
// parses each answer. The returned candidate reflects how the run went; the
// error is non-nil on abort and carries the taxonomy type.
func (s *Service) runWorkflow(ctx context.Context, req Request, userID, content string) (workflowRun, models.ReportSource, error) {
	if s.workflow == nil {
		return workflowRun{}, models.ReportSource{}, &models.ConfigurationError{
			Field:  "workflow.endpoint",
			Reason: "remote workflow required for non-SQL paths",
		}
	}

	maxChars := segment.MaxChars(
		s.cfg.Workflow.TokenLimit,
		s.cfg.Workflow.ApproxCharsPerToken,
		s.cfg.Workflow.SafetyMargin,
	)
	segments := segment.BuildSegments(content, maxChars)

	outcome, err := s.workflow.AnalyzeSegments(ctx, dify.Exchange{
		ProjectName: req.ProjectID,
		FilePath:    req.Path,
		User:        userID,
		Selection:   req.Selection,
		Segments:    segments,
	})

	run := workflowRun{
		segments:       segments,
		results:        outcome.Results,
		conversationID: outcome.ConversationID,
		rawReport:      outcome.Report,
	}
	var issues []models.Issue
	for _, sr := range outcome.Results {
		issues = append(issues, workflowIssues(sr.Answer)...)
	}
	run.issues = report.AttributeIssues(issues, models.SourceDifyWorkflow, false)

	now := time.Now().UTC().Format(time.RFC3339)
	metrics := map[string]interface{}{
		"segments": len(segments),
		"answered": len(outcome.Results),
	}
	if outcome.ConversationID != "" {
		metrics["conversation_id"] = outcome.ConversationID
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("project", req.ProjectID).
			Str("path", req.Path).
			Int("answered", len(outcome.Results)).
			Msg("Workflow exchange aborted")
		return run, models.ReportSource{
			Status:       models.StatusError,
			ErrorMessage: err.Error(),
			GeneratedAt:  now,
			Metrics:      metrics,
		}, err
	}

	return run, models.ReportSource{
		Status:      models.StatusSuccess,
		GeneratedAt: now,
		Metrics:     metrics,
	}, nil
}

// workflowIssues decodes one answer; unparseable text degrades to a
// message-only issue instead of being dropped.
func workflowIssues(answer string) []models.Issue {
	decoded, _, err := llm.ParseAnswer(answer)
	if err != nil {
		return report.NormalizeIssues(answer)
	}
	return report.NormalizeIssues(decoded)
}

func (s *Service) loadStored(ctx context.Context, req Request, result *Result) *store.ReportRow {
	if s.reports == nil {
		return nil
	}
	row, err := s.reports.Get(ctx, req.ProjectID, req.Path)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("project", req.ProjectID).Str("path", req.Path).Msg("Failed to load stored report")
			result.Warnings = append(result.Warnings, fmt.Sprintf("stored report: %v", err))
		}
		return nil
	}
	return row
}

// persist writes the row; failures degrade to a warning on the result, never
// a failed request.
func (s *Service) persist(ctx context.Context, req Request, userID string, state report.State, exchange []models.SegmentResult, result *Result) {
	if s.reports == nil {
		return
	}

	chunks := make([]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		chunks = append(chunks, seg.Text)
	}

	row := &store.ReportRow{
		ProjectID:      req.ProjectID,
		Path:           req.Path,
		RawReport:      result.RawReport,
		Chunks:         chunks,
		Segments:       exchange,
		ConversationID: result.ConversationID,
		UserID:         userID,
		GeneratedAt:    time.Now().UTC(),
		Combined:       result.Report,
		StaticOnly:     sanitized(state.Static, models.SourceStaticAnalyzer),
		AIOnly:         sanitized(state.AI, models.SourceDMLPrompt),
	}
	if err := s.reports.Upsert(ctx, row); err != nil {
		log.Warn().Err(err).Str("project", req.ProjectID).Str("path", req.Path).Msg("Failed to persist report")
		result.Warnings = append(result.Warnings, fmt.Sprintf("persist: %v", err))
	}
}

// sanitized is the persisted form of a producer's issue set: deduplicated
// with the source forced onto every entry.
func sanitized(issues []models.Issue, source string) models.IssueList {
	return models.IssueList{Issues: report.DedupeIssues(report.AttributeIssues(issues, source, true))}
}

func validate(req Request) error {
	if strings.TrimSpace(req.ProjectID) == "" {
		return &models.InputError{Field: "project_id"}
	}
	if strings.TrimSpace(req.Path) == "" {
		return &models.InputError{Field: "path"}
	}
	if strings.TrimSpace(req.Content) == "" && (req.Selection == nil || strings.TrimSpace(req.Selection.Text) == "") {
		return &models.InputError{Field: "content"}
	}
	return nil
}
