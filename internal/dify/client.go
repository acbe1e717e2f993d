// Package dify talks to the remote review workflow: one chat-message call per
// segment, strictly sequential because every call after the first carries the
// conversation token the previous response returned.
package dify

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/pkg/models"
)

// Client calls the workflow endpoint. Calls are paced by a shared limiter and
// never retried: the first failure aborts the remaining segments.
type Client struct {
	httpc   *resty.Client
	cfg     config.WorkflowConfig
	limiter *rate.Limiter
}

// Session tracks the conversation token across one sequential exchange. The
// zero Session starts a fresh conversation.
type Session struct {
	ConversationID string
}

// Exchange describes one full analysis: the file identity, the segments to
// send, and the optional selection they were cut from.
type Exchange struct {
	ProjectName string
	FilePath    string
	User        string
	Selection   *models.Selection
	Segments    []models.Segment
}

type chatRequest struct {
	Inputs         map[string]interface{} `json:"inputs"`
	Query          string                 `json:"query"`
	ResponseMode   string                 `json:"response_mode"`
	ConversationID string                 `json:"conversation_id"`
	User           string                 `json:"user"`
	Files          []interface{}          `json:"files"`
}

type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
}

// NewClient builds a workflow client. A missing endpoint or key is a
// configuration error: fatal, never retried.
func NewClient(cfg config.WorkflowConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, &models.ConfigurationError{Field: "workflow.endpoint"}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &models.ConfigurationError{Field: "workflow.api_key"}
	}
	if cfg.ResponseMode == "" {
		cfg.ResponseMode = "blocking"
	}

	httpc := resty.New()
	httpc.SetBaseURL(strings.TrimRight(cfg.Endpoint, "/"))
	httpc.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	httpc.SetHeader("Content-Type", "application/json")
	if cfg.TimeoutSeconds > 0 {
		httpc.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}

	limit := rate.Inf
	if cfg.RateLimitPerSecond > 0 {
		limit = rate.Limit(cfg.RateLimitPerSecond)
	}

	return &Client{
		httpc:   httpc,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Outcome is what a sequential exchange produced: the ordered per-segment
// answers, the conversation token after the last answered segment, and the
// answers joined into one report text.
type Outcome struct {
	Results        []models.SegmentResult
	ConversationID string
	Report         string
}

// AnalyzeSegments sends every segment of the exchange in order, threading the
// conversation token forward. The first failure returns the outcome gathered
// so far together with the error; nothing is retried and no later segment is
// attempted.
func (c *Client) AnalyzeSegments(ctx context.Context, ex Exchange) (Outcome, error) {
	session := &Session{}
	outcome := Outcome{Results: make([]models.SegmentResult, 0, len(ex.Segments))}
	for _, segment := range ex.Segments {
		result, err := c.Send(ctx, session, ex, segment)
		if err != nil {
			outcome.Report = joinAnswers(outcome.Results)
			return outcome, err
		}
		outcome.Results = append(outcome.Results, result)
		outcome.ConversationID = session.ConversationID
	}
	outcome.Report = joinAnswers(outcome.Results)
	return outcome, nil
}

func joinAnswers(results []models.SegmentResult) string {
	answers := make([]string, 0, len(results))
	for _, r := range results {
		answers = append(answers, r.Answer)
	}
	return strings.Join(answers, "\n\n")
}

// Send posts one segment and records the returned conversation token in the
// session for the next call.
func (c *Client) Send(ctx context.Context, session *Session, ex Exchange, segment models.Segment) (models.SegmentResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.SegmentResult{}, err
	}

	inputs := map[string]interface{}{
		"project_name": ex.ProjectName,
		"file_path":    ex.FilePath,
		"chunk_index":  segment.Index,
		"chunk_total":  segment.Total,
	}
	if sel := ex.Selection; sel != nil {
		inputs["selection_start_line"] = sel.StartLine
		inputs["selection_end_line"] = sel.EndLine
		inputs["selection_start_column"] = sel.StartColumn
		inputs["selection_end_column"] = sel.EndColumn
		inputs["selection_line_count"] = sel.LineCount()
		if sel.Label != "" {
			inputs["selection_label"] = sel.Label
		}
	}

	body := chatRequest{
		Inputs:         inputs,
		Query:          BuildPrompt(segment, ex.Selection),
		ResponseMode:   c.cfg.ResponseMode,
		ConversationID: session.ConversationID,
		User:           ex.User,
		Files:          []interface{}{},
	}

	log.Debug().
		Str("project", ex.ProjectName).
		Str("path", ex.FilePath).
		Int("chunk_index", segment.Index).
		Int("chunk_total", segment.Total).
		Bool("continuing", session.ConversationID != "").
		Msg("Sending segment to workflow")

	var parsed chatResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		Post("/chat-messages")
	if err != nil {
		return models.SegmentResult{}, &models.NetworkError{
			Hint: "workflow endpoint unreachable, check workflow.endpoint and network access",
			Err:  err,
		}
	}
	if !resp.IsSuccess() {
		return models.SegmentResult{}, &models.RemoteRejection{
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(resp.String()),
		}
	}

	session.ConversationID = parsed.ConversationID
	return models.SegmentResult{
		Index:          segment.Index,
		Total:          segment.Total,
		ConversationID: parsed.ConversationID,
		Answer:         parsed.Answer,
	}, nil
}
