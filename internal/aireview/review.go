// Package aireview runs the supplementary review pass: one model call over
// the submitted SQL, the answer parsed into the shared issue shape and
// attributed to the dml_prompt producer. The pass is best-effort; its failure
// surfaces as an error candidate in the summary, never as a failed review.
package aireview

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/llm"
	"github.com/sqlreview/internal/report"
	"github.com/sqlreview/internal/retry"
	"github.com/sqlreview/pkg/models"
)

const reviewPrompt = `You are a database change reviewer. Examine the SQL below for risky data manipulation: DELETE or UPDATE without a WHERE clause, implicit comma joins, JOIN without an ON condition, leftover temporary objects, and unsafe or non-ASCII object names.
Reply with JSON only, in this shape:
{"issues": [{"rule_id": "...", "severity": "...", "message": "...", "object": "...", "line": 1, "snippet": "...", "recommendation": "..."}]}
Reply {"issues": []} when the content is clean.

%s`

// Reviewer holds the configured model. A disabled configuration yields a
// reviewer whose Review is a no-op.
type Reviewer struct {
	cfg      config.AIReviewConfig
	model    llms.Model
	retryCfg retry.Config
}

// New builds a reviewer for the configured provider.
func New(ctx context.Context, cfg config.AIReviewConfig) (*Reviewer, error) {
	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries >= 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	r := &Reviewer{cfg: cfg, retryCfg: retryCfg}
	if !cfg.Enabled {
		return r, nil
	}

	log.Debug().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Float64("temperature", cfg.Temperature).
		Msg("Creating AI review model")

	var model llms.Model
	var err error
	switch cfg.Provider {
	case "openai":
		model, err = createOpenAIModel(cfg)
	case "gemini":
		model, err = createGeminiModel(ctx, cfg)
	case "claude":
		model, err = createClaudeModel(cfg)
	case "cohere":
		model, err = createCohereModel(cfg)
	case "ollama":
		model, err = createOllamaModel(cfg)
	default:
		return nil, &models.ConfigurationError{
			Field:  "aireview.provider",
			Reason: fmt.Sprintf("unsupported provider %q", cfg.Provider),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", cfg.Provider, err)
	}

	r.model = model
	return r, nil
}

// Enabled reports whether the pass will call a model at all.
func (r *Reviewer) Enabled() bool {
	return r != nil && r.model != nil
}

// Review runs one pass over content. Transient provider failures are retried
// with backoff; an unparseable answer degrades to a single message-only issue
// carrying the raw text instead of failing.
func (r *Reviewer) Review(ctx context.Context, content string) ([]models.Issue, error) {
	if !r.Enabled() {
		return nil, nil
	}

	callOptions := []llms.CallOption{
		llms.WithTemperature(r.cfg.Temperature),
	}
	if r.cfg.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(r.cfg.MaxTokens))
	}
	// Gemini ignores the client-level default model, so name it per call.
	if r.cfg.Provider == "gemini" && r.cfg.Model != "" {
		callOptions = append(callOptions, llms.WithModel(r.cfg.Model))
	}

	prompt := fmt.Sprintf(reviewPrompt, content)

	var answer string
	result := retry.WithBackoff(ctx, r.retryCfg, func() error {
		var err error
		answer, err = llms.GenerateFromSinglePrompt(ctx, r.model, prompt, callOptions...)
		return err
	})
	if !result.Success {
		log.Warn().
			Err(result.LastError).
			Int("attempts", result.Attempts).
			Str("provider", r.cfg.Provider).
			Msg("AI review pass failed")
		return nil, result.LastError
	}

	decoded, stats, err := llm.ParseAnswer(answer)
	if err != nil {
		log.Warn().Err(err).Msg("AI review answer not parseable, keeping raw text")
		return report.AttributeIssues(report.NormalizeIssues(answer), models.SourceDMLPrompt, false), nil
	}
	if stats.WasRepaired {
		log.Debug().Strs("strategies", stats.Strategies).Msg("AI review answer repaired before decoding")
	}

	issues := report.NormalizeIssues(decoded)
	return report.AttributeIssues(issues, models.SourceDMLPrompt, false), nil
}

func createOpenAIModel(cfg config.AIReviewConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, cfg config.AIReviewConfig) (llms.Model, error) {
	return googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey))
}

func createClaudeModel(cfg config.AIReviewConfig) (llms.Model, error) {
	return anthropic.New(
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	)
}

func createCohereModel(cfg config.AIReviewConfig) (llms.Model, error) {
	opts := []cohere.Option{
		cohere.WithToken(cfg.APIKey),
		cohere.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, cohere.WithBaseURL(cfg.BaseURL))
	}
	return cohere.New(opts...)
}

func createOllamaModel(cfg config.AIReviewConfig) (llms.Model, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(cfg.Model),
	)
}
