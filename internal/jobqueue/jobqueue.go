/*
Package jobqueue provides a River-based job queue for asynchronous report
generation.

For configuration options and tuning parameters, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/zerolog/log"

	"github.com/sqlreview/internal/review"
	"github.com/sqlreview/pkg/models"
)

// ReportJobArgs carries one report generation request through the queue.
type ReportJobArgs struct {
	ProjectID string            `json:"project_id"`
	Path      string            `json:"path"`
	Content   string            `json:"content"`
	UserID    string            `json:"user_id,omitempty"`
	Selection *models.Selection `json:"selection,omitempty"`
}

// Kind returns the job kind for River.
func (ReportJobArgs) Kind() string {
	return "report_generate"
}

// ReportWorker handles report generation jobs.
type ReportWorker struct {
	river.WorkerDefaults[ReportJobArgs]
	service *review.Service
	config  *QueueConfig
}

// Timeout bounds a single report generation run, segmented workflow
// exchange included.
func (w *ReportWorker) Timeout(*river.Job[ReportJobArgs]) time.Duration {
	return w.config.JobTimeout
}

// Work generates and persists one report.
func (w *ReportWorker) Work(ctx context.Context, job *river.Job[ReportJobArgs]) error {
	args := job.Args

	log.Info().
		Int64("job_id", job.ID).
		Str("project_id", args.ProjectID).
		Str("path", args.Path).
		Msg("Processing report job")

	result, err := w.service.GenerateReport(ctx, review.Request{
		ProjectID: args.ProjectID,
		Path:      args.Path,
		Content:   args.Content,
		Selection: args.Selection,
		UserID:    args.UserID,
	})
	if err != nil {
		// Bad input cannot become good input on a later attempt.
		if models.IsInputError(err) {
			return river.JobCancel(err)
		}
		return fmt.Errorf("failed to generate report: %w", err)
	}

	for _, warning := range result.Warnings {
		log.Warn().
			Int64("job_id", job.ID).
			Str("path", args.Path).
			Str("detail", warning).
			Msg("Report job degraded")
	}

	log.Info().
		Int64("job_id", job.ID).
		Str("project_id", args.ProjectID).
		Str("path", args.Path).
		Int("issues", len(result.Report.Issues)).
		Msg("Report job completed")
	return nil
}

// JobQueue manages the River job queue.
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// New creates a job queue working against databaseURL. Jobs run through
// service, so the queue and the synchronous API produce identical rows.
func New(ctx context.Context, databaseURL string, service *review.Service, config *QueueConfig) (*JobQueue, error) {
	if config == nil {
		config = DefaultQueueConfig()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &ReportWorker{service: service, config: config})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:      config.RiverQueueConfig(),
		Workers:     workers,
		MaxAttempts: config.MaxAttempts,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Migrate applies River's schema migrations so a fresh database can
// accept jobs.
func (jq *JobQueue) Migrate(ctx context.Context) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(jq.pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("failed to apply queue migrations: %w", err)
	}
	return nil
}

// Start starts the job queue workers.
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers and closes the pool.
func (jq *JobQueue) Stop(ctx context.Context) error {
	err := jq.client.Stop(ctx)
	jq.pool.Close()
	return err
}

// EnqueueReport queues a report generation job and returns its job id.
func (jq *JobQueue) EnqueueReport(ctx context.Context, args ReportJobArgs) (int64, error) {
	result, err := jq.client.Insert(ctx, args, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to queue report job: %w", err)
	}
	return result.Job.ID, nil
}
