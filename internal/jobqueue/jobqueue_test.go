package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/review"
)

func testService() *review.Service {
	cfg := &config.Config{}
	cfg.Workflow.TokenLimit = 4000
	cfg.Workflow.ApproxCharsPerToken = 3.0
	cfg.Workflow.SafetyMargin = 0.9
	return review.NewService(cfg, nil, nil, nil)
}

func testJob(args ReportJobArgs) *river.Job[ReportJobArgs] {
	return &river.Job[ReportJobArgs]{JobRow: &rivertype.JobRow{ID: 7}, Args: args}
}

func TestReportJobKind(t *testing.T) {
	if got := (ReportJobArgs{}).Kind(); got != "report_generate" {
		t.Errorf("Kind() = %q, want report_generate", got)
	}
}

func TestWorkerTimeout(t *testing.T) {
	worker := &ReportWorker{config: &QueueConfig{JobTimeout: 2 * time.Minute}}
	if got := worker.Timeout(nil); got != 2*time.Minute {
		t.Errorf("Timeout() = %v, want 2m0s", got)
	}
}

func TestWorkGeneratesReport(t *testing.T) {
	worker := &ReportWorker{service: testService(), config: DefaultQueueConfig()}
	err := worker.Work(context.Background(), testJob(ReportJobArgs{
		ProjectID: "proj-1",
		Path:      "db/patch.sql",
		Content:   "DELETE FROM users;",
	}))
	if err != nil {
		t.Fatalf("Work failed: %v", err)
	}
}

func TestWorkRejectsInvalidArgs(t *testing.T) {
	worker := &ReportWorker{service: testService(), config: DefaultQueueConfig()}
	err := worker.Work(context.Background(), testJob(ReportJobArgs{
		Path:    "db/patch.sql",
		Content: "SELECT 1;",
	}))
	if err == nil {
		t.Fatal("Expected an error for a job without a project id")
	}
}

func TestFromConfig(t *testing.T) {
	if got := FromConfig(nil).MaxWorkers; got != 5 {
		t.Errorf("Default MaxWorkers = %d, want 5", got)
	}

	cfg := &config.Config{}
	cfg.Queue.MaxWorkers = 12
	derived := FromConfig(cfg)
	if derived.MaxWorkers != 12 {
		t.Errorf("MaxWorkers = %d, want 12", derived.MaxWorkers)
	}
	if derived.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want default 5", derived.MaxAttempts)
	}
}

func TestRiverQueueConfig(t *testing.T) {
	queueConfig := QueueConfig{MaxWorkers: 3}
	got := queueConfig.RiverQueueConfig()
	if got[river.QueueDefault].MaxWorkers != 3 {
		t.Errorf("Default queue MaxWorkers = %d, want 3", got[river.QueueDefault].MaxWorkers)
	}
}
