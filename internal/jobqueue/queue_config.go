/*
Package jobqueue configuration - all tunable parameters for the River job
queue live here so the queue code stays free of magic numbers.

## Quick configuration reference:

### Performance tuning:
- MaxWorkers bounds concurrent report generations. Each worker can hold a
  workflow conversation open, so this also caps load on the remote
  endpoint.
- MaxAttempts counts runs per job, first run included. River schedules
  the backoff between attempts.
- JobTimeout is the ceiling for one report generation, segmented
  workflow exchange included.

## Database requirements:
- PostgreSQL with River's schema migrations applied; JobQueue.Migrate
  applies them at startup.
- Failed jobs retain error information in the River jobs table.
*/
package jobqueue

import (
	"time"

	"github.com/riverqueue/river"

	"github.com/sqlreview/internal/config"
)

// QueueConfig holds all configurable parameters for the job queue.
type QueueConfig struct {
	// MaxWorkers is the number of concurrent workers processing jobs.
	MaxWorkers int

	// MaxAttempts is the maximum number of runs per job, first run included.
	MaxAttempts int

	// JobTimeout is the maximum time a single job can run.
	JobTimeout time.Duration
}

// DefaultQueueConfig returns the default configuration.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers:  5,
		MaxAttempts: 5,
		JobTimeout:  5 * time.Minute,
	}
}

// FromConfig derives queue settings from the application configuration,
// keeping defaults for anything unset.
func FromConfig(cfg *config.Config) *QueueConfig {
	queueConfig := DefaultQueueConfig()
	if cfg != nil && cfg.Queue.MaxWorkers > 0 {
		queueConfig.MaxWorkers = cfg.Queue.MaxWorkers
	}
	return queueConfig
}

// RiverQueueConfig converts our config to River's queue configuration format.
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
