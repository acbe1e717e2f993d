package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/sqlreview/internal/api"
	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/jobqueue"
	"github.com/sqlreview/internal/store"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the SQLReview API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the configured server port",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if port := c.Int("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	service, reports, err := buildService(c.Context, cfg)
	if err != nil {
		return err
	}

	// The queue shares the review service, so queued jobs and synchronous
	// requests produce identical rows. It only runs with a database.
	var queueIface api.Enqueuer
	if reports != nil {
		databaseURL, err := store.ResolveDatabaseURL(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to get database URL: %w", err)
		}

		queue, err := jobqueue.New(c.Context, databaseURL, service, jobqueue.FromConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to create job queue: %w", err)
		}
		if err := queue.Migrate(c.Context); err != nil {
			return err
		}
		if err := queue.Start(c.Context); err != nil {
			return fmt.Errorf("failed to start job queue: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := queue.Stop(stopCtx); err != nil {
				log.Warn().Err(err).Msg("Job queue did not stop cleanly")
			}
		}()
		queueIface = queue
	}

	var reportsIface api.ReportStore
	if reports != nil {
		reportsIface = reports
	}

	fmt.Printf("Starting SQLReview API server on %s...\n", cfg.ListenAddr())
	server := api.NewServer(cfg, service, reportsIface, queueIface)
	return server.Start()
}
