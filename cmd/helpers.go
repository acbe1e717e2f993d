package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/sqlreview/internal/aireview"
	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/dify"
	"github.com/sqlreview/internal/logging"
	"github.com/sqlreview/internal/review"
	"github.com/sqlreview/internal/store"
)

// loadConfig resolves the configuration for a command and installs the
// logger it describes.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
	return cfg, nil
}

// buildService wires the review service from the configuration. The workflow
// client, AI reviewer, and store are each optional; a nil dependency stays a
// nil interface so the service can tell.
func buildService(ctx context.Context, cfg *config.Config) (*review.Service, *store.Store, error) {
	var workflow review.Workflow
	if cfg.Workflow.Endpoint != "" {
		client, err := dify.NewClient(cfg.Workflow)
		if err != nil {
			return nil, nil, err
		}
		workflow = client
	}

	var reviewer review.AIReviewer
	ai, err := aireview.New(ctx, cfg.AIReview)
	if err != nil {
		return nil, nil, err
	}
	if ai.Enabled() {
		reviewer = ai
	}

	var (
		st      *store.Store
		reports review.Reports
	)
	if databaseConfigured(cfg) {
		db, err := store.Open(cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		st = store.New(db)
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		reports = st
	} else {
		log.Warn().Msg("No database configured, reports will not be persisted")
	}

	return review.NewService(cfg, workflow, reviewer, reports), st, nil
}

func databaseConfigured(cfg *config.Config) bool {
	_, err := store.ResolveDatabaseURL(cfg.Database.URL)
	return err == nil
}

// printJSON writes v to stdout, indented unless compact is requested.
func printJSON(v interface{}, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
