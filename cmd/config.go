package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/sqlreview/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "sqlreview.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the resolved configuration with secrets masked",
				Action: runConfigShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.Init(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("=== Resolved Configuration ===")
	fmt.Printf("server.host                     = %s\n", cfg.Server.Host)
	fmt.Printf("server.port                     = %d\n", cfg.Server.Port)
	fmt.Printf("database.url                    = %s\n", maskOrUnset(cfg.Database.URL))
	fmt.Printf("logging.level                   = %s\n", cfg.Logging.Level)
	fmt.Printf("logging.pretty                  = %v\n", cfg.Logging.Pretty)
	fmt.Printf("workflow.endpoint               = %s\n", orUnset(cfg.Workflow.Endpoint))
	fmt.Printf("workflow.api_key                = %s\n", maskOrUnset(cfg.Workflow.APIKey))
	fmt.Printf("workflow.response_mode          = %s\n", cfg.Workflow.ResponseMode)
	fmt.Printf("workflow.timeout_seconds        = %d\n", cfg.Workflow.TimeoutSeconds)
	fmt.Printf("workflow.rate_limit_per_second  = %g\n", cfg.Workflow.RateLimitPerSecond)
	fmt.Printf("workflow.token_limit            = %d\n", cfg.Workflow.TokenLimit)
	fmt.Printf("workflow.approx_chars_per_token = %g\n", cfg.Workflow.ApproxCharsPerToken)
	fmt.Printf("workflow.safety_margin          = %g\n", cfg.Workflow.SafetyMargin)
	fmt.Printf("aireview.enabled                = %v\n", cfg.AIReview.Enabled)
	fmt.Printf("aireview.provider               = %s\n", cfg.AIReview.Provider)
	fmt.Printf("aireview.api_key                = %s\n", maskOrUnset(cfg.AIReview.APIKey))
	fmt.Printf("aireview.base_url               = %s\n", orUnset(cfg.AIReview.BaseURL))
	fmt.Printf("aireview.model                  = %s\n", cfg.AIReview.Model)
	fmt.Printf("aireview.max_tokens             = %d\n", cfg.AIReview.MaxTokens)
	fmt.Printf("aireview.temperature            = %g\n", cfg.AIReview.Temperature)
	fmt.Printf("aireview.max_retries            = %d\n", cfg.AIReview.MaxRetries)
	fmt.Printf("queue.max_workers               = %d\n", cfg.Queue.MaxWorkers)
	fmt.Println("==============================")
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Configuration is valid")
	return nil
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func maskOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return maskSecret(value)
}
