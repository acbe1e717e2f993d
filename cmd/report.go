package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/review"
)

// ReportCommand returns the CLI command running the full pipeline once
func ReportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate a combined report for one file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project",
				Usage:    "Project identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "path",
				Usage:    "File path the content belongs to",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "content-file",
				Usage: "Read the content from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "Read the content from stdin",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User identifier recorded on the report",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print compact JSON instead of indented",
			},
		},
		Action: runReport,
	}
}

func runReport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var content []byte
	switch {
	case c.Bool("stdin"):
		content, err = io.ReadAll(os.Stdin)
	case c.String("content-file") != "":
		content, err = os.ReadFile(c.String("content-file"))
	default:
		return fmt.Errorf("either --content-file or --stdin is required")
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	service, _, err := buildService(c.Context, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
	defer cancel()

	result, err := service.GenerateReport(ctx, review.Request{
		ProjectID: c.String("project"),
		Path:      c.String("path"),
		Content:   string(content),
		UserID:    c.String("user"),
	})
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	return printJSON(result, !c.Bool("json"))
}
