package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sqlreview/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "sqlreview",
		Usage:   "Deterministic SQL review with multi-source report aggregation",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Before: func(c *cli.Context) error {
			// A .env in the working directory augments the process
			// environment, matching the database URL discovery.
			if _, err := os.Stat(".env"); err == nil {
				if err := cmd.LoadEnvFile(".env"); err != nil {
					return fmt.Errorf("failed to load .env: %w", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.APICommand(),
			cmd.AnalyzeCommand(),
			cmd.ReportCommand(),
			cmd.ConfigCommand(),
			cmd.EnvCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
