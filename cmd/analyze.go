package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sqlreview/internal/sqlcheck"
)

// AnalyzeCommand returns the CLI command for the local rule engine
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Run the local SQL rule engine on a file or stdin",
		ArgsUsage: "FILE|-",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print compact JSON instead of indented",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: FILE (use - for stdin)")
	}

	name := c.Args().Get(0)
	var (
		content []byte
		err     error
	)
	if name == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(name)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return printJSON(sqlcheck.Analyze(string(content)), !c.Bool("json"))
}
