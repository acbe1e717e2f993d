package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sqlreview/internal/config"
	"github.com/sqlreview/internal/store"
)

// EnvCommand returns the env command
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:   "env",
		Usage:  "Check required configuration and environment",
		Action: runEnvCheck,
	}
}

func runEnvCheck(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result := CheckRequiredConfig(cfg)
	PrintConfigCheck(result)

	if len(result.Missing) > 0 {
		return fmt.Errorf("missing required configuration")
	}
	return nil
}

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required values that are missing
	Present  map[string]string // Values that are set (masked where secret)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig reports which of the values the server needs are set.
// A missing database or workflow endpoint is a warning, not an error: the
// rule engine still works without either.
func CheckRequiredConfig(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	if url, err := store.ResolveDatabaseURL(cfg.Database.URL); err == nil {
		result.Present["database.url"] = maskSecret(url)
	} else {
		result.Warnings = append(result.Warnings, "no database configured: reports are not persisted and the job queue stays off")
	}

	if cfg.Workflow.Endpoint != "" {
		result.Present["workflow.endpoint"] = cfg.Workflow.Endpoint
		if cfg.Workflow.APIKey != "" {
			result.Present["workflow.api_key"] = maskSecret(cfg.Workflow.APIKey)
		} else {
			result.Missing = append(result.Missing, "workflow.api_key")
		}
	} else {
		result.Warnings = append(result.Warnings, "workflow.endpoint not set: non-SQL paths cannot be reviewed")
	}

	if cfg.AIReview.Enabled {
		result.Present["aireview.provider"] = cfg.AIReview.Provider
		if cfg.AIReview.APIKey != "" {
			result.Present["aireview.api_key"] = maskSecret(cfg.AIReview.APIKey)
		} else if cfg.AIReview.Provider != "ollama" {
			result.Missing = append(result.Missing, "aireview.api_key")
		}
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(result *ConfigCheckResult) {
	fmt.Println("=== Configuration Check ===")
	fmt.Println("")

	if len(result.Missing) > 0 {
		fmt.Println("❌ Missing required values:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("✓ Configured values:")
		for _, k := range keys {
			fmt.Printf("   - %s = %s\n", k, result.Present[k])
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("⚠ Warning: %s\n", w)
	}

	if len(result.Missing) == 0 {
		fmt.Println("✓ All required configuration is present")
	}

	fmt.Println("============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}
