package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlreview/pkg/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlreview.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, "[database]\nurl = \"postgres://localhost/sqlreview\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/sqlreview" {
		t.Errorf("database.url = %q", cfg.Database.URL)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Workflow.ResponseMode != "blocking" {
		t.Errorf("workflow.response_mode = %q, want default blocking", cfg.Workflow.ResponseMode)
	}
	if cfg.Workflow.TokenLimit != 4000 || cfg.Workflow.ApproxCharsPerToken != 3.0 || cfg.Workflow.SafetyMargin != 0.9 {
		t.Errorf("workflow budget defaults = %d/%v/%v",
			cfg.Workflow.TokenLimit, cfg.Workflow.ApproxCharsPerToken, cfg.Workflow.SafetyMargin)
	}
	if cfg.Queue.MaxWorkers != 5 {
		t.Errorf("queue.max_workers = %d, want default 5", cfg.Queue.MaxWorkers)
	}
	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestLoadFileValuesAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000

[workflow]
endpoint = "https://dify.internal/v1"
api_key = "file-key"
token_limit = 8000
`)
	t.Setenv("SQLREVIEW_SERVER_PORT", "9999")
	t.Setenv("SQLREVIEW_WORKFLOW_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Workflow.APIKey != "env-key" {
		t.Errorf("workflow.api_key = %q, want env override", cfg.Workflow.APIKey)
	}
	if cfg.Workflow.Endpoint != "https://dify.internal/v1" {
		t.Errorf("workflow.endpoint = %q, want file value kept", cfg.Workflow.Endpoint)
	}
	if cfg.Workflow.TokenLimit != 8000 {
		t.Errorf("workflow.token_limit = %d, want file value 8000", cfg.Workflow.TokenLimit)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Server.Port = 8080
		cfg.Workflow.ResponseMode = "blocking"
		cfg.Workflow.TimeoutSeconds = 120
		cfg.Workflow.RateLimitPerSecond = 1
		return cfg
	}

	if err := Validate(base()); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"timeout not positive", func(c *Config) { c.Workflow.TimeoutSeconds = 0 }},
		{"bad response mode", func(c *Config) { c.Workflow.ResponseMode = "chunked" }},
		{"negative rate limit", func(c *Config) { c.Workflow.RateLimitPerSecond = -1 }},
		{"ai review without key", func(c *Config) {
			c.AIReview.Enabled = true
			c.AIReview.Provider = "openai"
		}},
		{"ai review unknown provider", func(c *Config) {
			c.AIReview.Enabled = true
			c.AIReview.Provider = "watson"
			c.AIReview.APIKey = "k"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !models.IsConfigurationError(err) {
				t.Errorf("expected a configuration error, got %T", err)
			}
		})
	}
}

func TestInitRefusesExistingFile(t *testing.T) {
	path := writeConfig(t, "# already here\n")
	if err := Init(path); err == nil {
		t.Error("expected Init to refuse an existing file")
	}
}

func TestInitWritesLoadableSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlreview.toml")
	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of generated sample: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("generated sample does not validate: %v", err)
	}
}
