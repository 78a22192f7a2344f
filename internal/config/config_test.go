package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Cards.Min != 1 || cfg.Cards.Max != 400 || cfg.DisplayCap != 50 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.UserID == "" {
		t.Error("expected a generated user id")
	}
	if p := cfg.Policy(); p.MaxAttempts != 5 || p.BaseDelay != time.Second || p.MaxDelay != 30*time.Second {
		t.Errorf("unexpected policy %+v", p)
	}
}

func TestLoad_LayersFileDotenvAndEnv(t *testing.T) {
	path := writeFile(t, "bingo.yaml", `
server_url: wss://bingo.example.com/ws
username: yaml-user
bet_amount: 25
next_call_interval: 3s
reconnect:
  max_attempts: 8
  base_delay: 500ms
  max_delay: 10s
`)
	envFile := writeFile(t, ".env", "BINGO_USERNAME=dotenv-user\nBINGO_DISPLAY_CAP=20\n")
	t.Setenv("BINGO_DISPLAY_CAP", "30")
	// Setenv restores the variable godotenv is about to set once the test ends.
	t.Setenv("BINGO_USERNAME", "")
	os.Unsetenv("BINGO_USERNAME")

	cfg, err := Load(path, envFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "wss://bingo.example.com/ws" || cfg.BetAmount != 25 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.NextCallInterval != 3*time.Second || cfg.Reconnect.BaseDelay != 500*time.Millisecond {
		t.Errorf("durations not parsed: %v %v", cfg.NextCallInterval, cfg.Reconnect.BaseDelay)
	}
	if cfg.Username != "dotenv-user" {
		t.Errorf("expected dotenv username, got %q", cfg.Username)
	}
	if cfg.DisplayCap != 30 {
		t.Errorf("expected environment to win over dotenv, got %d", cfg.DisplayCap)
	}
}

func TestLoad_MissingDotenvIgnored(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing dotenv should be ignored, got %v", err)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http scheme", func(c *Config) { c.ServerURL = "http://localhost" }},
		{"zero bet", func(c *Config) { c.BetAmount = 0 }},
		{"inverted range", func(c *Config) { c.Cards = CardRange{Min: 10, Max: 5} }},
		{"zero display cap", func(c *Config) { c.DisplayCap = 0 }},
		{"max delay below base", func(c *Config) { c.Reconnect.MaxDelay = time.Millisecond }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}
