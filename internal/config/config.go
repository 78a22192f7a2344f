package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"go-bingo/internal/reconnect"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type CardRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type Config struct {
	ServerURL string  `yaml:"server_url"`
	UserID    string  `yaml:"user_id"`
	Username  string  `yaml:"username"`
	BetAmount float64 `yaml:"bet_amount"`

	Cards            CardRange       `yaml:"cards"`
	DisplayCap       int             `yaml:"display_cap"`
	NextCallInterval time.Duration   `yaml:"next_call_interval"`
	Reconnect        ReconnectConfig `yaml:"reconnect"`

	StoragePath string `yaml:"storage_path"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		ServerURL:        "ws://localhost:8080/ws",
		Username:         "player",
		BetAmount:        10,
		Cards:            CardRange{Min: 1, Max: 400},
		DisplayCap:       50,
		NextCallInterval: 5 * time.Second,
		Reconnect: ReconnectConfig{
			MaxAttempts: 5,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load layers defaults, the YAML file at path (optional when empty), the dotenv
// file at envFile (ignored when missing) and BINGO_* environment variables.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()

	if cfg.UserID == "" {
		cfg.UserID = uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerURL = getEnv("BINGO_SERVER_URL", c.ServerURL)
	c.UserID = getEnv("BINGO_USER_ID", c.UserID)
	c.Username = getEnv("BINGO_USERNAME", c.Username)
	c.BetAmount = getEnvAsFloat("BINGO_BET_AMOUNT", c.BetAmount)
	c.Cards.Min = getEnvAsInt("BINGO_CARD_MIN", c.Cards.Min)
	c.Cards.Max = getEnvAsInt("BINGO_CARD_MAX", c.Cards.Max)
	c.DisplayCap = getEnvAsInt("BINGO_DISPLAY_CAP", c.DisplayCap)
	c.NextCallInterval = getEnvAsDuration("BINGO_NEXT_CALL_INTERVAL", c.NextCallInterval)
	c.Reconnect.MaxAttempts = getEnvAsInt("BINGO_RECONNECT_MAX_ATTEMPTS", c.Reconnect.MaxAttempts)
	c.Reconnect.BaseDelay = getEnvAsDuration("BINGO_RECONNECT_BASE_DELAY", c.Reconnect.BaseDelay)
	c.Reconnect.MaxDelay = getEnvAsDuration("BINGO_RECONNECT_MAX_DELAY", c.Reconnect.MaxDelay)
	c.StoragePath = getEnv("BINGO_STORAGE_PATH", c.StoragePath)
	c.LogFile = getEnv("BINGO_LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("BINGO_LOG_LEVEL", c.LogLevel)
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q: scheme must be ws or wss", c.ServerURL)
	}
	if c.BetAmount <= 0 {
		return fmt.Errorf("bet amount must be positive, got %v", c.BetAmount)
	}
	if c.Cards.Min < 1 || c.Cards.Max < c.Cards.Min {
		return fmt.Errorf("invalid card range [%d, %d]", c.Cards.Min, c.Cards.Max)
	}
	if c.DisplayCap <= 0 {
		return fmt.Errorf("display cap must be positive, got %d", c.DisplayCap)
	}
	if c.NextCallInterval <= 0 {
		return fmt.Errorf("next call interval must be positive, got %v", c.NextCallInterval)
	}
	if c.Reconnect.MaxAttempts < 0 || c.Reconnect.BaseDelay <= 0 || c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("invalid reconnect policy %+v", c.Reconnect)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func (c *Config) Policy() reconnect.Policy {
	return reconnect.Policy{
		MaxAttempts: c.Reconnect.MaxAttempts,
		BaseDelay:   c.Reconnect.BaseDelay,
		MaxDelay:    c.Reconnect.MaxDelay,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid integer")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid number")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid duration")
	}
	return defaultValue
}
