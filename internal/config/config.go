// Package config loads client settings from an optional .env file, an
// optional YAML config file, and environment variables, in that order of
// increasing precedence. Flags override everything at the command layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBaseURL         = "http://localhost:8000"
	DefaultWSURL           = "ws://localhost:8000/ws"
	DefaultCaptureInterval = 2 * time.Second
	DefaultPollInterval    = 2 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
)

// Config holds client settings.
type Config struct {
	BaseURL         string        `yaml:"base_url"`
	WSURL           string        `yaml:"ws_url"`
	CaptureInterval time.Duration `yaml:"capture_interval"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	// Capture source settings for watch mode.
	CaptureFile    string `yaml:"capture_file"`
	CaptureCommand string `yaml:"capture_command"`
	CaptureDir     string `yaml:"capture_dir"`
}

// Load builds a Config from .env (if present), the YAML file at path (if
// non-empty), and SCREENSAGE_* environment variables.
func Load(path string) (Config, error) {
	// Missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		BaseURL:         DefaultBaseURL,
		WSURL:           DefaultWSURL,
		CaptureInterval: DefaultCaptureInterval,
		PollInterval:    DefaultPollInterval,
		RequestTimeout:  DefaultRequestTimeout,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.CaptureInterval <= 0 {
		return Config{}, fmt.Errorf("capture_interval must be positive, got %s", cfg.CaptureInterval)
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("poll_interval must be positive, got %s", cfg.PollInterval)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SCREENSAGE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SCREENSAGE_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	if v := os.Getenv("SCREENSAGE_CAPTURE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.CaptureInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("SCREENSAGE_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}
}
