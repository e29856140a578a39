package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("base_url: got %q", cfg.BaseURL)
	}
	if cfg.CaptureInterval != 2*time.Second {
		t.Errorf("capture_interval: got %s, want 2s", cfg.CaptureInterval)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("poll_interval: got %s, want 2s", cfg.PollInterval)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "base_url: https://api.example.com\ncapture_interval: 500ms\ncapture_dir: /tmp/shots\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("base_url: got %q", cfg.BaseURL)
	}
	if cfg.CaptureInterval != 500*time.Millisecond {
		t.Errorf("capture_interval: got %s", cfg.CaptureInterval)
	}
	if cfg.CaptureDir != "/tmp/shots" {
		t.Errorf("capture_dir: got %q", cfg.CaptureDir)
	}
	// Unset fields keep defaults.
	if cfg.WSURL != DefaultWSURL {
		t.Errorf("ws_url: got %q", cfg.WSURL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCREENSAGE_BASE_URL", "https://env.example.com")
	t.Setenv("SCREENSAGE_POLL_INTERVAL_MS", "250")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("base_url: got %q", cfg.BaseURL)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("poll_interval: got %s", cfg.PollInterval)
	}
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("capture_interval: -1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative capture_interval")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
