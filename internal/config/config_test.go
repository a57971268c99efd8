package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", DefaultTimeout},
		{"30s", 30 * time.Second},
		{"2m", 2 * time.Minute},
		{"garbage", DefaultTimeout},
		{"-5s", DefaultTimeout},
		{"0s", DefaultTimeout},
	}
	for _, tt := range tests {
		if got := parseTimeout(tt.in); got != tt.want {
			t.Errorf("parseTimeout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("QUOTACHAT_SERVER_URL", "https://chat.example.com")
	t.Setenv("QUOTACHAT_CLIENT_TIMEOUT", "15s")
	t.Setenv("QUOTACHAT_LOG_LEVEL", "DEBUG")

	cfg := Load()
	if cfg.ServerURL != "https://chat.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server_url: https://file.example.com\nlog_level: WARN\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fc := loadFile(path)
	if fc.ServerURL != "https://file.example.com" {
		t.Errorf("ServerURL = %q", fc.ServerURL)
	}
	if fc.LogLevel != "WARN" {
		t.Errorf("LogLevel = %q", fc.LogLevel)
	}
}

func TestLoadFileMissingOrMalformed(t *testing.T) {
	if fc := loadFile(filepath.Join(t.TempDir(), "nope.yaml")); fc.ServerURL != "" {
		t.Errorf("missing file produced config: %+v", fc)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("{not yaml::"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Malformed files are ignored, not fatal.
	_ = loadFile(path)
}
