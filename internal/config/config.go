// Package config loads client configuration and builds the logger.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when no server is configured.
const DefaultServerURL = "http://localhost:8000"

// DefaultTimeout bounds every gateway call. A timed-out chat turn resolves
// as a failed turn, so the controller never stays in Submitting forever.
const DefaultTimeout = 60 * time.Second

// Config holds all configuration values.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	LogFile   string
	LogLevel  slog.Level
}

// fileConfig mirrors the optional YAML config file.
type fileConfig struct {
	ServerURL string `yaml:"server_url"`
	Timeout   string `yaml:"timeout"`
	LogFile   string `yaml:"log_file"`
	LogLevel  string `yaml:"log_level"`
}

// Load reads configuration with precedence: environment variables, then a
// .env file in the working directory, then ~/.config/quotachat/config.yaml,
// then defaults. godotenv never overrides variables already set, which gives
// the env > .env ordering for free.
func Load() Config {
	_ = godotenv.Load()

	fc := loadFile(configFilePath())

	return Config{
		ServerURL: getEnv("QUOTACHAT_SERVER_URL", firstNonEmpty(fc.ServerURL, DefaultServerURL)),
		Timeout:   parseTimeout(getEnv("QUOTACHAT_CLIENT_TIMEOUT", fc.Timeout)),
		LogFile:   getEnv("QUOTACHAT_LOG_FILE", firstNonEmpty(fc.LogFile, defaultLogFile())),
		LogLevel:  parseLogLevel(getEnv("QUOTACHAT_LOG_LEVEL", firstNonEmpty(fc.LogLevel, "INFO"))),
	}
}

func configFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quotachat", "config.yaml")
}

func defaultLogFile() string {
	return filepath.Join(os.TempDir(), "quotachat.log")
}

func loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	// A malformed config file is ignored rather than fatal; env vars and
	// defaults still apply.
	_ = yaml.Unmarshal(data, &fc)
	return fc
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTimeout(s string) time.Duration {
	if s == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
