package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: text to stderr, JSON to file.
// Returns the logger and a cleanup function to close the file.
//
// When the TUI is running it owns the terminal, so callers pass
// withStderr=false and the logger writes to the file only.
func SetupLogger(logFile string, level slog.Level, withStderr bool) (*slog.Logger, func() error) {
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		if withStderr {
			slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
			return slog.New(stderrHandler), func() error { return nil }
		}
		// No terminal and no file: discard rather than corrupt the UI.
		discard := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
		return slog.New(discard), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: level,
	})

	cleanup := func() error {
		return file.Close()
	}

	if !withStderr {
		return slog.New(fileHandler), cleanup
	}

	logger := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
	return logger, cleanup
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
