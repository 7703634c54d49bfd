package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger
// Console logs go to stderr so that command output on stdout stays clean.
// If logOutputDir is non-empty, logs are also written to a timestamped JSON file in that directory
func Setup(levelStr string, logOutputDir string) error {
	level := ParseLevel(levelStr)

	consoleHandler := tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.TimeOnly})

	if logOutputDir == "" {
		slog.SetDefault(slog.New(consoleHandler))
		return nil
	}

	logFile, logFilePath, err := openLogFile(logOutputDir, time.Now())
	if err != nil {
		return err
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})

	slog.SetDefault(slog.New(
		slogmulti.Fanout(consoleHandler, fileHandler),
	))

	fmt.Fprintf(os.Stderr, "Logging to file: %s\n", logFilePath)

	return nil
}

func openLogFile(dir string, now time.Time) (*os.File, string, error) {
	logDir := os.ExpandEnv(dir)

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create log output directory: %w", err)
	}

	logFileName := fmt.Sprintf("gcmtool_%s.log", now.Format("20060102_150405"))
	logFilePath := filepath.Join(logDir, logFileName)

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file: %w", err)
	}
	return logFile, logFilePath, nil
}

// ParseLevel converts a string log level to slog.Level
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug", "trace":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
