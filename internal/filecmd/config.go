package filecmd

import (
	"log/slog"
	"os"
	"strings"
)

// Environment variables read by the commands. A .env file in the working
// directory is loaded before any command runs.
const (
	EnvLogLevel = "PYPEITFILE_LOG_LEVEL"
	EnvIndex    = "PYPEITFILE_INDEX"
	EnvPort     = "PYPEITFILE_PORT"
)

const (
	defaultIndexPath = "pypeit_frames.db"
	DefaultPort      = "8888"
)

// Getenv returns the value of key, or def when it is unset or empty.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SetupLogging installs the default slog logger on stderr. verbose forces
// debug level; otherwise PYPEITFILE_LOG_LEVEL decides, defaulting to info.
func SetupLogging(verbose bool) {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
