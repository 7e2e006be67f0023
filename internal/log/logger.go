// Package log configures the application's structured logging. Every
// component logs through slog with a component attribute, so one
// process-wide handler serves both commands.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a text-handler logger at the given level, tagged with the
// component name. Unknown level strings fall back to info.
func New(component, level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("component", component)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault installs the logger as the process default, so packages
// that log via slog.Default pick it up.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
