package logger

import (
	"log/slog"
	"os"
)

// New builds the process logger. Development environments get human-readable
// text output, everything else gets JSON for log aggregation.
func New(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case "dev", "local":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler).With("service", "passcheck", "env", env)
}
