package observability

import (
	"log/slog"
	"os"
)

// NewLogger emits JSON in production for the log pipeline and leveled text
// everywhere else. Local runs get debug output since that is where logs are
// read by hand.
func NewLogger(env string) *slog.Logger {
	switch env {
	case "prod", "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
