package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/coinsight/coinsight/internal/config"
)

// NewLogger builds the process-wide slog logger from logging config.
func NewLogger(cfg config.LoggingConfig, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With(slog.String("service", "coinsight"))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
