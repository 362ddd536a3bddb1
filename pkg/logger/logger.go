package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/devraulu/linkscrub/pkg/config"
)

func InitLogger(cfg *config.Config) {
	slog.SetDefault(New(os.Stderr, cfg.Logging))
}

func New(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		opts.ReplaceAttr = numericLevel
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(
		"name", "linkscrub",
		"pid", os.Getpid(),
		"hostname", hostname,
	)
}

// numericLevel writes the record level as a bunyan number so JSON output can
// be piped through the bunyan CLI.
func numericLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok {
		return slog.Int(slog.LevelKey, bunyanLevel(level))
	}
	return a
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func bunyanLevel(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return 50
	case level >= slog.LevelWarn:
		return 40
	case level >= slog.LevelInfo:
		return 30
	case level >= slog.LevelDebug:
		return 20
	default:
		return 10
	}
}
