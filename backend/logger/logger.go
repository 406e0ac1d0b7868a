// ABOUTME: Structured logging setup on log/slog for the service and the CLI
// ABOUTME: Level and format come from LOG_LEVEL and LOG_FORMAT; output is any writer

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler built by New
type Options struct {
	Level  string // debug, info, warn, error (default: info)
	Format string // text, json (default: text)
	Output io.Writer
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT, writing to stdout
func FromEnv() Options {
	return Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
		Output: os.Stdout,
	}
}

// New builds a logger for opts. A nil Output discards everything.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// Init installs the environment-configured logger as the slog default.
func Init() {
	slog.SetDefault(New(FromEnv()))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
