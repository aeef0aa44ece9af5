// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options control handler construction.
type Options struct {
	// Level is the minimum level to emit.
	Level slog.Level
	// JSON switches from text to JSON output.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// FromEnv builds Options from LOG_LEVEL (DEBUG/INFO/WARN/ERROR) and
// LOG_FORMAT (text/json).
func FromEnv() Options {
	opts := Options{Level: slog.LevelInfo, Output: os.Stderr}
	if lv := os.Getenv("LOG_LEVEL"); lv != "" {
		opts.Level = parseLevel(lv)
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		opts.JSON = true
	}
	return opts
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs and returns the default slog logger.
func Setup(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, hopts)
	} else {
		handler = slog.NewTextHandler(opts.Output, hopts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
