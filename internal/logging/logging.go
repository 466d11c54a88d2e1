// Package logging builds the slog logger used by the CLI and the harness.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/migsmoke/internal/config"
)

// New creates a logger from cfg. Logs go to stderr unless cfg.File is set,
// in which case they go to a lumberjack-rotated file. verbose forces debug level.
//
// The returned closer releases the log file; it is a no-op for stderr.
func New(cfg config.LoggingConfig, stderr io.Writer, verbose bool) (*slog.Logger, io.Closer, error) {
	var w io.Writer = stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, err
			}
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = lj
		closer = lj
	}

	level := ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	return NewWithWriter(cfg.Format, level, w), closer, nil
}

// NewWithWriter creates a logger writing to w in the given format ("json" or "text").
func NewWithWriter(format string, level slog.Level, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
