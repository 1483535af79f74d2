// Package logger строит slog-логгер для CLI.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"go.trai.ch/zerr"
)

// ParseLevel переводит имя уровня (debug, info, warn, error) в slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, zerr.With(zerr.New("unknown log level"), "level", name)
	}
}

// New возвращает текстовый логгер, пишущий в w.
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler), nil
}
