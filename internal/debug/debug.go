// Package debug provides the generator's diagnostic logger, built on log/slog.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Format selects the slog handler used for output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	logger  = slog.New(slog.DiscardHandler)
	enabled bool
	mu      sync.RWMutex
)

// Init enables or disables debug logging to stderr in text format.
func Init(enable bool) {
	InitWriter(enable, os.Stderr, FormatText)
}

// InitWriter configures the logger. When enable is false every record is
// discarded regardless of level.
func InitWriter(enable bool, w io.Writer, format Format) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		logger = slog.New(slog.DiscardHandler)
		return
	}

	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(handler)
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }

func Info(msg string, args ...any) { current().Info(msg, args...) }

func Warn(msg string, args ...any) { current().Warn(msg, args...) }

func Error(msg string, args ...any) { current().Error(msg, args...) }

// Component returns a logger tagged with the emitting component, e.g.
// "batch" or "merge". The returned logger is bound to the handler active at
// call time.
func Component(name string) *slog.Logger {
	return current().With("component", name)
}

// Logger returns the underlying slog.Logger.
func Logger() *slog.Logger {
	return current()
}
