package logger

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stderr, slog.LevelInfo)
)

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// Init reconfigures the package logger. Level is one of
// "debug", "info", "warn", "error" (unknown values fall back to info).
func Init(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, parseLevel(level))
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

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func args(component string, fields map[string]any) []any {
	out := make([]any, 0, 2+2*len(fields))
	out = append(out, "component", component)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

func DebugC(component, msg string) {
	current().Debug(msg, args(component, nil)...)
}

func DebugCF(component, msg string, fields map[string]any) {
	current().Debug(msg, args(component, fields)...)
}

func InfoC(component, msg string) {
	current().Info(msg, args(component, nil)...)
}

func InfoCF(component, msg string, fields map[string]any) {
	current().Info(msg, args(component, fields)...)
}

func WarnC(component, msg string) {
	current().Warn(msg, args(component, nil)...)
}

func WarnCF(component, msg string, fields map[string]any) {
	current().Warn(msg, args(component, fields)...)
}

func ErrorC(component, msg string) {
	current().Error(msg, args(component, nil)...)
}

func ErrorCF(component, msg string, fields map[string]any) {
	current().Error(msg, args(component, fields)...)
}
