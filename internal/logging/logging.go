// Package logging wires the structured slog.Logger every compilation stage
// shares, matching the teacher's own choice of logging library (its lexer
// builds a slog.TextHandler directly rather than reaching for a third-party
// logging framework).
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// LevelTrace sits below slog.LevelDebug; slog has no built-in trace level,
// so "trace" on the CLI maps to this custom value.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps the CLI/--log-level (or LOG_LEVEL env) string to a
// slog.Level. Unknown strings fall back to slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch s {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// New builds the compilation-wide logger. Logs go to stderr, the same
// stream the CLI prints diagnostics to, unless logFile is set, in which
// case they go to that file, opened append-mode.
func New(levelStr, logFile string) (*slog.Logger, error) {
	level := ParseLevel(levelStr)

	var w *os.File = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		w = f
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl, ok := a.Value.Any().(slog.Level)
				if ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(handler), nil
}
