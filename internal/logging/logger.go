// Package logging provides the structured logger used across every pipeline
// stage. It wraps zerolog behind a narrow key/value call shape so stages
// never import zerolog directly.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger provides structured logging for the pipeline.
type Logger struct {
	prefix string
	zl     zerolog.Logger
}

// NewLogger creates a new logger tagged with the given component prefix.
func NewLogger(prefix string) *Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Str("component", prefix).
		Logger()
	return &Logger{prefix: prefix, zl: zl}
}

// WithRunID returns a derived logger tagged with a run correlation ID.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{prefix: l.prefix, zl: l.zl.With().Str("run_id", runID).Logger()}
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.zl.Info(), msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.zl.Warn(), msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.zl.Error(), msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.zl.Debug(), msg, keysAndValues...)
}

func (l *Logger) logWithKV(ev *zerolog.Event, msg string, keysAndValues ...interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}
