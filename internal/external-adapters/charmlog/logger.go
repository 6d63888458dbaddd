// Package charmlog implements the domain logger on charmbracelet/log.
package charmlog

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
)

// Logger implements interfaces.Logger
type Logger struct {
	logger *log.Logger
}

// New creates a logger writing to w. Debug messages are emitted only when verbose is set.
func New(w io.Writer, verbose bool) *Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &Logger{
		logger: log.NewWithOptions(w, log.Options{
			Prefix:          "thirdparty-tool",
			Level:           level,
			ReportTimestamp: verbose,
		}),
	}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, keyvals(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, keyvals(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, keyvals(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, keyvals(fields)...)
}

func keyvals(fields []interfaces.Field) []interface{} {
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}
