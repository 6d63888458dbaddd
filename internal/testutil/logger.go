// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"

	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
)

// LogEntry is one message captured by RecordingLogger
type LogEntry struct {
	Level   string
	Message string
	Fields  []interfaces.Field
}

// RecordingLogger keeps every message in memory so tests can assert on warnings
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

// Debug records a debug message
func (r *RecordingLogger) Debug(msg string, fields ...interfaces.Field) { r.add("DEBUG", msg, fields) }

// Info records an informational message
func (r *RecordingLogger) Info(msg string, fields ...interfaces.Field) { r.add("INFO", msg, fields) }

// Warn records a warning
func (r *RecordingLogger) Warn(msg string, fields ...interfaces.Field) { r.add("WARN", msg, fields) }

// Error records an error message
func (r *RecordingLogger) Error(msg string, fields ...interfaces.Field) { r.add("ERROR", msg, fields) }

// Count returns the number of recorded entries at level
func (r *RecordingLogger) Count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (r *RecordingLogger) add(level, msg string, fields []interfaces.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, LogEntry{Level: level, Message: msg, Fields: fields})
}
