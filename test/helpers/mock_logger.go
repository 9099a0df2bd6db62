package helpers

import (
	"strings"
	"sync"
)

// LogEntry is one captured log line
type LogEntry struct {
	Level    string
	Message  string
	Metadata map[string]interface{}
}

// CapturingLogger records every log call
type CapturingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

// NewCapturingLogger creates an empty capturing logger
func NewCapturingLogger() *CapturingLogger {
	return &CapturingLogger{}
}

// Log records the entry
func (l *CapturingLogger) Log(level, message string, metadata map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Message: message, Metadata: metadata})
}

// Contains reports whether a message at level contains substr
func (l *CapturingLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
