package common

import "context"

// Log levels understood by every PlannerLogger implementation.
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// PlannerLogger receives structured log lines from planning sessions
type PlannerLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger and session through context
type contextKey int

const (
	loggerKey contextKey = iota
	sessionKey
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger PlannerLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) PlannerLogger {
	if logger, ok := ctx.Value(loggerKey).(PlannerLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// WithSessionID tags the context with the planning session it belongs to
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionIDFromContext returns the session tag, or "" outside a session
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// noOpLogger is a logger that does nothing (fallback when no logger in context)
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {
	// Do nothing
}
