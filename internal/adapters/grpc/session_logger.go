package grpc

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/commands"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/queries"
)

// daemonLogID tags log lines that do not belong to a session
const daemonLogID = "daemon"

var levelRank = map[string]int{
	common.LevelDebug:   0,
	common.LevelInfo:    1,
	common.LevelWarning: 2,
	common.LevelError:   3,
}

// LoggerFactory builds the per-session loggers used by the daemon
type LoggerFactory struct {
	logRepo  persistence.PlannerLogRepository
	minLevel int
	persist  bool
	out      io.Writer

	pending sync.WaitGroup
}

// NewLoggerFactory creates a factory. Entries below minLevel are dropped;
// persist controls whether entries are written to logRepo.
func NewLoggerFactory(logRepo persistence.PlannerLogRepository, minLevel string, persist bool) *LoggerFactory {
	rank, ok := levelRank[strings.ToUpper(minLevel)]
	if !ok {
		rank = levelRank[common.LevelInfo]
	}
	return &LoggerFactory{
		logRepo:  logRepo,
		minLevel: rank,
		persist:  persist && logRepo != nil,
		out:      os.Stdout,
	}
}

// SetOutput redirects the stdout echo
func (f *LoggerFactory) SetOutput(w io.Writer) { f.out = w }

// For returns the logger of a session
func (f *LoggerFactory) For(sessionID string) *SessionLogger {
	if sessionID == "" {
		sessionID = daemonLogID
	}
	return &SessionLogger{factory: f, sessionID: sessionID}
}

// Wait blocks until every asynchronous persist has finished
func (f *LoggerFactory) Wait() { f.pending.Wait() }

// Middleware attaches the session logger of each request to its context
func (f *LoggerFactory) Middleware() common.Middleware {
	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		ctx = common.WithLogger(ctx, f.For(requestSessionID(request)))
		return next(ctx, request)
	}
}

// SessionLogger echoes planner log lines to stdout and persists them
// asynchronously.
type SessionLogger struct {
	factory   *LoggerFactory
	sessionID string
}

// SessionID returns the session the logger writes for
func (l *SessionLogger) SessionID() string { return l.sessionID }

// Log implements common.PlannerLogger
func (l *SessionLogger) Log(level, message string, metadata map[string]interface{}) {
	f := l.factory
	if rank, ok := levelRank[level]; ok && rank < f.minLevel {
		return
	}

	fmt.Fprintf(f.out, "[%s] [%s] %s: %s\n",
		time.Now().Format(time.RFC3339),
		l.sessionID,
		level,
		message,
	)

	if !f.persist {
		return
	}

	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := f.logRepo.Log(ctx, l.sessionID, message, level, metadata); err != nil {
			fmt.Fprintf(f.out, "[%s] [%s] ERROR: Failed to persist log to DB: %v\n",
				time.Now().Format(time.RFC3339),
				l.sessionID,
				err,
			)
		}
	}()
}

func requestSessionID(request common.Request) string {
	switch r := request.(type) {
	case *commands.StartSessionCommand:
		return r.SessionID
	case *commands.StopSessionCommand:
		return r.SessionID
	case *commands.PlanTickCommand:
		return r.SessionID
	case *commands.ObserveUnitsCommand:
		return r.SessionID
	case *commands.ActionEventCommand:
		return r.SessionID
	case *queries.GetPlanQuery:
		return r.SessionID
	}
	return ""
}
