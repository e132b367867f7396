// Package runlog records completed workflow runs: one structured log line per run,
// plus an optional Redis-backed history of recent runs per post.
package runlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aioseo_meta_workflow/workflow"
)

const UnknownTrigger = "unknown"

// Logger implements workflow.RunLogger.
type Logger struct {
	log     *zap.Logger
	history *History
}

// New returns a run logger. history may be nil.
func New(log *zap.Logger, history *History) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log, history: history}
}

// LogRun writes the run line and, when configured, appends the run to history.
// Failures are logged and dropped.
func (l *Logger) LogRun(ctx context.Context, entry workflow.RunEntry) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("run logging panicked", zap.Any("panic", r), zap.Int("post", entry.PostID))
		}
	}()

	trigger := entry.TriggeredBy
	if trigger == "" {
		trigger = UnknownTrigger
	}

	l.log.Info("workflow run",
		zap.String("run_id", entry.RunID),
		zap.Int("post", entry.PostID),
		zap.String("title", entry.Meta.Title),
		zap.String("description", entry.Meta.Description),
		zap.String("triggered_by", trigger),
		zap.Strings("steps", entry.Steps.Names()),
	)

	if l.history == nil {
		return
	}
	rec := Record{
		RunID:       entry.RunID,
		PostID:      entry.PostID,
		Meta:        entry.Meta,
		Steps:       entry.Steps,
		TriggeredBy: trigger,
		At:          time.Now().UTC(),
	}
	if err := l.history.Append(ctx, rec); err != nil {
		l.log.Warn("run history write failed", zap.Int("post", entry.PostID), zap.Error(err))
	}
}
