package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/github-automation/internal/db"
	"github.com/devplatform/github-automation/internal/models"
)

// Logger appends pipeline state transitions to the action log. Every record
// is best-effort: a failed insert is reported to the process log and
// swallowed, so audit logging can never mask the failure it is recording.
type Logger struct {
	store  db.Store
	logger *logrus.Logger
}

func New(store db.Store, logger *logrus.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

// Record inserts one audit entry. It never returns an error.
func (l *Logger) Record(ctx context.Context, entry *models.ActionLog) {
	if entry.Level == "" {
		entry.Level = models.LevelInfo
	}
	if err := l.store.InsertActionLog(ctx, entry); err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"action_type": entry.ActionType,
			"level":       entry.Level,
		}).Error("Failed to write action log entry")
	}
}
