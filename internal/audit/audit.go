// Package audit appends human-readable rule-violation lines to .rotd/audit.log.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotd/rotd/internal/storage"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// Logger writes audit entries through the artifact store.
type Logger struct {
	store *storage.Store
	now   func() time.Time
}

// NewLogger returns a logger backed by the given store.
func NewLogger(store *storage.Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

// Info logs an informational entry. Pass an empty taskID for project-wide
// entries; they are recorded as GLOBAL.
func (l *Logger) Info(taskID, rule, message string) error {
	return l.log(taskID, rule, "info", message)
}

// Warning logs a rule violation that does not block progress.
func (l *Logger) Warning(taskID, rule, message string) error {
	return l.log(taskID, rule, "warning", message)
}

// Error logs a serious rule violation.
func (l *Logger) Error(taskID, rule, message string) error {
	return l.log(taskID, rule, "error", message)
}

func (l *Logger) log(taskID, rule, severity, message string) error {
	scope := taskID
	if scope == "" {
		scope = "GLOBAL"
	}
	line := fmt.Sprintf("[%s] [%s] %s %s - %s",
		l.now().UTC().Format(timeLayout),
		strings.ToUpper(severity),
		rule,
		scope,
		message)
	return l.store.AppendAuditLine(line)
}

// Recent returns up to limit audit lines, newest first. A project with no
// audit log yields an empty slice.
func (l *Logger) Recent(limit int) ([]string, error) {
	return l.store.RecentAuditLines(limit)
}
