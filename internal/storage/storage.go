// Package storage reads and writes the ROTD artifact files under the
// project-local .rotd directory. Line-delimited stores (tasks.jsonl,
// pss_scores.jsonl, audit.log) are append-only; appends take an exclusive
// file lock so concurrent invocations cannot interleave partial lines.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotd/rotd/internal/types"
)

// DefaultDir is the hidden project-local directory holding all artifacts.
const DefaultDir = ".rotd"

const (
	tasksFile           = "tasks.jsonl"
	pssScoresFile       = "pss_scores.jsonl"
	coverageHistoryFile = "coverage_history.json"
	auditLogFile        = "audit.log"
	testSummariesDir    = "test_summaries"
	coordinationDir     = "coordination"
	workRegistryFile    = "active_work_registry.json"
	coordinationLogFile = "coordination.log"
)

// Store provides access to the artifact files rooted at a single directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir, or DefaultDir when dir is empty.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the root artifact directory.
func (s *Store) Dir() string { return s.dir }

// TasksPath returns the path of the append-only task store.
func (s *Store) TasksPath() string { return filepath.Join(s.dir, tasksFile) }

// ScoresPath returns the path of the append-only PSS score log.
func (s *Store) ScoresPath() string { return filepath.Join(s.dir, pssScoresFile) }

// CoverageHistoryPath returns the path of the coverage ratchet record.
func (s *Store) CoverageHistoryPath() string { return filepath.Join(s.dir, coverageHistoryFile) }

// AuditLogPath returns the path of the plain-text audit log.
func (s *Store) AuditLogPath() string { return filepath.Join(s.dir, auditLogFile) }

// SummariesDir returns the directory of per-task test summaries.
func (s *Store) SummariesDir() string { return filepath.Join(s.dir, testSummariesDir) }

// SummaryPath returns the test summary file for a task.
func (s *Store) SummaryPath(taskID string) string {
	return filepath.Join(s.SummariesDir(), taskID+".json")
}

// RegistryPath returns the multi-agent work registry file.
func (s *Store) RegistryPath() string {
	return filepath.Join(s.dir, coordinationDir, workRegistryFile)
}

// CoordinationLogPath returns the shared agent coordination log.
func (s *Store) CoordinationLogPath() string {
	return filepath.Join(s.dir, coordinationDir, coordinationLogFile)
}

// Initialized reports whether the artifact directory exists.
func (s *Store) Initialized() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// Init creates the artifact directory skeleton and seeds the task store with
// an "init" task marking the project as set up. With force, any existing
// directory is removed first.
func (s *Store) Init(force bool) error {
	if s.Initialized() {
		if !force {
			return fmt.Errorf("%s directory already exists (use --force to recreate)", s.dir)
		}
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("removing existing %s: %w", s.dir, err)
		}
	}

	if err := os.MkdirAll(s.SummariesDir(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.SummariesDir(), err)
	}

	now := time.Now().UTC()
	seed := &types.Task{
		ID:        "init",
		Title:     "Initialize ROTD project",
		Status:    types.StatusComplete,
		Created:   &now,
		UpdatedAt: &now,
		Completed: &now,
	}
	return s.AppendTask(seed)
}

// LoadTasks reads every record from tasks.jsonl in file order. A missing file
// yields an empty slice; a malformed line is a hard error naming the line.
func (s *Store) LoadTasks() ([]types.Task, error) {
	data, err := os.ReadFile(s.TasksPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.TasksPath(), err)
	}

	var tasks []types.Task
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var task types.Task
		if err := json.Unmarshal([]byte(line), &task); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d of %s: %w", i+1, s.TasksPath(), err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// FindTask returns the first task with the given id in insertion order, or
// nil when absent. The task store is append-only and later records do not
// shadow earlier ones.
func FindTask(tasks []types.Task, id string) *types.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// LoadScores reads every record from pss_scores.jsonl in file order. A
// missing file yields an empty slice; a malformed line is a hard error.
func (s *Store) LoadScores() ([]types.ScoreEntry, error) {
	data, err := os.ReadFile(s.ScoresPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.ScoresPath(), err)
	}

	var entries []types.ScoreEntry
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry types.ScoreEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d of %s: %w", i+1, s.ScoresPath(), err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// LoadTestSummary reads the per-task summary, or (nil, nil) when no summary
// has been recorded for the task.
func (s *Store) LoadTestSummary(taskID string) (*types.TestSummary, error) {
	var summary types.TestSummary
	ok, err := s.ReadJSON(s.SummaryPath(taskID), &summary)
	if err != nil || !ok {
		return nil, err
	}
	return &summary, nil
}

// LoadCoverageHistory reads coverage_history.json, or (nil, nil) when the
// project has no coverage record yet.
func (s *Store) LoadCoverageHistory() (*types.CoverageHistory, error) {
	var hist types.CoverageHistory
	ok, err := s.ReadJSON(s.CoverageHistoryPath(), &hist)
	if err != nil || !ok {
		return nil, err
	}
	return &hist, nil
}

// WriteCoverageHistory replaces coverage_history.json under the file lock.
func (s *Store) WriteCoverageHistory(hist *types.CoverageHistory) error {
	return s.WriteJSON(s.CoverageHistoryPath(), hist)
}

// WriteTestSummary writes the summary for its task id, validating first.
func (s *Store) WriteTestSummary(summary *types.TestSummary) error {
	if err := summary.Validate(); err != nil {
		return err
	}
	return s.WriteJSON(s.SummaryPath(summary.TaskID), summary)
}

// AppendTask appends a validated task record to tasks.jsonl.
func (s *Store) AppendTask(task *types.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.appendJSONL(s.TasksPath(), task)
}

// AppendScore appends one score entry to pss_scores.jsonl. Prior entries are
// never rewritten.
func (s *Store) AppendScore(entry *types.ScoreEntry) error {
	return s.appendJSONL(s.ScoresPath(), entry)
}

// AppendAuditLine appends one formatted line to audit.log.
func (s *Store) AppendAuditLine(line string) error {
	return s.appendLine(s.AuditLogPath(), line)
}

// AppendCoordinationLine appends one line to the coordination log.
func (s *Store) AppendCoordinationLine(line string) error {
	return s.appendLine(s.CoordinationLogPath(), line)
}

// RecentAuditLines returns up to limit audit log lines, newest first.
func (s *Store) RecentAuditLines(limit int) ([]string, error) {
	data, err := os.ReadFile(s.AuditLogPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.AuditLogPath(), err)
	}

	all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	var lines []string
	for i := len(all) - 1; i >= 0 && len(lines) < limit; i-- {
		if all[i] != "" {
			lines = append(lines, all[i])
		}
	}
	return lines, nil
}

// ReadJSON reads and unmarshals a single-object JSON file. Returns ok=false
// without error when the file does not exist.
func (s *Store) ReadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// WriteJSON marshals v with indentation and replaces the file under the
// exclusive lock.
func (s *Store) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}
	return withFileLock(path, func() error {
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	})
}

func (s *Store) appendJSONL(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializing record for %s: %w", path, err)
	}
	return s.appendLine(path, string(data))
}

func (s *Store) appendLine(path, line string) error {
	return withFileLock(path, func() error {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s for append: %w", path, err)
		}
		defer f.Close()

		if _, err := f.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("appending to %s: %w", path, err)
		}
		return f.Sync()
	})
}
