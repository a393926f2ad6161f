// Package types defines the ROTD artifact schemas: tasks, test summaries,
// coverage history, and PSS score entries. All artifacts live as JSON or
// JSONL files under the project-local .rotd directory.
package types

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a task in tasks.jsonl.
// Unrecognized values are preserved as-is and treated as "not engaged".
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusComplete   TaskStatus = "complete"
	StatusBlocked    TaskStatus = "blocked"
	StatusScaffolded TaskStatus = "scaffolded"
)

// Engaged reports whether an agent has picked up the task.
func (s TaskStatus) Engaged() bool {
	return s == StatusInProgress || s == StatusComplete
}

// Task is one record in tasks.jsonl. The store is append-only; a task may
// appear multiple times and lookup uses the first match in file order.
type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title,omitempty"`
	Status      TaskStatus  `json:"status"`
	Description string      `json:"description,omitempty"`
	Tests       []string    `json:"tests,omitempty"`
	Phase       string      `json:"phase,omitempty"`
	DependsOn   []string    `json:"depends_on,omitempty"`
	Created     *time.Time  `json:"created,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	Completed   *time.Time  `json:"completed,omitempty"`
}

// Validate checks the fields required for a task to be written by this tool.
// Loading is intentionally more lenient: any record with an id and status is
// usable for scoring.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	if t.Title == "" {
		return fmt.Errorf("task %s: title cannot be empty", t.ID)
	}
	return nil
}

// TestSummary is the per-task record at test_summaries/<task_id>.json.
// Absence of the file means "no tests recorded", not zero tests.
type TestSummary struct {
	TaskID     string     `json:"task_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Total      int        `json:"total"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed,omitempty"`
	Coverage   *float64   `json:"coverage,omitempty"` // fraction in [0,1]
	VerifiedBy string     `json:"verified_by,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// PassRate returns passed/total with total clamped to at least 1 so an empty
// summary never divides by zero.
func (s *TestSummary) PassRate() float64 {
	total := s.Total
	if total < 1 {
		total = 1
	}
	return float64(s.Passed) / float64(total)
}

// Validate checks internal consistency before a summary is written.
func (s *TestSummary) Validate() error {
	if s.TaskID == "" {
		return fmt.Errorf("test summary: task id cannot be empty")
	}
	if s.Total < 0 || s.Passed < 0 || s.Failed < 0 {
		return fmt.Errorf("test summary for %s: counts cannot be negative", s.TaskID)
	}
	if s.Passed > s.Total {
		return fmt.Errorf("test summary for %s: passed (%d) exceeds total (%d)", s.TaskID, s.Passed, s.Total)
	}
	if s.Failed != 0 && s.Passed+s.Failed != s.Total {
		return fmt.Errorf("test summary for %s: passed (%d) + failed (%d) != total (%d)", s.TaskID, s.Passed, s.Failed, s.Total)
	}
	if s.Coverage != nil && (*s.Coverage < 0 || *s.Coverage > 1) {
		return fmt.Errorf("test summary for %s: coverage %.3f outside [0,1]", s.TaskID, *s.Coverage)
	}
	return nil
}

// CoverageHistory is the process-wide coverage_history.json record. Floor and
// RatchetThreshold are pointers so "present but unset" falls back to the
// injected defaults rather than zero.
type CoverageHistory struct {
	Floor            *float64        `json:"floor,omitempty"`
	RatchetThreshold *float64        `json:"ratchet_threshold,omitempty"`
	History          []CoverageEntry `json:"history,omitempty"`
}

// FloorOr returns the coverage floor percentage, or def when unset.
func (h *CoverageHistory) FloorOr(def float64) float64 {
	if h != nil && h.Floor != nil {
		return *h.Floor
	}
	return def
}

// RatchetOr returns the ratchet headroom threshold, or def when unset.
func (h *CoverageHistory) RatchetOr(def float64) float64 {
	if h != nil && h.RatchetThreshold != nil {
		return *h.RatchetThreshold
	}
	return def
}

// CoverageEntry records one coverage observation in the ratchet history.
type CoverageEntry struct {
	TaskID           string    `json:"task_id"`
	Coverage         float64   `json:"coverage"`
	Timestamp        time.Time `json:"timestamp"`
	TriggeredRatchet bool      `json:"triggered_ratchet"`
}

// CriterionScore is one pass/fail criterion result. Score is 0 or 1 and the
// rationale embeds the concrete values that produced it, so pss_scores.jsonl
// is readable without re-running the tool.
type CriterionScore struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// ScoreEntry is one PSS scoring run, appended to pss_scores.jsonl. Entries
// are immutable once written; re-scoring a task appends a new entry.
type ScoreEntry struct {
	TaskID    string                    `json:"task_id"`
	Score     int                       `json:"score"`
	Timestamp time.Time                 `json:"timestamp"`
	Criteria  map[string]CriterionScore `json:"criteria"`
}

// Float64 returns a pointer to v, for building optional fields in tests and
// callers.
func Float64(v float64) *float64 { return &v }
