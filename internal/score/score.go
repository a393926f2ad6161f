// Package score implements the Progress Scoring System (PSS): ten pass/fail
// criteria evaluated against the project's task, test, and coverage artifacts
// plus the two external checks, summed into a 0-10 score per task.
package score

import (
	"context"
	"fmt"
	"time"

	"github.com/rotd/rotd/internal/checks"
	"github.com/rotd/rotd/internal/storage"
	"github.com/rotd/rotd/internal/types"
)

// Criterion names, in rubric order.
const (
	CriterionLLMEngaged        = "llm_engaged"
	CriterionCompiles          = "compiles"
	CriterionCoreImpl          = "core_impl"
	CriterionTestsWritten      = "tests_written"
	CriterionTestsPass         = "tests_pass"
	CriterionDocMaintained     = "doc_maintained"
	CriterionStubFree          = "stub_free"
	CriterionHistoryMaintained = "history_maintained"
	CriterionQTSFloor          = "qts_floor"
	CriterionQTSRatchet        = "qts_ratchet"
)

// CriteriaOrder is the canonical rubric order, used wherever criteria are
// listed for a human.
var CriteriaOrder = []string{
	CriterionLLMEngaged,
	CriterionCompiles,
	CriterionCoreImpl,
	CriterionTestsWritten,
	CriterionTestsPass,
	CriterionDocMaintained,
	CriterionStubFree,
	CriterionHistoryMaintained,
	CriterionQTSFloor,
	CriterionQTSRatchet,
}

// RemediationThreshold is the total score below which the report prints
// remediation hints.
const RemediationThreshold = 6

// Thresholds holds the rubric constants. They are injected rather than read
// at use sites so tests can override them.
type Thresholds struct {
	// PassRate is the minimum passed/total ratio for tests_pass.
	PassRate float64
	// Floor is the coverage floor percentage used when coverage_history.json
	// is present but has no floor.
	Floor float64
	// Ratchet is the default headroom percentage for qts_ratchet.
	Ratchet float64
}

// DefaultThresholds returns the standard rubric constants.
func DefaultThresholds() Thresholds {
	return Thresholds{PassRate: 0.70, Floor: 70, Ratchet: 3}
}

// Inputs is everything criteria evaluation depends on. Task, Summary, and
// History are nil when the corresponding artifact is absent; absence degrades
// the affected criteria to zero rather than erroring.
type Inputs struct {
	TaskID   string
	Task     *types.Task
	Summary  *types.TestSummary
	History  *types.CoverageHistory
	Compiles bool
	HasStubs bool
}

// Evaluate computes all ten criteria. It is a pure function of its inputs.
func Evaluate(in Inputs, th Thresholds) map[string]types.CriterionScore {
	criteria := make(map[string]types.CriterionScore, len(CriteriaOrder))

	criteria[CriterionLLMEngaged] = llmEngaged(in)
	criteria[CriterionCompiles] = compiles(in)
	criteria[CriterionCoreImpl] = coreImpl(in)
	criteria[CriterionTestsWritten] = testsWritten(in)
	criteria[CriterionTestsPass] = testsPass(in, th)
	criteria[CriterionDocMaintained] = docMaintained()
	criteria[CriterionStubFree] = stubFree(in)
	criteria[CriterionHistoryMaintained] = historyMaintained(in)
	criteria[CriterionQTSFloor] = qtsFloor(in, th)
	criteria[CriterionQTSRatchet] = qtsRatchet(in, th)

	return criteria
}

// Total sums the criterion scores. The entry total is always this literal
// sum, never computed independently.
func Total(criteria map[string]types.CriterionScore) int {
	total := 0
	for _, c := range criteria {
		total += c.Score
	}
	return total
}

func boolScore(pass bool) int {
	if pass {
		return 1
	}
	return 0
}

func llmEngaged(in Inputs) types.CriterionScore {
	if in.Task == nil {
		return types.CriterionScore{
			Score:     0,
			Rationale: fmt.Sprintf("Task %s not found in tasks.jsonl", in.TaskID),
		}
	}
	return types.CriterionScore{
		Score:     boolScore(in.Task.Status.Engaged()),
		Rationale: fmt.Sprintf("Task %s found with status: %s", in.TaskID, in.Task.Status),
	}
}

func compiles(in Inputs) types.CriterionScore {
	if in.Compiles {
		return types.CriterionScore{Score: 1, Rationale: "Project compiles cleanly"}
	}
	return types.CriterionScore{Score: 0, Rationale: "Compilation errors detected"}
}

func coreImpl(in Inputs) types.CriterionScore {
	if in.Task == nil {
		return types.CriterionScore{
			Score:     0,
			Rationale: fmt.Sprintf("Task %s not found in tasks.jsonl", in.TaskID),
		}
	}
	return types.CriterionScore{
		Score:     boolScore(in.Task.Status == types.StatusComplete),
		Rationale: fmt.Sprintf("Task status is %s", in.Task.Status),
	}
}

func testsWritten(in Inputs) types.CriterionScore {
	total := 0
	if in.Summary != nil {
		total = in.Summary.Total
	}
	return types.CriterionScore{
		Score:     boolScore(in.Summary != nil && total > 0),
		Rationale: fmt.Sprintf("Test summary shows %d tests", total),
	}
}

func testsPass(in Inputs, th Thresholds) types.CriterionScore {
	if in.Summary == nil {
		return types.CriterionScore{Score: 0, Rationale: "No test summary available"}
	}
	rate := in.Summary.PassRate()
	pass := rate >= th.PassRate
	word := "below"
	if pass {
		word = "meets"
	}
	return types.CriterionScore{
		Score: boolScore(pass),
		Rationale: fmt.Sprintf("Pass rate: %.1f%% (%s %.0f%% threshold)",
			rate*100, word, th.PassRate*100),
	}
}

// docMaintained is a deliberate always-pass placeholder; the lint/format pass
// it stands for runs outside this tool.
func docMaintained() types.CriterionScore {
	return types.CriterionScore{
		Score:     1,
		Rationale: "Documentation maintained (assuming lint/format passes)",
	}
}

func stubFree(in Inputs) types.CriterionScore {
	if in.HasStubs {
		return types.CriterionScore{Score: 0, Rationale: "Stubs remaining in codebase"}
	}
	return types.CriterionScore{Score: 1, Rationale: "No stubs detected"}
}

func historyMaintained(in Inputs) types.CriterionScore {
	summaryPart := "missing"
	if in.Summary != nil {
		summaryPart = "present"
	}
	taskPart := "not found"
	if in.Task != nil {
		taskPart = "found"
	}
	return types.CriterionScore{
		Score: boolScore(in.Summary != nil && in.Task != nil),
		Rationale: fmt.Sprintf("Test summary %s, task %s in tasks.jsonl",
			summaryPart, taskPart),
	}
}

func qtsFloor(in Inputs, th Thresholds) types.CriterionScore {
	if in.History == nil || in.Summary == nil {
		return types.CriterionScore{Score: 0, Rationale: "Coverage data not available"}
	}
	if in.Summary.Coverage == nil {
		return types.CriterionScore{Score: 0, Rationale: "No coverage data in test summary"}
	}
	coverage := *in.Summary.Coverage * 100
	floor := in.History.FloorOr(th.Floor)
	return types.CriterionScore{
		Score:     boolScore(coverage >= floor),
		Rationale: fmt.Sprintf("Coverage %.1f%% vs floor %.1f%%", coverage, floor),
	}
}

func qtsRatchet(in Inputs, th Thresholds) types.CriterionScore {
	if in.History == nil || in.Summary == nil {
		return types.CriterionScore{
			Score:     0,
			Rationale: "Coverage data not available for ratchet calculation",
		}
	}
	if in.Summary.Coverage == nil {
		return types.CriterionScore{Score: 0, Rationale: "No coverage data in test summary"}
	}
	coverage := *in.Summary.Coverage * 100
	floor := in.History.FloorOr(th.Floor)
	threshold := in.History.RatchetOr(th.Ratchet)
	headroom := coverage - floor
	triggered := headroom > threshold
	word := "below"
	if triggered {
		word = "triggers"
	}
	return types.CriterionScore{
		Score: boolScore(triggered),
		Rationale: fmt.Sprintf("Headroom %.1f%% %s %.1f%% threshold",
			headroom, word, threshold),
	}
}

// Scorer wires the artifact store and the external checks together.
type Scorer struct {
	Store      *storage.Store
	Compile    checks.CompileChecker
	Stubs      checks.StubScanner
	Thresholds Thresholds
}

// ScoreTask loads the artifacts for taskID, runs the external checks, and
// returns a new score entry. Missing artifacts degrade criteria to zero;
// only malformed stored data is an error. The entry is not persisted here;
// callers append it with Store.AppendScore.
func (s *Scorer) ScoreTask(ctx context.Context, taskID string) (*types.ScoreEntry, error) {
	tasks, err := s.Store.LoadTasks()
	if err != nil {
		return nil, err
	}
	summary, err := s.Store.LoadTestSummary(taskID)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.LoadCoverageHistory()
	if err != nil {
		return nil, err
	}

	in := Inputs{
		TaskID:   taskID,
		Task:     storage.FindTask(tasks, taskID),
		Summary:  summary,
		History:  history,
		Compiles: s.Compile.Compiles(ctx),
		HasStubs: s.Stubs.HasStubs(),
	}

	criteria := Evaluate(in, s.Thresholds)
	return &types.ScoreEntry{
		TaskID:    taskID,
		Score:     Total(criteria),
		Timestamp: time.Now().UTC(),
		Criteria:  criteria,
	}, nil
}
