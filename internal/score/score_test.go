package score

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotd/rotd/internal/checks"
	"github.com/rotd/rotd/internal/storage"
	"github.com/rotd/rotd/internal/types"
)

func task(id string, status types.TaskStatus) *types.Task {
	return &types.Task{ID: id, Title: "Task " + id, Status: status}
}

func summary(total, passed int, coverage float64) *types.TestSummary {
	return &types.TestSummary{Total: total, Passed: passed, Coverage: types.Float64(coverage)}
}

func history(floor, ratchet float64) *types.CoverageHistory {
	return &types.CoverageHistory{
		Floor:            types.Float64(floor),
		RatchetThreshold: types.Float64(ratchet),
	}
}

func TestTaskNotFoundDegradesThreeCriteria(t *testing.T) {
	in := Inputs{TaskID: "9.9", Compiles: true}
	criteria := Evaluate(in, DefaultThresholds())

	for _, name := range []string{CriterionLLMEngaged, CriterionCoreImpl, CriterionHistoryMaintained} {
		c := criteria[name]
		assert.Equal(t, 0, c.Score, "%s must fail for a missing task", name)
		assert.Contains(t, c.Rationale, "not found", "%s rationale", name)
	}
}

func TestLLMEngaged(t *testing.T) {
	tests := []struct {
		status types.TaskStatus
		want   int
	}{
		{types.StatusPending, 0},
		{types.StatusInProgress, 1},
		{types.StatusComplete, 1},
		{types.StatusBlocked, 0},
		{types.TaskStatus("review"), 0},
	}

	for _, tt := range tests {
		in := Inputs{TaskID: "6.1", Task: task("6.1", tt.status)}
		c := Evaluate(in, DefaultThresholds())[CriterionLLMEngaged]
		assert.Equal(t, tt.want, c.Score, "status %q", tt.status)
		assert.Contains(t, c.Rationale, string(tt.status))
	}
}

func TestCoreImplRequiresComplete(t *testing.T) {
	th := DefaultThresholds()

	c := Evaluate(Inputs{TaskID: "6.1", Task: task("6.1", types.StatusInProgress)}, th)[CriterionCoreImpl]
	assert.Equal(t, 0, c.Score)

	c = Evaluate(Inputs{TaskID: "6.1", Task: task("6.1", types.StatusComplete)}, th)[CriterionCoreImpl]
	assert.Equal(t, 1, c.Score)
	assert.Contains(t, c.Rationale, "complete")
}

func TestTestsWrittenZeroTotal(t *testing.T) {
	// An existing summary with total == 0 still fails the criterion.
	in := Inputs{TaskID: "6.1", Summary: summary(0, 0, 0.5)}
	c := Evaluate(in, DefaultThresholds())[CriterionTestsWritten]
	assert.Equal(t, 0, c.Score)
	assert.Contains(t, c.Rationale, "0 tests")

	in.Summary = summary(3, 1, 0.5)
	c = Evaluate(in, DefaultThresholds())[CriterionTestsWritten]
	assert.Equal(t, 1, c.Score)
	assert.Contains(t, c.Rationale, "3 tests")
}

func TestTestsPassBoundary(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		total  int
		passed int
		want   int
	}{
		{"exactly at threshold", 10, 7, 1},
		{"just below threshold", 1000, 699, 0},
		{"just above threshold", 1000, 700, 1},
		{"all passing", 5, 5, 1},
		{"none passing", 5, 0, 0},
		{"zero total treated as one", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Inputs{TaskID: "6.1", Summary: summary(tt.total, tt.passed, 0.5)}
			c := Evaluate(in, th)[CriterionTestsPass]
			assert.Equal(t, tt.want, c.Score)
			assert.Contains(t, c.Rationale, "70% threshold")
		})
	}

	c := Evaluate(Inputs{TaskID: "6.1"}, th)[CriterionTestsPass]
	assert.Equal(t, 0, c.Score)
	assert.Equal(t, "No test summary available", c.Rationale)
}

func TestDocMaintainedAlwaysPasses(t *testing.T) {
	c := Evaluate(Inputs{TaskID: "6.1"}, DefaultThresholds())[CriterionDocMaintained]
	assert.Equal(t, 1, c.Score)
}

func TestStubFree(t *testing.T) {
	th := DefaultThresholds()

	c := Evaluate(Inputs{TaskID: "6.1", HasStubs: true}, th)[CriterionStubFree]
	assert.Equal(t, 0, c.Score)

	c = Evaluate(Inputs{TaskID: "6.1", HasStubs: false}, th)[CriterionStubFree]
	assert.Equal(t, 1, c.Score)
}

func TestHistoryMaintainedNeedsBoth(t *testing.T) {
	th := DefaultThresholds()
	tsk := task("6.1", types.StatusComplete)
	sum := summary(10, 8, 0.75)

	assert.Equal(t, 1, Evaluate(Inputs{TaskID: "6.1", Task: tsk, Summary: sum}, th)[CriterionHistoryMaintained].Score)
	assert.Equal(t, 0, Evaluate(Inputs{TaskID: "6.1", Task: tsk}, th)[CriterionHistoryMaintained].Score)
	assert.Equal(t, 0, Evaluate(Inputs{TaskID: "6.1", Summary: sum}, th)[CriterionHistoryMaintained].Score)
}

func TestQTSCriteriaRequireHistoryAndSummary(t *testing.T) {
	th := DefaultThresholds()

	// History absent: both QTS criteria fail regardless of the summary.
	in := Inputs{TaskID: "6.1", Summary: summary(10, 10, 0.99)}
	criteria := Evaluate(in, th)
	assert.Equal(t, 0, criteria[CriterionQTSFloor].Score)
	assert.Equal(t, 0, criteria[CriterionQTSRatchet].Score)
	assert.Equal(t, "Coverage data not available", criteria[CriterionQTSFloor].Rationale)
	assert.Equal(t, "Coverage data not available for ratchet calculation", criteria[CriterionQTSRatchet].Rationale)

	// Summary absent: same.
	criteria = Evaluate(Inputs{TaskID: "6.1", History: history(70, 3)}, th)
	assert.Equal(t, 0, criteria[CriterionQTSFloor].Score)
	assert.Equal(t, 0, criteria[CriterionQTSRatchet].Score)
}

func TestQTSFloorBoundary(t *testing.T) {
	th := DefaultThresholds()
	hist := history(70, 3)

	c := Evaluate(Inputs{TaskID: "6.1", Summary: summary(1, 1, 0.70), History: hist}, th)[CriterionQTSFloor]
	assert.Equal(t, 1, c.Score, "coverage equal to floor meets it")

	c = Evaluate(Inputs{TaskID: "6.1", Summary: summary(1, 1, 0.699), History: hist}, th)[CriterionQTSFloor]
	assert.Equal(t, 0, c.Score)
	assert.Contains(t, c.Rationale, "69.9%")
}

func TestQTSRatchetHeadroomStrictlyAbove(t *testing.T) {
	th := DefaultThresholds()
	hist := history(70, 3)

	// Headroom exactly at the threshold does not trigger the ratchet.
	c := Evaluate(Inputs{TaskID: "6.1", Summary: summary(1, 1, 0.73), History: hist}, th)[CriterionQTSRatchet]
	assert.Equal(t, 0, c.Score)

	c = Evaluate(Inputs{TaskID: "6.1", Summary: summary(1, 1, 0.75), History: hist}, th)[CriterionQTSRatchet]
	assert.Equal(t, 1, c.Score)
	assert.Contains(t, c.Rationale, "triggers")
}

func TestQTSDefaultsWhenHistoryUnset(t *testing.T) {
	// History file present but empty: floor defaults to 70, ratchet to 3.
	th := DefaultThresholds()
	in := Inputs{TaskID: "6.1", Summary: summary(1, 1, 0.75), History: &types.CoverageHistory{}}

	criteria := Evaluate(in, th)
	assert.Equal(t, 1, criteria[CriterionQTSFloor].Score)
	assert.Contains(t, criteria[CriterionQTSFloor].Rationale, "floor 70.0%")
	assert.Equal(t, 1, criteria[CriterionQTSRatchet].Score)
}

func TestQTSNoCoverageInSummary(t *testing.T) {
	in := Inputs{
		TaskID:  "6.1",
		Summary: &types.TestSummary{Total: 10, Passed: 10},
		History: history(70, 3),
	}
	criteria := Evaluate(in, DefaultThresholds())
	assert.Equal(t, 0, criteria[CriterionQTSFloor].Score)
	assert.Equal(t, 0, criteria[CriterionQTSRatchet].Score)
	assert.Contains(t, criteria[CriterionQTSFloor].Rationale, "No coverage data")
}

func TestScenarioCompleteTask(t *testing.T) {
	// Task 6.1 complete, 8/10 tests passing with 75% coverage against a
	// 70/3 coverage record: every data-driven criterion passes, including
	// the ratchet (headroom 5 > 3).
	in := Inputs{
		TaskID:   "6.1",
		Task:     task("6.1", types.StatusComplete),
		Summary:  summary(10, 8, 0.75),
		History:  history(70, 3),
		Compiles: true,
		HasStubs: false,
	}
	criteria := Evaluate(in, DefaultThresholds())

	for _, name := range CriteriaOrder {
		assert.Equal(t, 1, criteria[name].Score, "criterion %s", name)
	}
	assert.Equal(t, 10, Total(criteria))
}

func TestScenarioUnknownTaskBareProject(t *testing.T) {
	// Nothing on disk at all: only doc_maintained and the two external
	// checks can contribute.
	in := Inputs{TaskID: "zz.9", Compiles: true, HasStubs: false}
	criteria := Evaluate(in, DefaultThresholds())

	assert.Equal(t, 3, Total(criteria))

	zeros := 0
	for _, c := range criteria {
		if c.Score == 0 {
			zeros++
		}
	}
	assert.GreaterOrEqual(t, zeros, 7)
}

func TestTotalIsLiteralSum(t *testing.T) {
	in := Inputs{
		TaskID:   "6.1",
		Task:     task("6.1", types.StatusInProgress),
		Summary:  summary(4, 2, 0.30),
		Compiles: false,
		HasStubs: true,
	}
	criteria := Evaluate(in, DefaultThresholds())

	sum := 0
	for _, c := range criteria {
		require.Contains(t, []int{0, 1}, c.Score)
		sum += c.Score
	}
	assert.Equal(t, sum, Total(criteria))
	assert.Len(t, criteria, 10)
}

func TestThresholdOverrides(t *testing.T) {
	// Injected thresholds are honored, not the package defaults.
	th := Thresholds{PassRate: 0.50, Floor: 40, Ratchet: 10}
	in := Inputs{
		TaskID:  "6.1",
		Summary: summary(10, 5, 0.45),
		History: &types.CoverageHistory{},
	}
	criteria := Evaluate(in, th)

	assert.Equal(t, 1, criteria[CriterionTestsPass].Score)
	assert.Equal(t, 1, criteria[CriterionQTSFloor].Score)
	assert.Equal(t, 0, criteria[CriterionQTSRatchet].Score, "headroom 5 not above 10")
}

func newScorer(t *testing.T) (*Scorer, *storage.Store) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), ".rotd"))
	scorer := &Scorer{
		Store:      store,
		Compile:    checks.StaticCompile(true),
		Stubs:      checks.StaticStubs(false),
		Thresholds: DefaultThresholds(),
	}
	return scorer, store
}

func TestScoreTaskOnEmptyProject(t *testing.T) {
	scorer, _ := newScorer(t)

	entry, err := scorer.ScoreTask(context.Background(), "6.1")
	require.NoError(t, err, "missing artifacts never abort scoring")
	assert.Equal(t, "6.1", entry.TaskID)
	assert.Equal(t, 3, entry.Score)
	assert.Equal(t, "UTC", entry.Timestamp.Location().String())
}

func TestScoreTaskMalformedTasksFileIsFatal(t *testing.T) {
	scorer, store := newScorer(t)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.TasksPath(), []byte("{broken\n"), 0o644))

	_, err := scorer.ScoreTask(context.Background(), "6.1")
	assert.Error(t, err)
}

func TestRescoringAppendsNewEntries(t *testing.T) {
	scorer, store := newScorer(t)
	require.NoError(t, store.Init(false))
	require.NoError(t, store.AppendTask(task("6.1", types.StatusComplete)))
	require.NoError(t, store.WriteTestSummary(&types.TestSummary{
		TaskID: "6.1", Total: 10, Passed: 8, Coverage: types.Float64(0.75),
	}))
	require.NoError(t, store.WriteCoverageHistory(history(70, 3)))

	ctx := context.Background()
	first, err := scorer.ScoreTask(ctx, "6.1")
	require.NoError(t, err)
	second, err := scorer.ScoreTask(ctx, "6.1")
	require.NoError(t, err)

	// Unchanged inputs: identical criteria, but each run is its own entry.
	assert.Equal(t, first.Criteria, second.Criteria)
	assert.Equal(t, first.Score, second.Score)

	require.NoError(t, store.AppendScore(first))
	require.NoError(t, store.AppendScore(second))

	data, err := os.ReadFile(store.ScoresPath())
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(string(data), "\n"), "\n"), 2)
}

func TestPrintCompletionHighScore(t *testing.T) {
	var buf bytes.Buffer
	entry := &types.ScoreEntry{
		TaskID: "6.1",
		Score:  8,
		Criteria: map[string]types.CriterionScore{
			CriterionQTSRatchet: {Score: 0, Rationale: "Headroom 1.0% below 3.0% threshold"},
		},
	}

	PrintCompletion(&buf, entry)

	out := buf.String()
	assert.Contains(t, out, "scoring complete for task 6.1 (Score: 8/10)")
	assert.NotContains(t, out, "remediation")
}

func TestPrintCompletionLowScoreListsZeroCriteria(t *testing.T) {
	in := Inputs{TaskID: "zz.9", Compiles: false, HasStubs: true}
	criteria := Evaluate(in, DefaultThresholds())
	entry := &types.ScoreEntry{TaskID: "zz.9", Score: Total(criteria), Criteria: criteria}

	var buf bytes.Buffer
	PrintCompletion(&buf, entry)
	out := buf.String()

	assert.Contains(t, out, "scoring complete for task zz.9 (Score: 1/10)")
	assert.Contains(t, out, "consider remediation")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var bullets []string
	for _, line := range lines {
		if strings.HasPrefix(line, "  - ") {
			bullets = append(bullets, line)
		}
	}
	require.Len(t, bullets, 9, "every zero criterion is listed")
	assert.Contains(t, bullets[0], CriterionLLMEngaged)
	assert.Contains(t, bullets[0], "not found")
}

func TestPrintTable(t *testing.T) {
	in := Inputs{
		TaskID:   "6.1",
		Task:     task("6.1", types.StatusComplete),
		Summary:  summary(10, 8, 0.75),
		History:  history(70, 3),
		Compiles: true,
	}
	criteria := Evaluate(in, DefaultThresholds())
	entry := &types.ScoreEntry{TaskID: "6.1", Score: Total(criteria), Criteria: criteria}

	var buf bytes.Buffer
	PrintTable(&buf, entry, true)
	out := buf.String()

	assert.Contains(t, out, "Task ID: 6.1")
	assert.Contains(t, out, "Execution Sanity: 3/3")
	assert.Contains(t, out, "Testing Discipline: 3/3")
	assert.Contains(t, out, "Details:")
	assert.Contains(t, out, CriterionQTSRatchet)
}
