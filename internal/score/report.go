package score

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/rotd/rotd/internal/types"
)

// categories group the criteria for the table view.
var categories = []struct {
	name     string
	criteria []string
}{
	{"Execution Sanity", []string{CriterionLLMEngaged, CriterionCompiles, CriterionCoreImpl}},
	{"Testing Discipline", []string{CriterionTestsWritten, CriterionTestsPass, CriterionQTSFloor}},
	{"Cleanup Discipline", []string{CriterionStubFree, CriterionDocMaintained}},
	{"Historical Continuity", []string{CriterionHistoryMaintained, CriterionQTSRatchet}},
}

// PrintCompletion writes the completion line and, for scores below the
// remediation threshold, the remediation block listing every zero-scored
// criterion with its rationale.
func PrintCompletion(w io.Writer, entry *types.ScoreEntry) {
	fmt.Fprintf(w, "ROTD scoring complete for task %s (Score: %d/10)\n", entry.TaskID, entry.Score)

	if entry.Score >= RemediationThreshold {
		return
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("⚠️  Score below %d/10 - consider remediation:", RemediationThreshold)))
	for _, name := range CriteriaOrder {
		if c, ok := entry.Criteria[name]; ok && c.Score == 0 {
			fmt.Fprintf(w, "  - %s: %s\n", name, c.Rationale)
		}
	}
}

// PrintSummary writes the short pass/fail view.
func PrintSummary(w io.Writer, entry *types.ScoreEntry) {
	fmt.Fprintf(w, "Task ID: %s\n", entry.TaskID)
	fmt.Fprintf(w, "Total Score: %d/10\n", entry.Score)
	fmt.Fprintf(w, "Status: %s\n", passFail(entry.Score))
}

// PrintTable writes the summary view plus per-category subtotals and, when
// verbose, every criterion with its rationale.
func PrintTable(w io.Writer, entry *types.ScoreEntry, verbose bool) {
	PrintSummary(w, entry)

	fmt.Fprintf(w, "\nDetailed Scores:\n")
	fmt.Fprintf(w, "---------------\n")
	for _, cat := range categories {
		sum := 0
		for _, name := range cat.criteria {
			sum += entry.Criteria[name].Score
		}
		fmt.Fprintf(w, "%s: %d/%d\n", cat.name, sum, len(cat.criteria))
	}

	if verbose {
		fmt.Fprintf(w, "\nDetails:\n")
		for _, name := range CriteriaOrder {
			c := entry.Criteria[name]
			fmt.Fprintf(w, "  %s [%d]: %s\n", name, c.Score, c.Rationale)
		}
	}
}

func passFail(total int) string {
	if total >= RemediationThreshold {
		return color.New(color.FgGreen).Sprint("PASSED")
	}
	return color.New(color.FgRed).Sprint("FAILED")
}
