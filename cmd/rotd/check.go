package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/storage"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the .rotd artifact files",
	Long: `Check that every artifact under .rotd/ parses and satisfies its
invariants: tasks.jsonl records, each test summary, and the coverage record.
Exits non-zero when any problem is found.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runCheck(os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(out io.Writer) int {
	store := newStore()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	problems := 0
	report := func(subject string, err error) {
		if err != nil {
			problems++
			fmt.Fprintf(out, "%s %s: %v\n", red("✗"), subject, err)
			return
		}
		fmt.Fprintf(out, "%s %s\n", green("✓"), subject)
	}

	if !store.Initialized() {
		fmt.Fprintf(out, "%s %s does not exist (run rotd init)\n", red("✗"), store.Dir())
		return 1
	}

	tasks, err := store.LoadTasks()
	report(fmt.Sprintf("tasks.jsonl (%d tasks)", len(tasks)), err)
	if err == nil {
		for i := range tasks {
			if verr := tasks[i].Validate(); verr != nil {
				report(fmt.Sprintf("task %s", tasks[i].ID), verr)
			}
		}
	}

	report("test summaries", checkSummaries(store))

	_, err = store.LoadCoverageHistory()
	report("coverage_history.json", err)

	_, err = store.LoadScores()
	report("pss_scores.jsonl", err)

	if problems > 0 {
		fmt.Fprintf(out, "\n%d problem(s) found\n", problems)
		return 1
	}
	return 0
}

func checkSummaries(store *storage.Store) error {
	entries, err := os.ReadDir(store.SummariesDir())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		taskID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		summary, err := store.LoadTestSummary(taskID)
		if err != nil {
			return err
		}
		if summary != nil {
			if err := summary.Validate(); err != nil {
				return fmt.Errorf("%s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}
