package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/score"
	"github.com/rotd/rotd/internal/storage"
	"github.com/rotd/rotd/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <task_id>",
	Short: "Show a task with its test summary and latest score",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runShow(os.Stdout, os.Stderr, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(out, errOut io.Writer, taskID string) int {
	store := newStore()

	tasks, err := store.LoadTasks()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	task := storage.FindTask(tasks, taskID)
	if task == nil {
		fmt.Fprintf(errOut, "Error: task %s not found\n", taskID)
		return 1
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "Task %s: %s\n", cyan(task.ID), task.Title)
	fmt.Fprintf(out, "  Status: %s\n", task.Status)
	if task.Phase != "" {
		fmt.Fprintf(out, "  Phase: %s\n", task.Phase)
	}
	if task.Description != "" {
		fmt.Fprintf(out, "  Description: %s\n", task.Description)
	}
	for _, dep := range task.DependsOn {
		fmt.Fprintf(out, "  Depends on: %s\n", dep)
	}

	summary, err := store.LoadTestSummary(taskID)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	if summary == nil {
		fmt.Fprintf(out, "  Tests: no summary recorded\n")
	} else {
		fmt.Fprintf(out, "  Tests: %d/%d passing (%.1f%%)\n",
			summary.Passed, summary.Total, summary.PassRate()*100)
		if summary.Coverage != nil {
			fmt.Fprintf(out, "  Coverage: %.1f%%\n", *summary.Coverage*100)
		}
	}

	entries, err := store.LoadScores()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	latest := latestScore(entries, taskID)
	if latest == nil {
		fmt.Fprintf(out, "  Score: never scored\n")
		return 0
	}
	fmt.Fprintf(out, "  Score: %d/10 at %s\n",
		latest.Score, latest.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	if verbose {
		for _, name := range score.CriteriaOrder {
			c := latest.Criteria[name]
			fmt.Fprintf(out, "    %s [%d]: %s\n", name, c.Score, c.Rationale)
		}
	}
	return 0
}

// latestScore returns the newest score entry for a task. Entries are in
// append order, so the last match wins.
func latestScore(entries []types.ScoreEntry, taskID string) *types.ScoreEntry {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TaskID == taskID {
			return &entries[i]
		}
	}
	return nil
}
