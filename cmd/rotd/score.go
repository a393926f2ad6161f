package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/audit"
	"github.com/rotd/rotd/internal/checks"
	"github.com/rotd/rotd/internal/config"
	"github.com/rotd/rotd/internal/score"
	"github.com/rotd/rotd/internal/storage"
)

var scoreFormat string

var scoreCmd = &cobra.Command{
	Use:   "score <task_id>",
	Short: "Score a task against the ten-point progress rubric",
	Long: `Score a task by evaluating ten pass/fail criteria against the project's
.rotd artifacts plus a compile check and a stub scan. The result is appended
to .rotd/pss_scores.jsonl.

Missing artifacts are not errors: each affected criterion simply scores zero
with a rationale saying what was missing. A low total never fails the
command; scoring is advisory.

Example:
  rotd score 6.1
  rotd score 6.1 --format table -v`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runScore(os.Stdout, os.Stderr, args))
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "", "Additional view: table, json, or summary")
}

// runScore is the testable body of the score command. It returns the process
// exit code.
func runScore(out, errOut io.Writer, args []string) int {
	// The argument contract is checked before any file is touched.
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(out, "Usage: rotd score <task_id>")
		fmt.Fprintln(out, "Example: rotd score 6.1")
		return 1
	}
	taskID := args[0]

	store := newStore()
	cfg, err := config.Load(store.Dir())
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	checker := checks.NewDescriptorChecker(".", cfg.Checks.CompileTimeout)
	scorer := &score.Scorer{
		Store:      store,
		Compile:    checker,
		Stubs:      checks.NewMarkerScanner(".", cfg.Checks.ScanDirs, cfg.Checks.ExtraStubMarkers...),
		Thresholds: score.DefaultThresholds(),
	}

	if verbose {
		desc := checker.Descriptor()
		if desc == "" {
			desc = "none"
		}
		fmt.Fprintf(out, "Scoring task %s (build descriptor: %s)\n", taskID, desc)
	}

	entry, err := scorer.ScoreTask(context.Background(), taskID)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	if dryRun {
		fmt.Fprintln(out, "Dry run: score not recorded")
	} else {
		if err := store.AppendScore(entry); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return 1
		}
		recordLowScore(errOut, store, entry.TaskID, entry.Score)
	}

	score.PrintCompletion(out, entry)

	switch scoreFormat {
	case "", "none":
	case "summary":
		score.PrintSummary(out, entry)
	case "table":
		score.PrintTable(out, entry, verbose)
	case "json":
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintf(errOut, "Error: unknown format %q (want table, json, or summary)\n", scoreFormat)
		return 1
	}

	return 0
}

// recordLowScore audits sub-threshold scores. Audit failures are reported but
// never change the outcome; scoring stays advisory.
func recordLowScore(errOut io.Writer, store *storage.Store, taskID string, total int) {
	if total >= score.RemediationThreshold {
		return
	}
	logger := audit.NewLogger(store)
	msg := fmt.Sprintf("task scored %d/10, below remediation threshold %d", total, score.RemediationThreshold)
	if err := logger.Warning(taskID, "PSS_LOW_SCORE", msg); err != nil {
		fmt.Fprintf(errOut, "Warning: audit log write failed: %v\n", err)
	}
}
