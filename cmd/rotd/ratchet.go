package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/audit"
	"github.com/rotd/rotd/internal/score"
	"github.com/rotd/rotd/internal/types"
)

var ratchetTaskID string

var ratchetCmd = &cobra.Command{
	Use:   "ratchet <coverage>",
	Short: "Record a coverage measurement and advance the floor when earned",
	Long: `Record a coverage percentage in coverage_history.json. When the
measurement exceeds the current floor by more than the ratchet threshold, the
floor advances to one point below the measurement, so coverage can only
drift upward.

Example:
  rotd ratchet 75.5 --task 6.1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runRatchet(os.Stdout, os.Stderr, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(ratchetCmd)
	ratchetCmd.Flags().StringVar(&ratchetTaskID, "task", "unknown", "Task id to attribute the measurement to")
}

func runRatchet(out, errOut io.Writer, arg string) int {
	coverage, err := strconv.ParseFloat(arg, 64)
	if err != nil || coverage < 0 || coverage > 100 {
		fmt.Fprintf(errOut, "Error: coverage must be a percentage between 0 and 100, got %q\n", arg)
		return 1
	}

	store := newStore()
	hist, err := store.LoadCoverageHistory()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	if hist == nil {
		hist = &types.CoverageHistory{}
	}

	th := score.DefaultThresholds()
	floor := hist.FloorOr(th.Floor)
	triggered := coverage > floor+hist.RatchetOr(th.Ratchet)
	if triggered {
		// New floor sits just below the measurement so normal noise does
		// not immediately violate it.
		floor = coverage - 1
	}
	hist.Floor = types.Float64(floor)
	if hist.RatchetThreshold == nil {
		hist.RatchetThreshold = types.Float64(th.Ratchet)
	}
	hist.History = append(hist.History, types.CoverageEntry{
		TaskID:           ratchetTaskID,
		Coverage:         coverage,
		Timestamp:        time.Now().UTC(),
		TriggeredRatchet: triggered,
	})

	if dryRun {
		fmt.Fprintf(out, "Dry run: coverage %.1f%%, triggered=%v, floor %.1f%%\n",
			coverage, triggered, floor)
		return 0
	}

	if err := store.WriteCoverageHistory(hist); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	if triggered {
		logger := audit.NewLogger(store)
		msg := fmt.Sprintf("Coverage ratchet triggered: new floor %.1f%%", floor)
		if err := logger.Info(ratchetTaskID, "COVERAGE_RATCHET", msg); err != nil {
			fmt.Fprintf(errOut, "Warning: audit log write failed: %v\n", err)
		}
		fmt.Fprintf(out, "Coverage %.1f%% ratchets the floor to %.1f%%\n", coverage, floor)
	} else {
		fmt.Fprintf(out, "Coverage %.1f%% recorded (floor stays at %.1f%%)\n", coverage, floor)
	}
	return 0
}
