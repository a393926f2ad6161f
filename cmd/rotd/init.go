package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/score"
	"github.com/rotd/rotd/internal/types"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .rotd artifact directory",
	Long: `Initialize the project-local .rotd/ directory.

This creates:
  - .rotd/ with the test_summaries/ subdirectory
  - .rotd/tasks.jsonl seeded with a completed "init" task
  - .rotd/coverage_history.json with the default floor and ratchet threshold

An existing directory is refused unless --force is given, which removes it
first.

Example:
  cd ~/myproject
  rotd init
  rotd init --force`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()

		if dryRun {
			fmt.Printf("Dry run: would initialize %s\n", store.Dir())
			return
		}

		if err := store.Init(initForce); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		th := score.DefaultThresholds()
		hist := &types.CoverageHistory{
			Floor:            types.Float64(th.Floor),
			RatchetThreshold: types.Float64(th.Ratchet),
		}
		if err := store.WriteCoverageHistory(hist); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Initialized ROTD project\n", green("✓"))
		fmt.Printf("  Artifacts: %s\n", cyan(store.Dir()))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Remove an existing artifact directory first")
}
