// Command rotd is the ROTD project tool: it scores development tasks against
// the ten-point progress rubric and manages the project-local .rotd artifact
// directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/storage"
)

var (
	artifactDir string
	verbose     bool
	dryRun      bool
)

var rootCmd = &cobra.Command{
	Use:   "rotd",
	Short: "Rubric-oriented task development tool",
	Long: `rotd tracks development tasks and scores them against a fixed ten-point
progress rubric. All state lives in the project-local .rotd/ directory:
tasks.jsonl, per-task test summaries, the coverage ratchet record, and the
append-only score log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&artifactDir, "dir", storage.DefaultDir, "Artifact directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Compute without writing any artifact files")
}

func newStore() *storage.Store {
	return storage.New(artifactDir)
}
