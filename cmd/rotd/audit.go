package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/audit"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit log entries, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := audit.NewLogger(newStore())
		lines, err := logger.Recent(auditLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(lines) == 0 {
			fmt.Println("No audit entries")
			return
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVar(&auditLimit, "limit", 10, "Maximum entries to show")
}
