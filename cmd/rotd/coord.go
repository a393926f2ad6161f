package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rotd/rotd/internal/coord"
)

var coordCmd = &cobra.Command{
	Use:   "coord",
	Short: "Coordinate work between agents via the shared registry",
	Long: `Coordinate multiple agents working in one project through
.rotd/coordination/active_work_registry.json. Agents identify themselves via
the ROTD_AGENT_ID environment variable.`,
}

var coordClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the highest-priority unclaimed task",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		m := coord.NewManager(newStore(), coord.AgentID())
		task, err := m.Claim()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if task == nil {
			fmt.Println("No eligible tasks available")
			return
		}
		fmt.Printf("Claimed task %s: %s\n", task.ID, task.Title)
	},
}

var coordReleaseCmd = &cobra.Command{
	Use:   "release <task_id>",
	Short: "Mark a claimed task as done",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := coord.NewManager(newStore(), coord.AgentID())
		if err := m.Release(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Released task %s\n", args[0])
	},
}

var coordLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registry tasks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		m := coord.NewManager(newStore(), coord.AgentID())
		tasks, err := m.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tasks) == 0 {
			fmt.Println("Work registry is empty")
			return
		}
		cyan := color.New(color.FgCyan).SprintFunc()
		for _, task := range tasks {
			holder := ""
			if task.ClaimedBy != nil {
				holder = " (" + *task.ClaimedBy + ")"
			}
			fmt.Printf("%s [%s/%s] %s%s\n",
				cyan(task.ID), task.Priority, task.Status, task.Title, holder)
		}
	},
}

func init() {
	rootCmd.AddCommand(coordCmd)
	coordCmd.AddCommand(coordClaimCmd)
	coordCmd.AddCommand(coordReleaseCmd)
	coordCmd.AddCommand(coordLsCmd)
}
