package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/templateforge/agentsync/internal/sync"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked-agent sync status",
	Long: `Display the sync status of every tracked agent.

Shows counts by status and itemizes pending and failed agents with their
last recorded error.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	syncer := sync.New(root)
	defer syncer.Close()

	report := syncer.Status()

	fmt.Println("=== Agent Sync Status ===")
	if report.LastSync == "" {
		fmt.Println("Last sync: never")
	} else {
		fmt.Printf("Last sync: %s\n", report.LastSync)
	}

	if report.Total == 0 {
		fmt.Println("No agents tracked yet")
		return nil
	}

	fmt.Printf("\nTotal agents: %d\n", report.Total)
	color.Green("  ✓ Synced: %d", len(report.Synced))

	if len(report.Pending) > 0 {
		color.Yellow("  ⏳ Pending: %d", len(report.Pending))
		for _, agent := range report.Pending {
			fmt.Printf("    - %s: %s\n", agent.Key, agent.LastError)
		}
	}

	if len(report.Failed) > 0 {
		color.Red("  ✗ Failed: %d", len(report.Failed))
		for _, agent := range report.Failed {
			errText := agent.LastError
			if errText == "" {
				errText = "unknown error"
			}
			fmt.Printf("    - %s: %s\n", agent.Key, errText)
		}
	}

	return nil
}
