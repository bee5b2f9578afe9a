package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templateforge/agentsync/internal/ratelimit"
	"github.com/templateforge/agentsync/internal/sync"
)

var rateStatusCmd = &cobra.Command{
	Use:   "rate-status",
	Short: "Show rate limit usage for both windows",
	RunE:  runRateStatus,
}

func runRateStatus(cmd *cobra.Command, args []string) error {
	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	syncer := sync.New(root)
	defer syncer.Close()

	status := syncer.Limiter().Status()

	fmt.Println("=== Rate Limit Status ===")
	printResource("New Repository Creation", status.NewRepos)
	printResource("Agent Updates", status.Updates)
	return nil
}

func printResource(title string, rs ratelimit.ResourceStatus) {
	fmt.Printf("\n%s (%s):\n", title, rs.Window)
	fmt.Printf("  Current: %d\n", rs.Current)
	if rs.Limit <= 0 {
		fmt.Println("  Limit: unlimited")
		return
	}
	fmt.Printf("  Limit: %d\n", rs.Limit)
	fmt.Printf("  Remaining: %d\n", rs.Remaining)
}
