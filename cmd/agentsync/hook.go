package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/templateforge/agentsync/internal/sync"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run the post-commit sync workflow",
	Long: `Run the incremental sync workflow triggered by the post-commit hook.

Detects configuration and template changes since the previous revision and
syncs the affected agents: new configs get a fresh repository, modified
configs are regenerated and pushed, and template changes fan out to every
agent using the template.

Exits 0 when every affected agent synced, 1 otherwise.`,
	RunE: runHook,
}

func runHook(cmd *cobra.Command, args []string) error {
	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	syncer := sync.New(root)
	defer syncer.Close()

	// Fail fast on configuration errors before any agent is touched.
	if _, err := syncer.Config().Load(); err != nil {
		return err
	}

	if !syncer.Config().AutoSync() {
		fmt.Println("Auto-sync disabled (sync.auto_sync_on_commit=false)")
		return nil
	}

	result := syncer.RunHookMode(context.Background())
	if result.Failed() {
		os.Exit(1)
	}
	return nil
}
