package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/templateforge/agentsync/internal/sync"
)

var (
	forceTemplate string
	forceAll      bool
	forceDryRun   bool
)

var forceCmd = &cobra.Command{
	Use:   "force",
	Short: "Force sync agents regardless of version-control state",
	Long: `Resync agents without consulting change detection.

Iterates every configuration file under one template (--template) or all
templates (--all). Agents already tracked are regenerated and pushed as
updates; unknown configurations are treated as new agents.

Use --dry-run to list the would-be targets without side effects.

Exits 0 when every target synced, 1 otherwise.`,
	RunE: runForce,
}

func runForce(cmd *cobra.Command, args []string) error {
	if forceTemplate == "" && !forceAll {
		return fmt.Errorf("one of --template or --all is required")
	}
	if forceTemplate != "" && forceAll {
		return fmt.Errorf("--template and --all are mutually exclusive")
	}

	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	syncer := sync.New(root)
	defer syncer.Close()

	if forceDryRun {
		fmt.Println("DRY RUN MODE - no changes will be made")
		if forceTemplate != "" {
			return syncer.DryRunTemplate(forceTemplate)
		}
		syncer.DryRunAll()
		return nil
	}

	if _, err := syncer.Config().Load(); err != nil {
		return err
	}

	ctx := context.Background()

	var result sync.Result
	if forceTemplate != "" {
		fmt.Printf("Force syncing template: %s\n", forceTemplate)
		result = syncer.ForceTemplate(ctx, forceTemplate)
	} else {
		fmt.Println("Force syncing all templates")
		result = syncer.ForceAll(ctx)
	}

	if result.Failed() {
		os.Exit(1)
	}
	return nil
}

func init() {
	forceCmd.Flags().StringVar(&forceTemplate, "template", "", "Template name to force sync")
	forceCmd.Flags().BoolVar(&forceAll, "all", false, "Force sync all templates")
	forceCmd.Flags().BoolVar(&forceDryRun, "dry-run", false, "List would-be targets without syncing")
}
