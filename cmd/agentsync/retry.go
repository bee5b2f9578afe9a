package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/templateforge/agentsync/internal/sync"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry failed and pending agents",
	Long: `Re-attempt every agent currently in failed or pending state.

Exits 0 only when every retried agent succeeds.`,
	RunE: runRetry,
}

func runRetry(cmd *cobra.Command, args []string) error {
	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	syncer := sync.New(root)
	defer syncer.Close()

	if _, err := syncer.Config().Load(); err != nil {
		return err
	}

	retried, succeeded := syncer.RetryFailed(context.Background())
	if succeeded != retried {
		os.Exit(1)
	}
	return nil
}
