package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

var repoRoot string

var rootCmd = &cobra.Command{
	Use:   "agentsync",
	Short: "Keep generated agent repositories in sync with their templates",
	Long: `Agentsync keeps a fleet of generated agent repositories synchronized
with the configuration files and templates in this monorepo.

On every monorepo commit the post-commit hook runs 'agentsync hook', which
detects changed configurations and templates, regenerates the affected
agents, and pushes them to their hosted repositories, respecting the
configured rate limits and recording every outcome in .sync-state.json.

Configuration lives in .sync-config.json at the repo root; credentials come
from the environment or an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveRepoRoot returns the --repo-root flag when set, otherwise the git
// toplevel of the working directory, otherwise the working directory itself.
func resolveRepoRoot() (string, error) {
	if repoRoot != "" {
		return repoRoot, nil
	}

	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		if top := strings.TrimSpace(string(out)); top != "" {
			return top, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo-root", "", "Monorepo root (default: git toplevel of the working directory)")

	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(rateStatusCmd)
	rootCmd.AddCommand(forceCmd)
	rootCmd.AddCommand(versionCmd)
}
