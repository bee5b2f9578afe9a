package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templateforge/agentsync/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agentsync version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentsync version %s\n", version.Get())
	},
}
