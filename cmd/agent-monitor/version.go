package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func userAgent() string {
	return "agent-monitor/" + Version
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "agent-monitor %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
			return err
		},
	}
}
