// Command agent-monitor is a read-only terminal dashboard for an autonomous
// agent's activity records and prediction accuracy.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
