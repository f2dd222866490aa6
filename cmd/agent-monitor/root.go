package main

import (
	"github.com/spf13/cobra"
)

// cli carries state shared by the commands of one invocation.
type cli struct {
	configPath string
	cfg        config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "agent-monitor",
		Short: "Terminal dashboard for an autonomous agent",
		Long: `agent-monitor shows what an autonomous agent has been doing: its replies,
plugin logs, bitcoin price predictions and twitter interactions, plus how
accurate the predictions turned out to be.

Run without a subcommand to open the dashboard.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := loadConfig(c.configPath, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		Args:          cobra.NoArgs,
		RunE:          c.runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $HOME/.config/agent-monitor/config.yml)")
	flags.String("api-url", "", "Backend API base URL (env: API_URL)")
	flags.Int("page-limit", 5, "Rows requested per page")
	flags.Duration("timeout", 0, "Timeout per request (default 15s)")
	flags.String("log-level", "", "Log level (debug|info|warn|error|off)")
	flags.String("log-file", "", "Write logs to this file")
	flags.Bool("log-pretty", false, "Human-readable log output")
	flags.String("prefs-backend", "", "Where the active tab is saved (file|redis|none)")
	flags.String("prefs-file", "", "Preferences file for the file backend")
	flags.String("redis-addr", "", "Redis address for the redis backend")
	flags.String("profile", "", "Preference profile name for the redis backend")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flags.Duration("retry-unit", 0, "Base delay between accuracy retries (default 1s)")

	_ = rootCmd.RegisterFlagCompletionFunc("prefs-backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{backendFile, backendRedis, backendNone}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error", "off"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Open the dashboard (default)",
		Args:  cobra.NoArgs,
		RunE:  c.runTUI,
	})
	rootCmd.AddCommand(c.newDumpCmd())
	rootCmd.AddCommand(c.newAccuracyCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
