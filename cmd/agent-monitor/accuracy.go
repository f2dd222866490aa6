package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/agent-monitor/pkg/accuracy"
)

type accuracyOptions struct {
	From   string
	To     string
	Format string
}

func (c *cli) newAccuracyCmd() *cobra.Command {
	opts := accuracyOptions{}

	cmd := &cobra.Command{
		Use:   "accuracy",
		Short: "Print the prediction accuracy summary",
		Long: `Print how many bitcoin predictions got the direction and the price right.

--from and --to take a local date or date-time, e.g. 2024-05-01 or
2024-05-01T12:00. Either bound may be left open. Failed requests are
retried with increasing delays before giving up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.Format); err != nil {
				return err
			}
			rng, err := accuracy.ParseRange(opts.From, opts.To)
			if err != nil {
				return err
			}

			closeLog, err := c.cfg.setupLogging(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			api, err := c.cfg.newAPI()
			if err != nil {
				return err
			}

			loader := accuracy.NewLoader(accuracy.NewClient(api), accuracy.Config{
				Unit:    c.cfg.RetryUnit,
				Timeout: c.cfg.Timeout,
			})
			return reportAccuracy(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), loader, rng, opts.Format)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "Start of the range (local time)")
	cmd.Flags().StringVar(&opts.To, "to", "", "End of the range (local time)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatTable, "Output format (table|json)")

	return cmd
}

// reportAccuracy loads the summary for rng, printing retry notices to status,
// and renders it to w.
func reportAccuracy(ctx context.Context, w, status io.Writer, loader *accuracy.Loader, rng accuracy.DateRange, format string) error {
	summary, err := loader.Run(ctx, rng, func(s accuracy.State) {
		if s.Status == accuracy.StatusRetrying {
			_, _ = fmt.Fprintln(status, s.Err)
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", accuracy.FailedMessage, err)
	}

	if format == formatJSON {
		return renderJSON(w, summary)
	}

	_, _ = fmt.Fprintf(w, "Range: %s\n", rng)
	_, _ = fmt.Fprintf(w, "Total Predictions: %d\n", summary.TotalItems)

	sections := []struct {
		title string
		stats accuracy.Rightness
	}{
		{"Direction Accuracy", summary.DirectionRightnessStats},
		{"Price Accuracy", summary.PriceRightnessStats},
	}
	for _, s := range sections {
		t := newTableWriter(w)
		t.SetTitle(s.title)
		t.AppendHeader([]any{"Outcome", "Count", "Share"})
		for _, share := range s.stats.Shares(summary.TotalItems) {
			t.AppendRow([]any{share.Label, strconv.Itoa(share.Count), accuracy.FormatPercentage(share.Count, summary.TotalItems) + "%"})
		}
		t.Render()
	}
	return nil
}
