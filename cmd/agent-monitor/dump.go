package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/agent-monitor/internal/datasets"
	"github.com/Sternrassler/agent-monitor/pkg/pagination"
)

type dumpOptions struct {
	Page   int
	All    bool
	Format string
	Limit  int
	Batch  pagination.BatchConfig
}

func (c *cli) newDumpCmd() *cobra.Command {
	opts := dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump <dataset>",
		Short: "Print a dataset page, or the whole dataset, without the dashboard",
		Long: fmt.Sprintf(`Print rows of a dataset rendered the same way the dashboard shows them.

Datasets: %s`, strings.Join(datasets.TableTabs(), ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: datasets.TableTabs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.Format); err != nil {
				return err
			}
			if !slices.Contains(datasets.TableTabs(), args[0]) {
				return fmt.Errorf("unknown dataset %q (want one of %s)", args[0], strings.Join(datasets.TableTabs(), ", "))
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

			opts.Limit = c.cfg.PageLimit
			opts.Batch = pagination.DefaultBatchConfig()
			opts.Batch.Timeout = c.cfg.Timeout

			return dump(cmd.Context(), cmd.OutOrStdout(), datasets.Sources(api)[args[0]], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page to print")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Print every page")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatTable, "Output format (table|json)")
	cmd.MarkFlagsMutuallyExclusive("page", "all")

	return cmd
}

// dump prints one page or every page of src. With --all, rows fetched before a
// failing page are printed before the error is returned.
func dump(ctx context.Context, w io.Writer, src datasets.Source, opts dumpOptions) error {
	var (
		out      datasets.Rendered
		fetchErr error
		footer   string
	)

	if opts.All {
		out, fetchErr = src.All(ctx, opts.Batch)
		if fetchErr != nil && len(out.Rows) == 0 {
			return fmt.Errorf("dump %s: %w", src.Name(), fetchErr)
		}
		footer = fmt.Sprintf("(%d rows)", len(out.Rows))
	} else {
		if opts.Page < 1 {
			return fmt.Errorf("%w: %d", pagination.ErrInvalidPage, opts.Page)
		}
		var err error
		out, err = src.Page(ctx, opts.Page, opts.Limit)
		if err != nil {
			return fmt.Errorf("dump %s page %d: %w", src.Name(), opts.Page, err)
		}
		p := out.Pagination
		footer = fmt.Sprintf("(page %d of %d, %d items)", p.CurrentPage, p.TotalPages, p.TotalItems)
	}

	switch opts.Format {
	case formatJSON:
		if out.Records == nil {
			out.Records = []any{}
		}
		if err := renderJSON(w, out.Records); err != nil {
			return err
		}
	default:
		renderTable(w, out.Headers, out.Rows, footer)
	}

	if fetchErr != nil {
		return fmt.Errorf("dump %s incomplete after %d rows: %w", src.Name(), len(out.Rows), fetchErr)
	}
	return nil
}
