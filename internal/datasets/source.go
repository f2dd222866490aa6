package datasets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/agent-monitor/pkg/client"
	"github.com/Sternrassler/agent-monitor/pkg/pagination"
	"github.com/Sternrassler/agent-monitor/pkg/table"
)

// Config returns the table configuration of the tab.
func (d Definition[R, T]) Config(api *client.Client, limit int, timeout time.Duration) table.Config[R, T] {
	return d.ConfigWith(pagination.NewFetcher[R](api, d.Resource), limit, timeout)
}

// ConfigWith returns the table configuration reading pages from f.
func (d Definition[R, T]) ConfigWith(f pagination.PageFetcher[R], limit int, timeout time.Duration) table.Config[R, T] {
	return table.Config[R, T]{
		Name:      d.Name,
		Fetcher:   f,
		Columns:   d.Columns,
		Transform: d.Transform,
		Limit:     limit,
		Timeout:   timeout,
	}
}

// Rendered is a page or a whole dataset with every cell rendered to text.
type Rendered struct {
	Headers    []string
	Keys       []string
	Rows       [][]string
	Records    []any
	Pagination pagination.Pagination
}

// Source reads a tab without knowing its row types.
type Source interface {
	Name() string
	Resource() string
	Page(ctx context.Context, page, limit int) (Rendered, error)
	All(ctx context.Context, cfg pagination.BatchConfig) (Rendered, error)
}

// Source returns the tab as a Source reading through api.
func (d Definition[R, T]) Source(api *client.Client) Source {
	return d.SourceWith(pagination.NewFetcher[R](api, d.Resource))
}

// SourceWith returns the tab as a Source reading pages from f.
func (d Definition[R, T]) SourceWith(f pagination.PageFetcher[R]) Source {
	return &source[R, T]{def: d, fetcher: f}
}

type source[R any, T table.Row] struct {
	def     Definition[R, T]
	fetcher pagination.PageFetcher[R]
}

func (s *source[R, T]) Name() string     { return s.def.Name }
func (s *source[R, T]) Resource() string { return s.def.Resource }

func (s *source[R, T]) Page(ctx context.Context, page, limit int) (Rendered, error) {
	raw, err := s.fetcher.Fetch(ctx, page, limit)
	if err != nil {
		return Rendered{}, err
	}
	return s.render(raw)
}

// All fetches every page. When a page fails the rows fetched before it are
// returned along with the error.
func (s *source[R, T]) All(ctx context.Context, cfg pagination.BatchConfig) (Rendered, error) {
	rows, fetchErr := pagination.NewBatchFetcher(s.fetcher, cfg).FetchAll(ctx)

	out, err := s.render(pagination.Envelope[R]{
		Data: rows,
		Pagination: pagination.Pagination{
			CurrentPage: 1,
			TotalPages:  1,
			TotalItems:  len(rows),
		},
	})
	if err != nil {
		return Rendered{}, errors.Join(fetchErr, err)
	}
	return out, fetchErr
}

func (s *source[R, T]) render(raw pagination.Envelope[R]) (Rendered, error) {
	env, err := s.def.Transform(raw)
	if err != nil {
		return Rendered{}, &client.DecodeError{Err: fmt.Errorf("transform %s: %w", s.def.Name, err)}
	}

	out := Rendered{
		Headers:    table.Headers(s.def.Columns),
		Keys:       make([]string, len(s.def.Columns)),
		Rows:       make([][]string, 0, len(env.Data)),
		Records:    make([]any, 0, len(env.Data)),
		Pagination: env.Pagination,
	}
	for i, c := range s.def.Columns {
		out.Keys[i] = c.Key
	}
	for _, row := range env.Data {
		out.Rows = append(out.Rows, table.RowValues(s.def.Columns, row))
		out.Records = append(out.Records, row)
	}
	return out, nil
}

// Sources returns every table tab as a Source, keyed by tab name.
func Sources(api *client.Client) map[string]Source {
	return map[string]Source{
		TabReplies:             Replies.Source(api),
		TabLogs:                Logs.Source(api),
		TabBitcoinPredictions:  BitcoinPredictions.Source(api),
		TabTwitterInteractions: TwitterInteractions.Source(api),
	}
}

// TableTabs lists the tabs backed by a paginated table, in display order.
func TableTabs() []string {
	out := make([]string, 0, len(Tabs)-1)
	for _, t := range Tabs {
		if t != TabAccuracy {
			out = append(out, t)
		}
	}
	return out
}
