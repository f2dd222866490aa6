package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/agent-monitor/pkg/client"
	"github.com/Sternrassler/agent-monitor/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for table controllers.
var (
	rowsLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmon_table_rows_loaded_total",
		Help: "Total rows appended to tables by table name",
	}, []string{"table"})

	pageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmon_table_page_failures_total",
		Help: "Total failed page loads by table name and error class",
	}, []string{"table", "error_class"})

	staleResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmon_table_stale_results_total",
		Help: "Total page results discarded because the table was reconfigured",
	}, []string{"table"})
)

// DefaultTimeout bounds a single page load when Config.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// ErrNotConfigured is returned when a controller is used before Configure.
var ErrNotConfigured = errors.New("table not configured")

// Transform converts a raw page into display rows.
type Transform[R any, T Row] func(pagination.Envelope[R]) (pagination.Envelope[T], error)

// Config is the configuration of one table.
type Config[R any, T Row] struct {
	// Name identifies the table in logs and metrics.
	Name string
	// Fetcher loads raw pages.
	Fetcher pagination.PageFetcher[R]
	// Columns defines the table structure.
	Columns []Column[T]
	// Transform converts raw pages into display rows. Required.
	Transform Transform[R, T]
	// Limit is the page size (0 = pagination.DefaultLimit).
	Limit int
	// Timeout bounds each page load (0 = DefaultTimeout).
	Timeout time.Duration
}

// Identity is the Transform for tables whose raw rows are display rows.
func Identity[T Row](e pagination.Envelope[T]) (pagination.Envelope[T], error) {
	return e, nil
}

// State is a snapshot of a table's state.
type State[T Row] struct {
	Rows    []T
	Page    int
	Loading bool
	HasMore bool
	Err     string
}

// Request identifies one page load. It carries the generation it was
// issued under so results of a superseded configuration can be dropped.
type Request[R any, T Row] struct {
	Generation uint64
	Page       int
	Limit      int

	cfg Config[R, T]
}

// Result is the outcome of executing a Request.
type Result[T Row] struct {
	Generation uint64
	Page       int
	Envelope   pagination.Envelope[T]
	Err        error
}

// Controller owns the state of one mounted table.
//
// Configure resets the table and yields the page-1 request; LoadMore yields the
// next request when the scroll sentinel becomes visible. Requests are executed
// off the event loop with Execute and folded back in with Apply. At most one
// request is in flight at a time.
type Controller[R any, T Row] struct {
	mu         sync.Mutex
	cfg        Config[R, T]
	configured bool
	generation uint64

	rows    []T
	page    int // page of the most recent request
	loaded  int // last page applied successfully
	loading bool
	hasMore bool
	err     string

	logger zerolog.Logger
}

// NewController creates an unconfigured controller.
func NewController[R any, T Row]() *Controller[R, T] {
	return &Controller[R, T]{
		logger: log.With().Str("component", "table").Logger(),
	}
}

// Configure applies a (new) configuration: rows are cleared, the page is reset
// to 1, hasMore is set and the error cleared. The returned request loads page 1.
func (c *Controller[R, T]) Configure(cfg Config[R, T]) Request[R, T] {
	if cfg.Limit <= 0 {
		cfg.Limit = pagination.DefaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Transform == nil {
		panic("table: Config.Transform is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = cfg
	c.configured = true
	c.generation++
	c.rows = nil
	c.page = 1
	c.loaded = 0
	c.hasMore = true
	c.err = ""
	c.loading = true

	c.logger.Debug().
		Str("table", cfg.Name).
		Uint64("generation", c.generation).
		Msg("Table configured")

	return c.request(1)
}

// Reset re-applies the current configuration.
func (c *Controller[R, T]) Reset() (Request[R, T], bool) {
	c.mu.Lock()
	cfg, ok := c.cfg, c.configured
	c.mu.Unlock()

	if !ok {
		return Request[R, T]{}, false
	}
	return c.Configure(cfg), true
}

// LoadMore is the sentinel trigger. It returns the request for the next page,
// or false when there are no more pages or a load is already in flight.
func (c *Controller[R, T]) LoadMore() (Request[R, T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.configured || !c.hasMore || c.loading {
		return Request[R, T]{}, false
	}

	c.page = c.loaded + 1
	c.loading = true
	c.err = ""

	c.logger.Debug().
		Str("table", c.cfg.Name).
		Int("page", c.page).
		Msg("Loading next page")

	return c.request(c.page), true
}

func (c *Controller[R, T]) request(page int) Request[R, T] {
	return Request[R, T]{
		Generation: c.generation,
		Page:       page,
		Limit:      c.cfg.Limit,
		cfg:        c.cfg,
	}
}

// Execute fetches and transforms the page of a request. It does not touch the
// controller state and may run on any goroutine.
func (c *Controller[R, T]) Execute(ctx context.Context, req Request[R, T]) Result[T] {
	res := Result[T]{Generation: req.Generation, Page: req.Page}

	if req.cfg.Fetcher == nil {
		res.Err = ErrNotConfigured
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, req.cfg.Timeout)
	defer cancel()

	raw, err := req.cfg.Fetcher.Fetch(ctx, req.Page, req.Limit)
	if err != nil {
		res.Err = err
		return res
	}

	env, err := req.cfg.Transform(raw)
	if err != nil {
		var decErr *client.DecodeError
		if !errors.As(err, &decErr) {
			err = &client.DecodeError{Err: fmt.Errorf("transform: %w", err)}
		}
		res.Err = err
		return res
	}

	res.Envelope = env
	return res
}

// Apply folds a result into the state. Results from an older generation or
// for a page that is no longer awaited are discarded and false is returned.
func (c *Controller[R, T]) Apply(res Result[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Generation != c.generation || !c.loading || res.Page != c.page {
		staleResultsTotal.WithLabelValues(c.cfg.Name).Inc()
		c.logger.Debug().
			Str("table", c.cfg.Name).
			Uint64("generation", res.Generation).
			Uint64("current_generation", c.generation).
			Int("page", res.Page).
			Msg("Discarding stale page result")
		return false
	}

	c.loading = false

	if res.Err != nil {
		c.err = client.Message(res.Err)
		class := client.Classify(res.Err)
		pageFailuresTotal.WithLabelValues(c.cfg.Name, string(class)).Inc()
		c.logger.Warn().
			Err(res.Err).
			Str("table", c.cfg.Name).
			Int("page", res.Page).
			Str("error_class", string(class)).
			Msg("Page load failed")
		return true
	}

	c.rows = append(c.rows, res.Envelope.Data...)
	c.loaded = res.Page
	c.hasMore = res.Envelope.Pagination.HasMore(res.Page)
	c.err = ""

	rowsLoadedTotal.WithLabelValues(c.cfg.Name).Add(float64(len(res.Envelope.Data)))
	c.logger.Debug().
		Str("table", c.cfg.Name).
		Int("page", res.Page).
		Int("rows", len(res.Envelope.Data)).
		Int("total_pages", res.Envelope.Pagination.TotalPages).
		Bool("has_more", c.hasMore).
		Msg("Page applied")

	return true
}

// Load executes a request and applies its result.
func (c *Controller[R, T]) Load(ctx context.Context, req Request[R, T]) bool {
	return c.Apply(c.Execute(ctx, req))
}

// DismissError clears the error message.
func (c *Controller[R, T]) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = ""
}

// State returns a snapshot of the table state.
func (c *Controller[R, T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]T, len(c.rows))
	copy(rows, c.rows)

	return State[T]{
		Rows:    rows,
		Page:    c.page,
		Loading: c.loading,
		HasMore: c.hasMore,
		Err:     c.err,
	}
}

// Columns returns the configured columns.
func (c *Controller[R, T]) Columns() []Column[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Columns
}

// Name returns the configured table name.
func (c *Controller[R, T]) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Name
}
