package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int
	// Limit is the page size requested.
	Limit int
	// Timeout per page fetch.
	Timeout time.Duration
	// MaxPages caps the number of pages fetched (0 = no cap).
	MaxPages int
}

// DefaultBatchConfig returns a conservative configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Limit:          50,
		Timeout:        15 * time.Second,
	}
}

// BatchFetcher fetches every page of a resource.
type BatchFetcher[R any] struct {
	fetcher PageFetcher[R]
	config  BatchConfig
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher[R any](fetcher PageFetcher[R], config BatchConfig) *BatchFetcher[R] {
	defaults := DefaultBatchConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Limit <= 0 {
		config.Limit = defaults.Limit
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &BatchFetcher[R]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches all pages and returns their rows in page order.
// On a page failure the rows of the contiguous prefix of successful pages are
// returned together with the error.
func (bf *BatchFetcher[R]) FetchAll(ctx context.Context) ([]R, error) {
	start := time.Now()

	first, err := bf.fetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages := first.Pagination.TotalPages
	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		totalPages = bf.config.MaxPages
	}

	log.Debug().
		Int("total_pages", totalPages).
		Int("limit", bf.config.Limit).
		Msg("Starting batch page fetch")

	if totalPages <= 1 {
		return first.Data, nil
	}

	var (
		mu    sync.Mutex
		pages = map[int][]R{1: first.Data}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			env, err := bf.fetchPage(gctx, page)
			if err != nil {
				log.Warn().Err(err).Int("page", page).Msg("Page fetch failed")
				return fmt.Errorf("page %d: %w", page, err)
			}

			mu.Lock()
			pages[page] = env.Data
			mu.Unlock()
			return nil
		})
	}

	waitErr := g.Wait()

	rows := collect(pages)

	log.Info().
		Int("pages", len(pages)).
		Int("total", totalPages).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	if waitErr != nil {
		return rows, fmt.Errorf("partial data (%d/%d pages): %w", len(pages), totalPages, waitErr)
	}
	return rows, nil
}

func (bf *BatchFetcher[R]) fetchPage(ctx context.Context, page int) (Envelope[R], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return bf.fetcher.Fetch(pageCtx, page, bf.config.Limit)
}

// collect concatenates pages 1..n in order, stopping at the first gap.
func collect[R any](pages map[int][]R) []R {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var rows []R
	for i, n := range nums {
		if n != i+1 {
			break
		}
		rows = append(rows, pages[n]...)
	}
	return rows
}
