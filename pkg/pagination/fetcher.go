package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/agent-monitor/pkg/client"
)

// PageFetcher fetches a single page of a list endpoint.
type PageFetcher[R any] interface {
	Fetch(ctx context.Context, page, limit int) (Envelope[R], error)
}

// Fetcher fetches pages of one resource through the API client.
type Fetcher[R any] struct {
	client   *client.Client
	resource string
}

// NewFetcher creates a fetcher for a resource path such as "/memories".
func NewFetcher[R any](c *client.Client, resource string) *Fetcher[R] {
	return &Fetcher[R]{
		client:   c,
		resource: resource,
	}
}

// Fetch requests GET {base}{resource}?page={page}&limit={limit}.
// Errors are *client.HTTPError, *client.NetworkError or *client.DecodeError.
func (f *Fetcher[R]) Fetch(ctx context.Context, page, limit int) (Envelope[R], error) {
	if page < 1 || limit < 1 {
		return Envelope[R]{}, fmt.Errorf("%w (page=%d, limit=%d)", ErrInvalidPage, page, limit)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var env Envelope[R]
	if err := f.client.GetJSON(ctx, f.resource, query, &env); err != nil {
		return Envelope[R]{}, err
	}

	return env, nil
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[R any] func(ctx context.Context, page, limit int) (Envelope[R], error)

// Fetch calls f.
func (f FetcherFunc[R]) Fetch(ctx context.Context, page, limit int) (Envelope[R], error) {
	return f(ctx, page, limit)
}
