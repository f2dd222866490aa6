package accuracy

import (
	"context"

	"github.com/Sternrassler/agent-monitor/pkg/client"
)

// Resource is the path of the accuracy endpoint.
const Resource = "/bitcoin-predictions-accuracy"

// Fetcher loads an accuracy summary.
type Fetcher interface {
	Fetch(ctx context.Context, rng DateRange) (Summary, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, rng DateRange) (Summary, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, rng DateRange) (Summary, error) {
	return f(ctx, rng)
}

// Client fetches summaries through the API client.
type Client struct {
	api *client.Client
}

// NewClient creates an accuracy client.
func NewClient(api *client.Client) *Client {
	return &Client{api: api}
}

// Fetch requests GET {base}/bitcoin-predictions-accuracy[?from=..&to=..].
func (c *Client) Fetch(ctx context.Context, rng DateRange) (Summary, error) {
	var s Summary
	if err := c.api.GetJSON(ctx, Resource, rng.Query(), &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}
