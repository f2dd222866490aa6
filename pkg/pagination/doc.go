// Package pagination fetches pages from the backend's paginated list endpoints.
//
// Every list endpoint answers GET {base}/{resource}?page={n}&limit={l} with a
// page envelope:
//
//	{"data": [...], "pagination": {"currentPage": 1, "itemsPerPage": 5, "totalItems": 12, "totalPages": 3}}
//
// Fetcher issues exactly one request per call and keeps nothing between calls.
// The envelope is validated eagerly: a body without "data" or "pagination" is a
// *client.DecodeError at fetch time rather than a rendering problem later.
//
// Example usage:
//
//	f := pagination.NewFetcher[datasets.LogEntry](apiClient, "/plugin-tarot-logs")
//	page, err := f.Fetch(ctx, 1, pagination.DefaultLimit)
//
// BatchFetcher exports a whole dataset: it fetches page 1 to learn the page
// count, then the remaining pages with a bounded worker pool. The interactive
// table never uses it; it fetches strictly one page at a time.
package pagination
