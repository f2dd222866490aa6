package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/agent-monitor/internal/testutil"
	"github.com/Sternrassler/agent-monitor/pkg/client"
	"github.com/Sternrassler/agent-monitor/pkg/pagination"
)

type entry struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Content   string `json:"content"`
}

func (e entry) RowID() string { return e.ID }

type reply struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Text      string `json:"text"`
	Source    string `json:"source"`
	Action    string `json:"action"`
}

func (r reply) RowID() string { return r.ID }

// pagedFetcher serves totalPages pages of perPage rows and records calls.
type pagedFetcher struct {
	mu         sync.Mutex
	totalPages int
	perPage    int
	calls      []int
	fail       map[int]error
}

func (f *pagedFetcher) Fetch(ctx context.Context, page, limit int) (pagination.Envelope[entry], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)

	if err := f.fail[page]; err != nil {
		delete(f.fail, page)
		return pagination.Envelope[entry]{}, err
	}

	rows := make([]entry, f.perPage)
	for i := range rows {
		rows[i] = entry{ID: fmt.Sprintf("p%d-%d", page, i)}
	}
	return pagination.Envelope[entry]{
		Data:       rows,
		Pagination: pagination.Pagination{CurrentPage: page, TotalPages: f.totalPages},
	}, nil
}

func (f *pagedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func entryConfig(name string, f pagination.PageFetcher[entry]) Config[entry, entry] {
	return Config[entry, entry]{
		Name:      name,
		Fetcher:   f,
		Transform: Identity[entry],
		Columns: []Column[entry]{
			{Key: "content", Header: "Content", Value: func(e entry) any { return e.Content }},
		},
	}
}

func ids(rows []entry) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestController_SequentialPagesConcatenate(t *testing.T) {
	f := &pagedFetcher{totalPages: 3, perPage: 2}
	c := NewController[entry, entry]()
	ctx := context.Background()

	if !c.Load(ctx, c.Configure(entryConfig("logs", f))) {
		t.Fatal("page 1 result was discarded")
	}
	for {
		req, ok := c.LoadMore()
		if !ok {
			break
		}
		c.Load(ctx, req)
	}

	state := c.State()
	want := []string{"p1-0", "p1-1", "p2-0", "p2-1", "p3-0", "p3-1"}
	if fmt.Sprint(ids(state.Rows)) != fmt.Sprint(want) {
		t.Errorf("Rows = %v, want %v", ids(state.Rows), want)
	}
	if state.HasMore {
		t.Error("HasMore = true after the last page")
	}
	if state.Page != 3 {
		t.Errorf("Page = %d, want 3", state.Page)
	}
	if fmt.Sprint(f.calls) != "[1 2 3]" {
		t.Errorf("Fetch calls = %v, want [1 2 3]", f.calls)
	}
}

func TestController_HasMoreFalseStopsLoading(t *testing.T) {
	f := &pagedFetcher{totalPages: 1, perPage: 1}
	c := NewController[entry, entry]()
	c.Load(context.Background(), c.Configure(entryConfig("logs", f)))

	if c.State().HasMore {
		t.Fatal("HasMore = true with a single page")
	}

	// Sentinel stays visible: repeated triggers must not fetch.
	for i := 0; i < 5; i++ {
		if _, ok := c.LoadMore(); ok {
			t.Fatal("LoadMore() issued a request after the last page")
		}
	}
	if f.callCount() != 1 {
		t.Errorf("Fetch called %d times, want 1", f.callCount())
	}
}

func TestController_ConfigureResetsState(t *testing.T) {
	f := &pagedFetcher{totalPages: 3, perPage: 2}
	c := NewController[entry, entry]()
	ctx := context.Background()

	c.Load(ctx, c.Configure(entryConfig("logs", f)))
	req, _ := c.LoadMore()
	c.Load(ctx, req)
	if len(c.State().Rows) != 4 {
		t.Fatalf("Expected 4 rows before reset, got %d", len(c.State().Rows))
	}

	other := &pagedFetcher{totalPages: 2, perPage: 1}
	req = c.Configure(entryConfig("predictions", other))

	state := c.State()
	if len(state.Rows) != 0 {
		t.Errorf("Rows = %v after Configure, want empty", ids(state.Rows))
	}
	if state.Page != 1 || req.Page != 1 {
		t.Errorf("Page = %d, request page = %d, want 1", state.Page, req.Page)
	}
	if !state.HasMore {
		t.Error("HasMore = false after Configure")
	}
	if !state.Loading {
		t.Error("Loading = false while page 1 is pending")
	}
	if other.callCount() != 0 {
		t.Error("Configure must not fetch by itself")
	}

	c.Load(ctx, req)
	if got := ids(c.State().Rows); fmt.Sprint(got) != "[p1-0]" {
		t.Errorf("Rows = %v, want [p1-0]", got)
	}
	if c.Name() != "predictions" {
		t.Errorf("Name() = %q, want predictions", c.Name())
	}
}

func TestController_SingleFlight(t *testing.T) {
	f := &pagedFetcher{totalPages: 5, perPage: 1}
	c := NewController[entry, entry]()
	ctx := context.Background()

	c.Load(ctx, c.Configure(entryConfig("logs", f)))

	req, ok := c.LoadMore()
	if !ok {
		t.Fatal("LoadMore() refused with more pages available")
	}

	// In flight: further intersections are no-ops.
	for i := 0; i < 3; i++ {
		if _, ok := c.LoadMore(); ok {
			t.Fatal("LoadMore() issued a second concurrent request")
		}
	}

	c.Load(ctx, req)

	// Settled: the next intersection fires again.
	next, ok := c.LoadMore()
	if !ok || next.Page != 3 {
		t.Fatalf("LoadMore() = page %d, %v; want page 3", next.Page, ok)
	}
}

func TestController_SingleFlightBeforeFirstPage(t *testing.T) {
	c := NewController[entry, entry]()
	if _, ok := c.LoadMore(); ok {
		t.Fatal("LoadMore() on an unconfigured controller returned a request")
	}

	c.Configure(entryConfig("logs", &pagedFetcher{totalPages: 2, perPage: 1}))
	if _, ok := c.LoadMore(); ok {
		t.Fatal("LoadMore() while page 1 is in flight returned a request")
	}
}

func TestController_FailurePreservesRows(t *testing.T) {
	boom := &client.HTTPError{StatusCode: 500, Class: client.ErrorClassServer}
	f := &pagedFetcher{totalPages: 3, perPage: 2, fail: map[int]error{2: boom}}
	c := NewController[entry, entry]()
	ctx := context.Background()

	c.Load(ctx, c.Configure(entryConfig("logs", f)))
	req, _ := c.LoadMore()
	c.Load(ctx, req)

	state := c.State()
	if state.Err != "HTTP error! status: 500" {
		t.Errorf("Err = %q", state.Err)
	}
	if len(state.Rows) != 2 {
		t.Errorf("Rows = %v, want page 1 rows kept", ids(state.Rows))
	}
	if state.Loading {
		t.Error("Loading = true after a failed load")
	}
	if !state.HasMore {
		t.Error("HasMore = false after a failed load")
	}

	// The next intersection re-requests the failed page and clears the error.
	retry, ok := c.LoadMore()
	if !ok || retry.Page != 2 {
		t.Fatalf("LoadMore() = page %d, %v; want page 2", retry.Page, ok)
	}
	if c.State().Err != "" {
		t.Error("Err not cleared when a new load starts")
	}
	c.Load(ctx, retry)

	want := []string{"p1-0", "p1-1", "p2-0", "p2-1"}
	if fmt.Sprint(ids(c.State().Rows)) != fmt.Sprint(want) {
		t.Errorf("Rows = %v, want %v", ids(c.State().Rows), want)
	}
}

func TestController_FirstPageFailure(t *testing.T) {
	f := &pagedFetcher{totalPages: 2, perPage: 1, fail: map[int]error{1: &client.NetworkError{Err: errors.New("connection refused")}}}
	c := NewController[entry, entry]()
	ctx := context.Background()

	c.Load(ctx, c.Configure(entryConfig("logs", f)))
	if got := c.State().Err; got != "Network error: connection refused" {
		t.Errorf("Err = %q", got)
	}

	req, ok := c.LoadMore()
	if !ok || req.Page != 1 {
		t.Fatalf("LoadMore() = page %d, %v; want page 1", req.Page, ok)
	}
}

func TestController_DiscardsStaleResults(t *testing.T) {
	slow := &pagedFetcher{totalPages: 4, perPage: 3}
	fast := &pagedFetcher{totalPages: 1, perPage: 1}
	c := NewController[entry, entry]()
	ctx := context.Background()

	staleReq := c.Configure(entryConfig("replies", slow))
	freshReq := c.Configure(entryConfig("logs", fast))

	// The fresh configuration's page lands first, then the slow stale one.
	if !c.Apply(c.Execute(ctx, freshReq)) {
		t.Fatal("fresh result discarded")
	}
	if c.Apply(c.Execute(ctx, staleReq)) {
		t.Fatal("stale result applied")
	}

	state := c.State()
	if fmt.Sprint(ids(state.Rows)) != "[p1-0]" {
		t.Errorf("Rows = %v, want only the fresh table's rows", ids(state.Rows))
	}
	if state.HasMore {
		t.Error("stale result changed HasMore")
	}
}

func TestController_DiscardsDuplicateApply(t *testing.T) {
	f := &pagedFetcher{totalPages: 2, perPage: 1}
	c := NewController[entry, entry]()
	ctx := context.Background()

	res := c.Execute(ctx, c.Configure(entryConfig("logs", f)))
	if !c.Apply(res) {
		t.Fatal("first apply discarded")
	}
	if c.Apply(res) {
		t.Error("second apply of the same result accepted")
	}
	if n := len(c.State().Rows); n != 1 {
		t.Errorf("Rows = %d, want 1", n)
	}
}

func TestController_ResetRetriesFromFirstPage(t *testing.T) {
	f := &pagedFetcher{totalPages: 3, perPage: 1}
	c := NewController[entry, entry]()
	ctx := context.Background()

	if _, ok := c.Reset(); ok {
		t.Fatal("Reset() on an unconfigured controller returned a request")
	}

	c.Load(ctx, c.Configure(entryConfig("logs", f)))
	req, _ := c.LoadMore()
	c.Load(ctx, req)

	req, ok := c.Reset()
	if !ok || req.Page != 1 {
		t.Fatalf("Reset() = page %d, %v; want page 1", req.Page, ok)
	}
	if n := len(c.State().Rows); n != 0 {
		t.Errorf("Rows = %d after Reset, want 0", n)
	}
}

func TestController_DismissError(t *testing.T) {
	f := &pagedFetcher{totalPages: 1, perPage: 1, fail: map[int]error{1: errors.New("boom")}}
	c := NewController[entry, entry]()
	c.Load(context.Background(), c.Configure(entryConfig("logs", f)))

	if c.State().Err == "" {
		t.Fatal("expected an error")
	}
	c.DismissError()
	if c.State().Err != "" {
		t.Error("DismissError() did not clear the error")
	}
}

func TestController_StateIsSnapshot(t *testing.T) {
	f := &pagedFetcher{totalPages: 1, perPage: 2}
	c := NewController[entry, entry]()
	c.Load(context.Background(), c.Configure(entryConfig("logs", f)))

	state := c.State()
	state.Rows[0].ID = "mutated"
	if c.State().Rows[0].ID == "mutated" {
		t.Error("State() exposes internal rows")
	}
}

func TestController_TransformError(t *testing.T) {
	f := &pagedFetcher{totalPages: 1, perPage: 1}
	cfg := entryConfig("logs", f)
	cfg.Transform = func(pagination.Envelope[entry]) (pagination.Envelope[entry], error) {
		return pagination.Envelope[entry]{}, errors.New("bad content")
	}

	c := NewController[entry, entry]()
	res := c.Execute(context.Background(), c.Configure(cfg))

	if client.Classify(res.Err) != client.ErrorClassDecode {
		t.Errorf("Classify(%v) = %q, want decode", res.Err, client.Classify(res.Err))
	}
	c.Apply(res)
	if c.State().Err == "" {
		t.Error("transform failure not surfaced")
	}
}

func TestController_ExecuteTimeout(t *testing.T) {
	blocking := pagination.FetcherFunc[entry](func(ctx context.Context, page, limit int) (pagination.Envelope[entry], error) {
		<-ctx.Done()
		return pagination.Envelope[entry]{}, &client.NetworkError{Err: ctx.Err()}
	})
	cfg := entryConfig("logs", blocking)
	cfg.Timeout = 20 * time.Millisecond

	c := NewController[entry, entry]()
	start := time.Now()
	c.Load(context.Background(), c.Configure(cfg))

	if time.Since(start) > time.Second {
		t.Error("Execute did not honor the timeout")
	}
	if got := c.State().Err; got != "Request timed out" {
		t.Errorf("Err = %q, want %q", got, "Request timed out")
	}
}

func TestController_DefaultLimit(t *testing.T) {
	var gotLimit int
	f := pagination.FetcherFunc[entry](func(ctx context.Context, page, limit int) (pagination.Envelope[entry], error) {
		gotLimit = limit
		return pagination.Envelope[entry]{Pagination: pagination.Pagination{CurrentPage: 1, TotalPages: 1}}, nil
	})

	c := NewController[entry, entry]()
	c.Load(context.Background(), c.Configure(entryConfig("logs", f)))
	if gotLimit != pagination.DefaultLimit {
		t.Errorf("limit = %d, want %d", gotLimit, pagination.DefaultLimit)
	}
}

// TestController_ParsedContentScenario exercises the full path against an
// HTTP backend with a transform that parses an embedded JSON field.
func TestController_ParsedContentScenario(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/memories", testutil.NewJSONResponse(
		`{"data":[{"id":"1","createdAt":"2024-01-01T00:00:00Z","content":"{\"text\":\"hi\",\"source\":\"x\",\"action\":\"reply\"}"}],"pagination":{"currentPage":1,"totalPages":2}}`,
	))

	apiClient, err := client.New(client.DefaultConfig(mock.URL()))
	if err != nil {
		t.Fatalf("client.New() failed: %v", err)
	}

	cfg := Config[entry, reply]{
		Name:    "replies",
		Fetcher: pagination.NewFetcher[entry](apiClient, "/memories"),
		Transform: func(e pagination.Envelope[entry]) (pagination.Envelope[reply], error) {
			return pagination.Map(e, func(raw entry) (reply, error) {
				var r reply
				if err := json.Unmarshal([]byte(raw.Content), &r); err != nil {
					return reply{}, err
				}
				r.ID, r.CreatedAt = raw.ID, raw.CreatedAt
				return r, nil
			})
		},
	}

	c := NewController[entry, reply]()
	c.Load(context.Background(), c.Configure(cfg))

	state := c.State()
	if state.Err != "" {
		t.Fatalf("Err = %q", state.Err)
	}
	want := reply{ID: "1", CreatedAt: "2024-01-01T00:00:00Z", Text: "hi", Source: "x", Action: "reply"}
	if len(state.Rows) != 1 || state.Rows[0] != want {
		t.Errorf("Rows = %+v, want [%+v]", state.Rows, want)
	}
	if !state.HasMore {
		t.Error("HasMore = false with page 1 of 2")
	}
}
