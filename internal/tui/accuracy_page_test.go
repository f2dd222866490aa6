package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/agent-monitor/pkg/accuracy"
)

type summaryFetcher struct {
	mu       sync.Mutex
	failures int
	calls    int
	ranges   []accuracy.DateRange
}

func (f *summaryFetcher) Fetch(ctx context.Context, rng accuracy.DateRange) (accuracy.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ranges = append(f.ranges, rng)
	if f.calls <= f.failures {
		return accuracy.Summary{}, errors.New("connection reset")
	}
	return accuracy.Summary{
		TotalItems:              12,
		DirectionRightnessStats: accuracy.Rightness{Correct: 3, Incorrect: 6, NotChecked: 3},
		PriceRightnessStats:     accuracy.Rightness{Correct: 1, Incorrect: 1, NotChecked: 10},
	}, nil
}

func newAccuracyPage(f accuracy.Fetcher) *AccuracyPage {
	loader := accuracy.NewLoader(f, accuracy.Config{Unit: time.Millisecond})
	return NewAccuracyPage(context.Background(), loader, DefaultKeyMap())
}

func TestAccuracyPage_RecoversAfterRetries(t *testing.T) {
	t.Parallel()

	f := &summaryFetcher{failures: 2}
	p := newAccuracyPage(f)

	drive(p.Activate(), p.Update)

	state := p.Loader().State()
	if state.Status != accuracy.StatusSuccess {
		t.Fatalf("status = %v, want success", state.Status)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}

	view := p.View(100, 40)
	for _, want := range []string{"Total Predictions: 12", "25.0%", "50.0%", "83.3%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Retry attempt") {
		t.Error("retry message lingers after success")
	}
}

func TestAccuracyPage_FailsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	f := &summaryFetcher{failures: 100}
	p := newAccuracyPage(f)

	drive(p.Activate(), p.Update)

	if f.calls != accuracy.MaxAttempts {
		t.Errorf("calls = %d, want %d", f.calls, accuracy.MaxAttempts)
	}
	if view := p.View(100, 40); !strings.Contains(view, accuracy.FailedMessage) {
		t.Errorf("view missing terminal error:\n%s", view)
	}
}

func TestAccuracyPage_RetryMessageWhileWaiting(t *testing.T) {
	t.Parallel()

	p := newAccuracyPage(&summaryFetcher{failures: 1})

	msgs := messages(p.Activate())
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if cmd := p.Update(msgs[0]); cmd == nil {
		t.Fatal("expected a scheduled retry")
	}

	if view := p.View(100, 40); !strings.Contains(view, "Error loading data. Retry attempt 1/3...") {
		t.Errorf("view missing retry message:\n%s", view)
	}
}

func TestAccuracyPage_FilterForm(t *testing.T) {
	t.Parallel()

	f := &summaryFetcher{}
	p := newAccuracyPage(f)

	p.Update(keyRunes("f"))
	if !p.Capturing() {
		t.Fatal("f did not focus the filter form")
	}

	for _, r := range "2024-01-02" {
		p.Update(keyRunes(string(r)))
	}
	p.Update(tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "2024-01-01" {
		p.Update(keyRunes(string(r)))
	}

	// A reversed range is rejected before any request.
	drive(p.Update(tea.KeyMsg{Type: tea.KeyEnter}), p.Update)
	if f.calls != 0 {
		t.Errorf("calls = %d, want no request for an invalid range", f.calls)
	}
	if view := p.View(100, 40); !strings.Contains(view, "from must not be after to") {
		t.Errorf("view missing form error:\n%s", view)
	}
	if p.Capturing() {
		t.Error("form still focused after submit")
	}

	// Clear the to field and submit again.
	p.Update(keyRunes("f"))
	p.Update(tea.KeyMsg{Type: tea.KeyTab})
	for range "2024-01-01" {
		p.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	drive(p.Update(tea.KeyMsg{Type: tea.KeyEnter}), p.Update)

	if f.calls != 1 {
		t.Fatalf("calls = %d, want 1", f.calls)
	}
	rng := f.ranges[0]
	if !rng.From.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)) || !rng.To.IsZero() {
		t.Errorf("range = %+v", rng)
	}
}

func TestAccuracyPage_EscCancelsEditing(t *testing.T) {
	t.Parallel()

	f := &summaryFetcher{}
	p := newAccuracyPage(f)

	p.Update(keyRunes("/"))
	p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Capturing() {
		t.Error("esc did not leave the form")
	}
	if f.calls != 0 {
		t.Error("esc submitted the form")
	}
}

func TestBarWidths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		percents []float64
		width    int
		want     []int
	}{
		{"even", []float64{25, 50, 25}, 40, []int{10, 20, 10}},
		{"rounding fills the bar", []float64{33.3, 33.3, 33.3}, 10, []int{4, 3, 3}},
		{"overshoot trimmed", []float64{100, 100, 0}, 2, []int{1, 1, 0}},
		{"empty total", []float64{0, 0, 0}, 20, []int{0, 0, 0}},
		{"zero width", []float64{50, 50, 0}, 0, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := barWidths(tt.percents, tt.width)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("barWidths(%v, %d) = %v, want %v", tt.percents, tt.width, got, tt.want)
					break
				}
			}
		})
	}
}
