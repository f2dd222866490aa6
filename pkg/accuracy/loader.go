package accuracy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/agent-monitor/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for accuracy retries.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmon_accuracy_retries_total",
		Help: "Total accuracy fetch retries by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentmon_accuracy_retry_exhausted_total",
		Help: "Total accuracy loads that failed after all attempts",
	})
)

const (
	// MaxAttempts is the number of fetches per submission, the first one included.
	MaxAttempts = 3

	// DefaultUnit is the retry delay unit: attempt n waits n units.
	DefaultUnit = time.Second

	// DefaultTimeout bounds each attempt.
	DefaultTimeout = 15 * time.Second

	// FailedMessage is the terminal error shown after the last attempt.
	FailedMessage = "Failed to fetch accuracy data"
)

var (
	// ErrRetryExhausted is returned by Run when every attempt failed.
	ErrRetryExhausted = errors.New("accuracy retry attempts exhausted")

	// ErrSuperseded is returned by Run when another submission started meanwhile.
	ErrSuperseded = errors.New("accuracy load superseded")
)

// Status is the state of a Loader.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusRetrying
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusRetrying:
		return "retrying"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Config holds the loader configuration.
type Config struct {
	// MaxAttempts per submission (0 = MaxAttempts).
	MaxAttempts int

	// Unit is the linear retry delay unit (0 = DefaultUnit).
	Unit time.Duration

	// Timeout per attempt (0 = DefaultTimeout).
	Timeout time.Duration
}

// State is a snapshot of a Loader.
type State struct {
	Status     Status
	Range      DateRange
	Summary    Summary
	HasSummary bool
	// Attempt is the number of the current or last attempt; 0 after success.
	Attempt    int
	Err        string
	Generation uint64
}

// Attempt identifies one fetch of a submission.
type Attempt struct {
	Generation uint64
	Number     int
	Range      DateRange
}

// Outcome is the result of executing an Attempt.
type Outcome struct {
	Attempt Attempt
	Summary Summary
	Err     error
}

// Transition describes what follows a resolved outcome. When Retry is set the
// caller waits Delay and then calls Retry with Next.
type Transition struct {
	State State
	Retry bool
	Delay time.Duration
	Next  Attempt
}

// Loader is the accuracy retry state machine:
// Loading -> Success | Retrying -> Loading ... | Failed.
//
// Start begins a submission, Execute performs an attempt off the event loop
// and Resolve folds its outcome back in. Outcomes of a superseded submission
// are discarded.
type Loader struct {
	mu      sync.Mutex
	fetcher Fetcher
	cfg     Config
	state   State
	logger  zerolog.Logger
}

// NewLoader creates an idle loader.
func NewLoader(f Fetcher, cfg Config) *Loader {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = MaxAttempts
	}
	if cfg.Unit <= 0 {
		cfg.Unit = DefaultUnit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Loader{
		fetcher: f,
		cfg:     cfg,
		logger:  log.With().Str("component", "accuracy").Logger(),
	}
}

// Start begins a new submission for rng and returns its first attempt.
// The last successful summary is kept until the new one arrives.
func (l *Loader) Start(rng DateRange) Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Generation++
	l.state.Status = StatusLoading
	l.state.Range = rng
	l.state.Attempt = 1
	l.state.Err = ""

	l.logger.Debug().
		Uint64("generation", l.state.Generation).
		Str("range", rng.String()).
		Msg("Accuracy load started")

	return Attempt{Generation: l.state.Generation, Number: 1, Range: rng}
}

// Execute fetches the summary for an attempt. It does not touch the loader
// state and may run on any goroutine.
func (l *Loader) Execute(ctx context.Context, a Attempt) Outcome {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	s, err := l.fetcher.Fetch(ctx, a.Range)
	return Outcome{Attempt: a, Summary: s, Err: err}
}

// Resolve applies an outcome. It returns false for outcomes of a superseded
// submission or of an attempt that is not awaited.
func (l *Loader) Resolve(o Outcome) (Transition, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := o.Attempt
	if a.Generation != l.state.Generation || l.state.Status != StatusLoading || a.Number != l.state.Attempt {
		l.logger.Debug().
			Uint64("generation", a.Generation).
			Uint64("current_generation", l.state.Generation).
			Int("attempt", a.Number).
			Msg("Discarding stale accuracy result")
		return Transition{}, false
	}

	if o.Err == nil {
		if a.Number > 1 {
			l.logger.Info().Int("attempt", a.Number).Msg("Accuracy load succeeded after retry")
		}
		l.state.Status = StatusSuccess
		l.state.Summary = o.Summary
		l.state.HasSummary = true
		l.state.Attempt = 0
		l.state.Err = ""
		return Transition{State: l.state}, true
	}

	class := client.Classify(o.Err)

	if a.Number >= l.cfg.MaxAttempts {
		retryExhaustedTotal.Inc()
		l.logger.Warn().
			Err(o.Err).
			Str("error_class", string(class)).
			Int("max_attempts", l.cfg.MaxAttempts).
			Msg("Accuracy retry attempts exhausted")

		l.state.Status = StatusFailed
		l.state.Err = FailedMessage
		return Transition{State: l.state}, true
	}

	delay := time.Duration(a.Number) * l.cfg.Unit
	retriesTotal.WithLabelValues(string(class)).Inc()
	l.logger.Debug().
		Err(o.Err).
		Str("error_class", string(class)).
		Int("attempt", a.Number).
		Dur("backoff", delay).
		Msg("Retrying accuracy load after backoff")

	l.state.Status = StatusRetrying
	l.state.Err = fmt.Sprintf("Error loading data. Retry attempt %d/%d...", a.Number, l.cfg.MaxAttempts)

	return Transition{
		State: l.state,
		Retry: true,
		Delay: delay,
		Next:  Attempt{Generation: a.Generation, Number: a.Number + 1, Range: a.Range},
	}, true
}

// Retry moves a retrying loader back to Loading for the next attempt. It
// returns false when the attempt belongs to a superseded submission.
func (l *Loader) Retry(next Attempt) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if next.Generation != l.state.Generation || l.state.Status != StatusRetrying || next.Number != l.state.Attempt+1 {
		return false
	}
	l.state.Status = StatusLoading
	l.state.Attempt = next.Number
	return true
}

// Run drives a whole submission synchronously, sleeping between attempts.
// observe, if set, receives every state change.
func (l *Loader) Run(ctx context.Context, rng DateRange, observe func(State)) (Summary, error) {
	notify := func() {
		if observe != nil {
			observe(l.State())
		}
	}

	a := l.Start(rng)
	notify()

	for {
		o := l.Execute(ctx, a)
		tr, ok := l.Resolve(o)
		if !ok {
			return Summary{}, ErrSuperseded
		}
		notify()

		switch tr.State.Status {
		case StatusSuccess:
			return tr.State.Summary, nil
		case StatusFailed:
			return Summary{}, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, a.Number, o.Err)
		}

		select {
		case <-ctx.Done():
			l.logger.Warn().Int("attempt", a.Number).Msg("Context cancelled during accuracy retry backoff")
			return Summary{}, ctx.Err()
		case <-time.After(tr.Delay):
		}

		if !l.Retry(tr.Next) {
			return Summary{}, ErrSuperseded
		}
		a = tr.Next
		notify()
	}
}

// State returns a snapshot of the loader state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
