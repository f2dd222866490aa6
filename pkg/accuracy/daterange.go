package accuracy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// QueryLayout is the UTC timestamp format of the from/to query parameters.
const QueryLayout = "2006-01-02 15:04:05"

// ErrInvalidRange is returned when From is after To.
var ErrInvalidRange = errors.New("from must not be after to")

// inputLayouts are accepted by ParseLocal, most specific first.
var inputLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DateRange filters the accuracy statistics. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Query returns the from/to parameters, converted to UTC. Open bounds are omitted.
func (r DateRange) Query() url.Values {
	q := url.Values{}
	if !r.From.IsZero() {
		q.Set("from", r.From.UTC().Format(QueryLayout))
	}
	if !r.To.IsZero() {
		q.Set("to", r.To.UTC().Format(QueryLayout))
	}
	return q
}

// Validate checks that a closed range is ordered.
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("%w (from=%s, to=%s)", ErrInvalidRange,
			r.From.Format(QueryLayout), r.To.Format(QueryLayout))
	}
	return nil
}

// String renders the range for status lines.
func (r DateRange) String() string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.Format("2006-01-02 15:04")
	}
	return bound(r.From) + " .. " + bound(r.To)
}

// ParseLocal parses a user supplied timestamp in the local time zone.
// An empty string yields the zero time.
func ParseLocal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM)", s)
}

// ParseRange parses both bounds with ParseLocal and validates the result.
func ParseRange(from, to string) (DateRange, error) {
	var (
		r   DateRange
		err error
	)
	if r.From, err = ParseLocal(from); err != nil {
		return DateRange{}, fmt.Errorf("from: %w", err)
	}
	if r.To, err = ParseLocal(to); err != nil {
		return DateRange{}, fmt.Errorf("to: %w", err)
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}
