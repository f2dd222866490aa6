package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultLimit is the page size used by the dashboard tables.
const DefaultLimit = 5

var (
	// ErrInvalidPage is returned for a page or limit below 1.
	ErrInvalidPage = errors.New("page and limit must be positive")

	// ErrMissingField is returned when an envelope lacks data or pagination.
	ErrMissingField = errors.New("missing field")
)

// Pagination is the pagination block of a page envelope.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage,omitempty"`
	TotalItems   int `json:"totalItems,omitempty"`
	TotalPages   int `json:"totalPages"`
}

// HasMore reports whether pages follow the given page.
func (p Pagination) HasMore(page int) bool {
	return page < p.TotalPages
}

// Envelope is one page of a list endpoint.
type Envelope[R any] struct {
	Data       []R        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// rawEnvelope keeps the fields undecoded so their presence can be checked.
type rawEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
}

// UnmarshalJSON decodes an envelope, rejecting bodies without data or
// pagination and page counts below zero.
func (e *Envelope[R]) UnmarshalJSON(b []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if isAbsent(raw.Data) {
		return fmt.Errorf("%w: data", ErrMissingField)
	}
	if isAbsent(raw.Pagination) {
		return fmt.Errorf("%w: pagination", ErrMissingField)
	}

	var data []R
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return fmt.Errorf("data: %w", err)
	}

	var p Pagination
	if err := json.Unmarshal(raw.Pagination, &p); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if p.TotalPages < 0 {
		return fmt.Errorf("pagination: totalPages must not be negative (got %d)", p.TotalPages)
	}

	e.Data = data
	e.Pagination = p
	return nil
}

func isAbsent(m json.RawMessage) bool {
	return len(m) == 0 || string(m) == "null"
}

// Map converts the rows of an envelope, keeping its pagination.
// The first error aborts the conversion.
func Map[R, T any](e Envelope[R], fn func(R) (T, error)) (Envelope[T], error) {
	out := Envelope[T]{
		Data:       make([]T, 0, len(e.Data)),
		Pagination: e.Pagination,
	}
	for i, r := range e.Data {
		t, err := fn(r)
		if err != nil {
			return Envelope[T]{}, fmt.Errorf("row %d: %w", i, err)
		}
		out.Data = append(out.Data, t)
	}
	return out, nil
}
