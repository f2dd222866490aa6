package client

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx and other non-2xx, non-5xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents requests that could not be sent or completed.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents response bodies that are not the expected JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// NetworkError is returned when a request could not be sent or completed,
// including timeouts and connection resets.
type NetworkError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error (%s): %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because a deadline passed.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// HTTPError is returned for a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Class      ErrorClass
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// DecodeError is returned when a response body is not valid JSON or does not
// have the expected shape.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Classify returns the error class of err, or "" when err is not one of the
// client's error types.
func Classify(err error) ErrorClass {
	var httpErr *HTTPError
	var netErr *NetworkError
	var decErr *DecodeError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &httpErr):
		return httpErr.Class
	case errors.As(err, &decErr):
		return ErrorClassDecode
	case errors.As(err, &netErr):
		return ErrorClassNetwork
	default:
		return ""
	}
}

// Message returns the human readable text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *HTTPError
	var netErr *NetworkError
	var decErr *DecodeError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &decErr):
		return "Unexpected response from server: " + decErr.Err.Error()
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "Request timed out"
		}
		return "Network error: " + netErr.Err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	default:
		return err.Error()
	}
}
