package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 503, Status: "503 Service Unavailable", Class: ErrorClassServer}
	if got, want := err.Error(), "HTTP error! status: 503"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &NetworkError{Endpoint: "/memories", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find wrapped error")
	}
	if got, want := err.Error(), "network error (/memories): connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Timeout() {
		t.Error("Timeout() = true for a refused connection")
	}
}

func TestDecodeError_Unwrap(t *testing.T) {
	inner := errors.New("missing field")
	err := &DecodeError{Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find wrapped error")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{name: "nil", err: nil, want: ""},
		{name: "http client", err: &HTTPError{StatusCode: 404, Class: ErrorClassClient}, want: ErrorClassClient},
		{name: "http server", err: &HTTPError{StatusCode: 500, Class: ErrorClassServer}, want: ErrorClassServer},
		{name: "network", err: &NetworkError{Err: errors.New("eof")}, want: ErrorClassNetwork},
		{name: "decode", err: &DecodeError{Err: errors.New("bad")}, want: ErrorClassDecode},
		{name: "wrapped decode", err: fmt.Errorf("page 2: %w", &DecodeError{Err: errors.New("bad")}), want: ErrorClassDecode},
		{name: "plain", err: errors.New("plain"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "http", err: &HTTPError{StatusCode: 500}, want: "HTTP error! status: 500"},
		{name: "decode", err: &DecodeError{Err: errors.New("missing pagination")}, want: "Unexpected response from server: missing pagination"},
		{name: "network", err: &NetworkError{Err: errors.New("connection refused")}, want: "Network error: connection refused"},
		{name: "network timeout", err: &NetworkError{Err: context.DeadlineExceeded}, want: "Request timed out"},
		{name: "deadline", err: context.DeadlineExceeded, want: "Request timed out"},
		{name: "cancelled", err: context.Canceled, want: "Request cancelled"},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
