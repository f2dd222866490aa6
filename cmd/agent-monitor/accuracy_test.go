package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/agent-monitor/internal/testutil"
	"github.com/Sternrassler/agent-monitor/pkg/accuracy"
)

const summaryBody = `{
	"totalItems": 12,
	"tolerance": 0.5,
	"directionRightnessStats": {"CORRECT": 6, "INCORRECT": 3, "NOT CHECKED": 3},
	"priceRightnessStats": {"CORRECT": 3, "INCORRECT": 9, "NOT CHECKED": 0}
}`

func newTestLoader(t *testing.T, mock *testutil.MockAPI) *accuracy.Loader {
	t.Helper()
	return accuracy.NewLoader(accuracy.NewClient(newTestAPI(t, mock)), accuracy.Config{Unit: time.Millisecond, Timeout: time.Second})
}

func TestReportAccuracy_Table(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetSequence(accuracy.Resource,
		testutil.NewServerErrorResponse(),
		testutil.NewJSONResponse(summaryBody),
	)

	var out, status bytes.Buffer
	err := reportAccuracy(context.Background(), &out, &status, newTestLoader(t, mock), accuracy.DateRange{}, formatTable)
	if err != nil {
		t.Fatalf("reportAccuracy() failed: %v", err)
	}

	if !strings.Contains(status.String(), "Error loading data. Retry attempt 1/3...") {
		t.Errorf("status = %q, want retry notice", status.String())
	}
	for _, want := range []string{"Total Predictions: 12", "Direction Accuracy", "Price Accuracy", "50.0%", "75.0%", "Not Checked"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestReportAccuracy_JSON(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(accuracy.Resource, testutil.NewJSONResponse(summaryBody))

	var out bytes.Buffer
	err := reportAccuracy(context.Background(), &out, &bytes.Buffer{}, newTestLoader(t, mock), accuracy.DateRange{}, formatJSON)
	if err != nil {
		t.Fatalf("reportAccuracy() failed: %v", err)
	}

	var got accuracy.Summary
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not a summary: %v\n%s", err, out.String())
	}
	if got.TotalItems != 12 || got.PriceRightnessStats.Incorrect != 9 {
		t.Errorf("summary = %+v", got)
	}
}

func TestReportAccuracy_Exhausted(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(accuracy.Resource, testutil.NewServerErrorResponse())

	var status bytes.Buffer
	err := reportAccuracy(context.Background(), &bytes.Buffer{}, &status, newTestLoader(t, mock), accuracy.DateRange{}, formatTable)
	if err == nil || !strings.Contains(err.Error(), accuracy.FailedMessage) {
		t.Fatalf("reportAccuracy() error = %v, want %q", err, accuracy.FailedMessage)
	}
	if mock.GetRequestCount() != accuracy.MaxAttempts {
		t.Errorf("requests = %d, want %d", mock.GetRequestCount(), accuracy.MaxAttempts)
	}
	if strings.Count(status.String(), "Retry attempt") != accuracy.MaxAttempts-1 {
		t.Errorf("status = %q, want %d retry notices", status.String(), accuracy.MaxAttempts-1)
	}
}
