// Package accuracy loads the server-side aggregated accuracy statistics of
// bitcoin price predictions and derives the percentages shown to the user.
package accuracy

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/Sternrassler/agent-monitor/pkg/pagination"
)

// Rightness counts predictions per verification outcome.
type Rightness struct {
	Correct    int `json:"CORRECT"`
	Incorrect  int `json:"INCORRECT"`
	NotChecked int `json:"NOT CHECKED"`
}

// Summary is the response of the accuracy endpoint.
type Summary struct {
	TotalItems              int       `json:"totalItems"`
	Tolerance               float64   `json:"tolerance"`
	DirectionRightnessStats Rightness `json:"directionRightnessStats"`
	PriceRightnessStats     Rightness `json:"priceRightnessStats"`
}

// UnmarshalJSON decodes a summary and rejects bodies without totalItems.
// Older backends report a single rightnessStats block, which is read as the
// direction stats.
func (s *Summary) UnmarshalJSON(b []byte) error {
	type plain Summary
	var raw struct {
		plain
		TotalItems     *int       `json:"totalItems"`
		RightnessStats *Rightness `json:"rightnessStats"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.TotalItems == nil {
		return fmt.Errorf("%w: totalItems", pagination.ErrMissingField)
	}
	if *raw.TotalItems < 0 {
		return fmt.Errorf("totalItems must not be negative (got %d)", *raw.TotalItems)
	}

	*s = Summary(raw.plain)
	s.TotalItems = *raw.TotalItems
	if raw.RightnessStats != nil && s.DirectionRightnessStats == (Rightness{}) {
		s.DirectionRightnessStats = *raw.RightnessStats
	}
	return nil
}

// Share is one outcome of a Rightness block with its percentage of the total.
type Share struct {
	Label   string
	Count   int
	Percent float64
}

// Shares returns the correct, incorrect and not-checked shares of total.
func (r Rightness) Shares(total int) []Share {
	return []Share{
		{Label: "Correct", Count: r.Correct, Percent: Percentage(r.Correct, total)},
		{Label: "Incorrect", Count: r.Incorrect, Percent: Percentage(r.Incorrect, total)},
		{Label: "Not Checked", Count: r.NotChecked, Percent: Percentage(r.NotChecked, total)},
	}
}

// Percentage returns count/total*100 rounded to one decimal place, or 0 when
// total is 0.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// FormatPercentage formats Percentage with exactly one decimal, e.g. "25.0".
func FormatPercentage(count, total int) string {
	return strconv.FormatFloat(Percentage(count, total), 'f', 1, 64)
}
