// Package datasets defines the dashboard's tabs: the resources they read,
// their row types, columns and response transforms.
package datasets

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Sternrassler/agent-monitor/pkg/pagination"
	"github.com/Sternrassler/agent-monitor/pkg/table"
)

// Tab names in display order.
const (
	TabReplies             = "replies"
	TabLogs                = "logs"
	TabBitcoinPredictions  = "bitcoin-predictions"
	TabAccuracy            = "accuracy"
	TabTwitterInteractions = "twitter-interactions"
)

// DefaultTab is shown when no valid tab was saved.
const DefaultTab = TabReplies

// Tabs lists every tab in display order.
var Tabs = []string{
	TabReplies,
	TabLogs,
	TabBitcoinPredictions,
	TabAccuracy,
	TabTwitterInteractions,
}

// Valid reports whether tab is a known tab.
func Valid(tab string) bool {
	return slices.Contains(Tabs, tab)
}

// Label returns the tab caption: first letter upper-cased and the first "-"
// replaced by a space, e.g. "Bitcoin predictions".
func Label(tab string) string {
	if tab == "" {
		return ""
	}
	return strings.ToUpper(tab[:1]) + strings.Replace(tab[1:], "-", " ", 1)
}

// Definition describes a table tab.
type Definition[R any, T table.Row] struct {
	Name      string
	Resource  string
	Columns   []table.Column[T]
	Transform table.Transform[R, T]
}

// Replies lists agent replies stored as memories.
var Replies = Definition[LogEntry, Reply]{
	Name:     TabReplies,
	Resource: "/memories",
	Columns: []table.Column[Reply]{
		{Key: "createdAt", Header: "Date", Value: func(r Reply) any { return r.CreatedAt }, Render: table.LocalTime, Width: 19},
		{Key: "action", Header: "Action", Value: func(r Reply) any { return r.Action }, Width: 10},
		{Key: "text", Header: "Text", Value: func(r Reply) any { return r.Text }, Render: table.PlainText, Width: 60},
		{Key: "source", Header: "Source", Value: func(r Reply) any { return r.Source }, Width: 12},
	},
	Transform: ParseReplies,
}

// Logs lists the tarot plugin log.
var Logs = Definition[LogEntry, LogEntry]{
	Name:     TabLogs,
	Resource: "/plugin-tarot-logs",
	Columns: []table.Column[LogEntry]{
		{Key: "createdAt", Header: "Date", Value: func(e LogEntry) any { return e.CreatedAt }, Render: table.LocalTime, Width: 19},
		{Key: "content", Header: "Content", Value: func(e LogEntry) any { return e.Content }, Width: 90},
	},
	Transform: table.Identity[LogEntry],
}

// BitcoinPredictions lists price predictions.
var BitcoinPredictions = Definition[BitcoinPrediction, BitcoinPrediction]{
	Name:     TabBitcoinPredictions,
	Resource: "/bitcoin-predictions-with-allora",
	Columns: []table.Column[BitcoinPrediction]{
		{Key: "createdAt", Header: "Date", Value: func(p BitcoinPrediction) any { return p.CreatedAt }, Render: table.LocalTime, Width: 19},
		{Key: "bitcoinCurrentPrice", Header: "Current Price", Value: func(p BitcoinPrediction) any { return p.BitcoinCurrentPrice }, Render: table.USD, Width: 14},
		{Key: "bitcoinPredictedPrice", Header: "Predicted Price", Value: func(p BitcoinPrediction) any { return p.BitcoinPredictedPrice }, Render: table.USD, Width: 15},
		{Key: "direction", Header: "Direction", Value: func(p BitcoinPrediction) any { return p.Direction }, Width: 9},
		{Key: "directionRightness", Header: "Direction Rightness", Value: func(p BitcoinPrediction) any { return p.DirectionRightness }, Width: 19},
		{Key: "priceRightness", Header: "Price Rightness", Value: func(p BitcoinPrediction) any { return p.PriceRightness }, Width: 15},
	},
	Transform: table.Identity[BitcoinPrediction],
}

// TwitterInteractions lists processed tweets. Dates are shown as sent.
var TwitterInteractions = Definition[TwitterInteraction, TwitterInteraction]{
	Name:     TabTwitterInteractions,
	Resource: "/twitter-interactions-logs",
	Columns: []table.Column[TwitterInteraction]{
		{Key: "createdAt", Header: "Date", Value: func(t TwitterInteraction) any { return t.CreatedAt }, Width: 24},
		{Key: "username", Header: "Username", Value: func(t TwitterInteraction) any { return t.Username }, Width: 16},
		{Key: "tweet", Header: "Tweet", Value: func(t TwitterInteraction) any { return t.Tweet }, Render: table.PlainText, Width: 40},
		{Key: "action", Header: "Action", Value: func(t TwitterInteraction) any { return t.Action }, Width: 10},
		{Key: "response", Header: "Response", Value: func(t TwitterInteraction) any { return t.Response }, Render: table.PlainText, Width: 40},
	},
	Transform: table.Identity[TwitterInteraction],
}

// replyContent is the JSON document stored in a memory's content.
type replyContent struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Action string `json:"action"`
}

// ParseReplies decodes the content of each memory into a Reply. The id and
// createdAt of the entry win over fields of the same name in the content.
func ParseReplies(e pagination.Envelope[LogEntry]) (pagination.Envelope[Reply], error) {
	return pagination.Map(e, func(entry LogEntry) (Reply, error) {
		var c replyContent
		if err := json.Unmarshal([]byte(entry.Content), &c); err != nil {
			return Reply{}, fmt.Errorf("parse content of %s: %w", entry.ID, err)
		}
		return Reply{
			ID:        entry.ID,
			CreatedAt: entry.CreatedAt,
			Action:    c.Action,
			Text:      c.Text,
			Source:    c.Source,
		}, nil
	})
}
