package datasets

// LogEntry is a raw record of the memories and plugin log endpoints.
type LogEntry struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Content   string `json:"content"`
}

// RowID implements table.Row.
func (e LogEntry) RowID() string { return e.ID }

// Reply is an agent reply decoded from the content of a memory entry.
type Reply struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Action    string `json:"action"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

// RowID implements table.Row.
func (r Reply) RowID() string { return r.ID }

// BitcoinPrediction is a price prediction and its verification outcome.
// A null price decodes as 0 and renders as N/A.
type BitcoinPrediction struct {
	ID                    string  `json:"id"`
	CreatedAt             string  `json:"createdAt"`
	BitcoinCurrentPrice   float64 `json:"bitcoinCurrentPrice"`
	BitcoinPredictedPrice float64 `json:"bitcoinPredictedPrice"`
	Direction             string  `json:"direction"`
	DirectionRightness    string  `json:"directionRightness"`
	PriceRightness        string  `json:"priceRightness"`
}

// RowID implements table.Row.
func (p BitcoinPrediction) RowID() string { return p.ID }

// TwitterInteraction is one processed tweet and the agent's response.
type TwitterInteraction struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Username  string `json:"username"`
	Tweet     string `json:"tweet"`
	Action    string `json:"action"`
	Response  string `json:"response"`
}

// RowID implements table.Row.
func (t TwitterInteraction) RowID() string { return t.ID }
