package types

// Candidate is an instrument eligible for selection at a rebalance, scored
// by its momentum on that day.
type Candidate struct {
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
}
