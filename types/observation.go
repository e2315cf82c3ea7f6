package types

import (
	"time"
)

// DateFormat is the calendar-date layout used for observation dates.
const DateFormat = "2006-01-02"

// Observation is one instrument on one trading day. The derived fields are
// filled in by the indicator pass; zero means "not defined yet".
type Observation struct {
	Date        time.Time `json:"date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      int64     `json:"volume"`
	Dividends   float64   `json:"dividends"`
	StockSplits float64   `json:"stockSplits"`

	DailyReturn   float64 `json:"dailyReturn"`
	SMAShort      float64 `json:"smaShort"`
	SMALong       float64 `json:"smaLong"`
	MomentumScore float64 `json:"momentumScore"`
}

// History is the chronologically ordered series of one instrument.
type History []Observation

// DateIndex maps each observation date to its position in the history. A
// repeated date maps to its first position.
func (h History) DateIndex() map[time.Time]int {
	idx := make(map[time.Time]int, len(h))
	for i, o := range h {
		if _, ok := idx[o.Date]; !ok {
			idx[o.Date] = i
		}
	}
	return idx
}

// ParseDate parses a YYYY-MM-DD date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}
