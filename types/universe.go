package types

import (
	"sort"
	"time"
)

// Universe holds every instrument history keyed by ticker.
type Universe map[string]History

// Tickers returns the identifiers in lexicographic order. Anything whose
// outcome depends on iteration order must walk the universe through it.
func (u Universe) Tickers() []string {
	tickers := make([]string, 0, len(u))
	for t := range u {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Calendar returns the sorted distinct dates present in any history.
func (u Universe) Calendar() []time.Time {
	seen := make(map[time.Time]struct{})
	for _, h := range u {
		for _, o := range h {
			seen[o.Date] = struct{}{}
		}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Observations returns the total number of observations across tickers.
func (u Universe) Observations() int {
	n := 0
	for _, h := range u {
		n += len(h)
	}
	return n
}
