package engine

import (
	"time"
)

// Rebalance records one re-selection of the portfolio.
type Rebalance struct {
	Date       time.Time
	Candidates int
	Selected   []string
}

// portfolio is the equal-weight long book. It is unset until the first
// rebalance that selects at least one ticker, and every rebalance replaces
// the whole membership.
type portfolio struct {
	members    []string
	rebalances []Rebalance
}

func newPortfolio() *portfolio {
	return &portfolio{}
}

func (p *portfolio) isEmpty() bool {
	return len(p.members) == 0
}

func (p *portfolio) rebalance(date time.Time, candidates int, selected []string) {
	p.members = append([]string(nil), selected...)
	p.rebalances = append(p.rebalances, Rebalance{
		Date:       date,
		Candidates: candidates,
		Selected:   p.members,
	})
}

// dailyReturn averages the members' returns on date. Members without an
// observation that day are left out of the average rather than counted as
// zero; ok is false when none of them traded.
func (p *portfolio) dailyReturn(date time.Time, lookup func(ticker string, date time.Time) (float64, bool)) (float64, bool) {
	sum := 0.0
	found := 0
	for _, ticker := range p.members {
		r, ok := lookup(ticker, date)
		if !ok {
			continue
		}
		sum += r
		found++
	}
	if found == 0 {
		return 0, false
	}
	return sum / float64(found), true
}
