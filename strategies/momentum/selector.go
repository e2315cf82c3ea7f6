package momentum

import (
	"momentum/types"
	"sort"
)

// TopFraction selects the highest scoring fraction of the ranked candidates.
type TopFraction struct {
	fraction float64
}

func NewTopFraction(fraction float64) *TopFraction {
	return &TopFraction{fraction: fraction}
}

// Select ranks the candidates in place and returns the tickers of the first
// floor(len × fraction) entries. Fewer than 1/fraction candidates selects
// nothing.
func (s *TopFraction) Select(candidates []types.Candidate) []string {
	Rank(candidates)

	n := int(float64(len(candidates)) * s.fraction)
	if n > len(candidates) {
		n = len(candidates)
	}
	selected := make([]string, 0, n)
	for _, c := range candidates[:n] {
		selected = append(selected, c.Ticker)
	}
	return selected
}

// Rank orders candidates by score descending. Equal scores are ordered by
// ticker descending, so the ranking is a total order independent of input
// order.
func Rank(candidates []types.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Ticker > candidates[j].Ticker
	})
}
