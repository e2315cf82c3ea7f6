package engine

import (
	"context"
	"momentum/types"

	"golang.org/x/sync/errgroup"
)

// computeIndicators enriches the universe in place. Each worker owns whole
// histories, so no two goroutines ever touch the same slice.
func computeIndicators(ctx context.Context, universe types.Universe, cfg *StrategyConfig) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for _, ticker := range universe.Tickers() {
		history := universe[ticker]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			enrichHistory(history, cfg.shortWindow, cfg.longWindow)
			return nil
		})
	}
	return g.Wait()
}

// enrichHistory fills daily return, both SMAs and the momentum score.
// An SMA at index i covers closes (i-window, i] and is only set once
// i >= window; earlier values stay 0.
func enrichHistory(history types.History, shortWindow, longWindow int) {
	if len(history) == 0 {
		return
	}

	var shortSum, longSum float64
	for i := range history {
		cur := &history[i]
		if i > 0 && history[i-1].Close > 0 {
			cur.DailyReturn = cur.Close/history[i-1].Close - 1.0
		}

		shortSum += cur.Close
		longSum += cur.Close
		if i >= shortWindow {
			shortSum -= history[i-shortWindow].Close
			cur.SMAShort = shortSum / float64(shortWindow)
		}
		if i >= longWindow {
			longSum -= history[i-longWindow].Close
			cur.SMALong = longSum / float64(longWindow)
		}

		if i >= longWindow && cur.SMALong > 0 {
			cur.MomentumScore = cur.SMAShort/cur.SMALong - 1.0
		}
	}
}
