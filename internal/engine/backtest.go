package engine

import (
	"momentum/types"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

type selector interface {
	Select(candidates []types.Candidate) []string
}

// Result is the simulator output: the daily strategy return series, the day
// each entry accrued on, and every rebalance performed.
type Result struct {
	Dates      []time.Time
	Returns    []float64
	Rebalances []Rebalance
}

type backtester struct {
	universe       types.Universe
	tickers        []string
	dateIndex      map[string]map[time.Time]int
	calendar       []time.Time
	strategyConfig *StrategyConfig
	selector       selector
	portfolio      *portfolio
	showProgress   bool
	logger         zerolog.Logger
}

func newBacktester(universe types.Universe, strategyConfig *StrategyConfig, sel selector, showProgress bool, logger zerolog.Logger) *backtester {
	tickers := universe.Tickers()
	dateIndex := make(map[string]map[time.Time]int, len(tickers))
	for _, ticker := range tickers {
		dateIndex[ticker] = universe[ticker].DateIndex()
	}

	return &backtester{
		universe:       universe,
		tickers:        tickers,
		dateIndex:      dateIndex,
		calendar:       universe.Calendar(),
		strategyConfig: strategyConfig,
		selector:       sel,
		portfolio:      newPortfolio(),
		showProgress:   showProgress,
		logger:         logger,
	}
}

func (b *backtester) run() *Result {
	result := &Result{}
	start := b.strategyConfig.longWindow
	if start >= len(b.calendar) {
		b.logger.Warn().
			Int("trading_days", len(b.calendar)).
			Int("long_window", start).
			Msg("calendar shorter than the long window, nothing to simulate")
		return result
	}

	bar := initProgressBar(len(b.calendar)-start, b.showProgress)
	for i := start; i < len(b.calendar); i++ {
		today := b.calendar[i]

		if isRebalanceDay(b.calendar, i) {
			candidates := b.candidates(today)
			count := len(candidates)
			selected := b.selector.Select(candidates)
			b.portfolio.rebalance(today, count, selected)
			b.logger.Debug().
				Str("date", today.Format(types.DateFormat)).
				Int("candidates", count).
				Strs("selected", selected).
				Msg("rebalance")
		}

		if !b.portfolio.isEmpty() {
			if r, ok := b.portfolio.dailyReturn(today, b.dailyReturnOf); ok {
				result.Dates = append(result.Dates, today)
				result.Returns = append(result.Returns, r)
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	result.Rebalances = b.portfolio.rebalances
	return result
}

// candidates collects every ticker trading on date with a defined momentum
// score, in ticker order.
func (b *backtester) candidates(date time.Time) []types.Candidate {
	var out []types.Candidate
	for _, ticker := range b.tickers {
		obs, ok := b.observation(ticker, date)
		if !ok || obs.MomentumScore == 0 {
			continue
		}
		out = append(out, types.Candidate{Ticker: ticker, Score: obs.MomentumScore})
	}
	return out
}

func (b *backtester) observation(ticker string, date time.Time) (*types.Observation, bool) {
	i, ok := b.dateIndex[ticker][date]
	if !ok {
		return nil, false
	}
	return &b.universe[ticker][i], true
}

func (b *backtester) dailyReturnOf(ticker string, date time.Time) (float64, bool) {
	obs, ok := b.observation(ticker, date)
	if !ok {
		return 0, false
	}
	return obs.DailyReturn, true
}

func initProgressBar(maxTicks int, enabled bool) *progressbar.ProgressBar {
	if !enabled {
		return progressbar.DefaultSilent(int64(maxTicks))
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
