package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"momentum/types"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrNoTrades = errors.New("no trades were made")

type Report struct {
	// Meta / period info
	StartDate   time.Time
	EndDate     time.Time
	TradingDays int
	Rebalances  int

	// Absolute performance
	CumulativeReturn float64
	MeanDailyReturn  float64
	AnnualizedReturn float64

	// Risk
	DailyVolatility      float64
	AnnualizedVolatility float64
	MaxDrawdown          float64

	// Risk-adjusted metrics (risk-free rate of zero)
	SharpeRatio float64
}

// CalculateStats turns a daily return series into the summary statistics,
// annualized over tradingDays. An empty series yields ErrNoTrades.
func CalculateStats(returns []float64, tradingDays int) (*Report, error) {
	if len(returns) == 0 {
		return nil, ErrNoTrades
	}
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}

	report := &Report{TradingDays: len(returns)}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		report.CumulativeReturn = calcCumulativeReturn(returns, &wg)
	}()
	go func() {
		report.MeanDailyReturn, report.DailyVolatility = calcMoments(returns, &wg)
	}()
	go func() {
		report.MaxDrawdown = calcMaxDrawdown(returns, &wg)
	}()
	wg.Wait()

	report.AnnualizedReturn = math.Pow(1.0+report.MeanDailyReturn, float64(tradingDays)) - 1.0
	report.AnnualizedVolatility = report.DailyVolatility * math.Sqrt(float64(tradingDays))
	if report.AnnualizedVolatility > 0 {
		report.SharpeRatio = report.AnnualizedReturn / report.AnnualizedVolatility
	}
	return report, nil
}

func (e *Engine) generateReport(result *Result) (*Report, error) {
	report, err := CalculateStats(result.Returns, e.reportingConfig.tradingDays)
	if err != nil {
		return nil, err
	}
	report.StartDate = result.Dates[0]
	report.EndDate = result.Dates[len(result.Dates)-1]
	report.Rebalances = len(result.Rebalances)
	return report, nil
}

func calcCumulativeReturn(returns []float64, wg *sync.WaitGroup) float64 {
	defer wg.Done()

	total := 1.0
	for _, r := range returns {
		total *= 1.0 + r
	}
	return total - 1.0
}

// calcMoments returns the mean and the population standard deviation,
// sqrt(E[r²] - E[r]²).
func calcMoments(returns []float64, wg *sync.WaitGroup) (float64, float64) {
	defer wg.Done()

	mean := stat.Mean(returns, nil)
	secondMoment := floats.Dot(returns, returns) / float64(len(returns))
	variance := secondMoment - mean*mean
	// Cancellation can leave a tiny negative variance for flat series.
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// calcMaxDrawdown walks the compounded equity curve once, starting from a
// peak of 1.0, and returns the deepest (peak - equity) / peak seen.
func calcMaxDrawdown(returns []float64, wg *sync.WaitGroup) float64 {
	defer wg.Done()

	peak := 1.0
	equity := 1.0
	maxDD := 0.0
	for _, r := range returns {
		equity *= 1.0 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func printNoTrades(w io.Writer) {
	fmt.Fprintln(w, "No trades were made. Cannot calculate performance.")
}

func printReport(w io.Writer, report *Report) {
	fmt.Fprintln(w, "===== Backtest Performance Results =====")
	fmt.Fprintf(w, "Period:                  %s to %s\n", report.StartDate.Format(types.DateFormat), report.EndDate.Format(types.DateFormat))
	fmt.Fprintf(w, "Total Trading Days:      %d\n", report.TradingDays)
	fmt.Fprintf(w, "Rebalances:              %d\n", report.Rebalances)

	fmt.Fprintln(w, "\n-- Returns --")
	fmt.Fprintf(w, "Cumulative Return:       %s\n", percent(report.CumulativeReturn))
	fmt.Fprintf(w, "Mean Daily Return:       %s\n", percent(report.MeanDailyReturn))
	fmt.Fprintf(w, "Annualized Return:       %s\n", percent(report.AnnualizedReturn))

	fmt.Fprintln(w, "\n-- Risk --")
	fmt.Fprintf(w, "Daily Volatility:        %s\n", percent(report.DailyVolatility))
	fmt.Fprintf(w, "Annualized Volatility:   %s\n", percent(report.AnnualizedVolatility))
	fmt.Fprintf(w, "Maximum Drawdown:        %s\n", percent(report.MaxDrawdown))

	fmt.Fprintln(w, "\n-- Risk-Adjusted --")
	fmt.Fprintf(w, "Sharpe Ratio:            %s\n", fixed(report.SharpeRatio))
	fmt.Fprintln(w, "========================================")
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(4) + "%"
}

func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	return decimal.NewFromFloat(v).StringFixed(4)
}
