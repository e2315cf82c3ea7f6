package engine

import (
	"context"
	"fmt"
	"math"
	"momentum/strategies/momentum"
	"momentum/types"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const floatTolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func date(s string) time.Time {
	d, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// consecutiveDays returns n calendar days starting at start.
func consecutiveDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

func historyFromCloses(days []time.Time, closes []float64) types.History {
	h := make(types.History, len(closes))
	for i, c := range closes {
		h[i] = types.Observation{Date: days[i], Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return h
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

// linearCloses returns 100 + slope*i. Integer prices keep every running
// sum exact, so flat stretches give a momentum of exactly zero.
func linearCloses(n, slope int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(100 + slope*i)
	}
	return closes
}

// trendingUniverse builds count tickers T00..; ticker k rises by k+1 per
// day, so a higher index always has the higher momentum.
func trendingUniverse(days []time.Time, count int) types.Universe {
	u := make(types.Universe, count)
	for k := 0; k < count; k++ {
		u[tickerName(k)] = historyFromCloses(days, linearCloses(len(days), k+1))
	}
	return u
}

func tickerName(k int) string {
	return fmt.Sprintf("T%02d", k)
}

func smallConfig(t *testing.T) *StrategyConfig {
	t.Helper()
	cfg, err := NewStrategyConfig(2, 4, 0.10, 2)
	if err != nil {
		t.Fatalf("NewStrategyConfig() error = %v", err)
	}
	return cfg
}

func mockEngine(db dataStore, cfg *StrategyConfig, reporting *ReportingConfig) *Engine {
	if reporting == nil {
		reporting = NewReportingConfig(DefaultTradingDays, false, "", "")
	}
	return NewEngine(db, momentum.NewTopFraction(cfg.SelectionFraction()), cfg, reporting, zerolog.Nop())
}

func runBacktest(t *testing.T, universe types.Universe, cfg *StrategyConfig) *Result {
	t.Helper()
	result, err := mockEngine(nil, cfg, nil).Backtest(context.Background(), universe)
	if err != nil {
		t.Fatalf("Backtest() error = %v", err)
	}
	return result
}

type mockDataStore struct {
	universe types.Universe
	err      error
}

func (m mockDataStore) LoadUniverse(_ context.Context) (types.Universe, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.universe, nil
}
