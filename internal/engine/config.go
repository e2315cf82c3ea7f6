package engine

import (
	"fmt"
	"runtime"
)

const (
	DefaultShortWindow       = 50
	DefaultLongWindow        = 200
	DefaultSelectionFraction = 0.10
	DefaultTradingDays       = 252
)

type StrategyConfig struct {
	shortWindow       int
	longWindow        int
	selectionFraction float64
	workers           int
}

func NewStrategyConfig(shortWindow, longWindow int, selectionFraction float64, workers int) (*StrategyConfig, error) {
	if shortWindow <= 0 || longWindow <= 0 {
		return nil, fmt.Errorf("windows must be positive, got short=%d long=%d", shortWindow, longWindow)
	}
	if selectionFraction <= 0 || selectionFraction > 1 {
		return nil, fmt.Errorf("selection fraction must be in (0, 1], got %v", selectionFraction)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &StrategyConfig{
		shortWindow:       shortWindow,
		longWindow:        longWindow,
		selectionFraction: selectionFraction,
		workers:           workers,
	}, nil
}

// DefaultStrategyConfig is the 50/200 day, top 10% parameter set.
func DefaultStrategyConfig() *StrategyConfig {
	cfg, _ := NewStrategyConfig(DefaultShortWindow, DefaultLongWindow, DefaultSelectionFraction, 0)
	return cfg
}

func (c *StrategyConfig) ShortWindow() int           { return c.shortWindow }
func (c *StrategyConfig) LongWindow() int            { return c.longWindow }
func (c *StrategyConfig) SelectionFraction() float64 { return c.selectionFraction }

type ReportingConfig struct {
	tradingDays       int
	showProgress      bool
	returnsCSVPath    string
	rebalancesCSVPath string
}

// NewReportingConfig builds the reporting options. Empty CSV paths disable
// the corresponding export.
func NewReportingConfig(tradingDays int, showProgress bool, returnsCSVPath, rebalancesCSVPath string) *ReportingConfig {
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}
	return &ReportingConfig{
		tradingDays:       tradingDays,
		showProgress:      showProgress,
		returnsCSVPath:    returnsCSVPath,
		rebalancesCSVPath: rebalancesCSVPath,
	}
}
