package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"momentum/types"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var ErrEmptyUniverse = errors.New("no instrument data loaded")

type dataStore interface {
	LoadUniverse(ctx context.Context) (types.Universe, error)
}

// Engine runs the full pipeline: load, indicators, simulation, report.
type Engine struct {
	db              dataStore
	selector        selector
	strategyConfig  *StrategyConfig
	reportingConfig *ReportingConfig
	out             io.Writer
	logger          zerolog.Logger
}

func NewEngine(db dataStore, sel selector, strategyConfig *StrategyConfig, reportingConfig *ReportingConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		db:              db,
		selector:        sel,
		strategyConfig:  strategyConfig,
		reportingConfig: reportingConfig,
		out:             os.Stdout,
		logger:          logger,
	}
}

// SetOutput redirects the printed report.
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

// Run executes the pipeline and prints the report. ErrEmptyUniverse means
// nothing was simulated. ErrNoTrades means the simulation ran but never held
// a priced position; the "no trades" outcome has already been printed.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	universe, err := e.loadData(ctx)
	if err != nil {
		return nil, err
	}

	result, err := e.Backtest(ctx, universe)
	if err != nil {
		return nil, err
	}

	if err := e.exportResult(result); err != nil {
		return nil, err
	}

	report, err := e.generateReport(result)
	if errors.Is(err, ErrNoTrades) {
		e.logger.Warn().Msg("strategy never held a priced position")
		printNoTrades(e.out)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	printReport(e.out, report)
	return report, nil
}

// Backtest enriches the universe in place and simulates the strategy on it.
func (e *Engine) Backtest(ctx context.Context, universe types.Universe) (*Result, error) {
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}

	started := time.Now()
	if err := computeIndicators(ctx, universe, e.strategyConfig); err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	e.logger.Info().
		Int("tickers", len(universe)).
		Dur("elapsed", time.Since(started)).
		Msg("indicators calculated")

	bt := newBacktester(universe, e.strategyConfig, e.selector, e.reportingConfig.showProgress, e.logger)
	result := bt.run()
	e.logger.Info().
		Int("trading_days", len(bt.calendar)).
		Int("return_days", len(result.Returns)).
		Int("rebalances", len(result.Rebalances)).
		Msg("backtest finished")
	return result, nil
}

func (e *Engine) loadData(ctx context.Context) (types.Universe, error) {
	universe, err := e.db.LoadUniverse(ctx)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	e.logger.Info().
		Int("tickers", len(universe)).
		Int("observations", universe.Observations()).
		Msg("data loaded")
	return universe, nil
}

func (e *Engine) exportResult(result *Result) error {
	if path := e.reportingConfig.returnsCSVPath; path != "" {
		if err := writeCSVFile(path, func(w io.Writer) error { return writeReturnsCSV(w, result) }); err != nil {
			return fmt.Errorf("export returns: %w", err)
		}
		e.logger.Info().Str("path", path).Msg("daily returns written")
	}
	if path := e.reportingConfig.rebalancesCSVPath; path != "" {
		if err := writeCSVFile(path, func(w io.Writer) error { return writeRebalancesCSV(w, result) }); err != nil {
			return fmt.Errorf("export rebalances: %w", err)
		}
		e.logger.Info().Str("path", path).Msg("rebalances written")
	}
	return nil
}
