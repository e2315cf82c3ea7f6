package main

import (
	"context"
	"errors"
	"fmt"
	"momentum/internal/config"
	"momentum/internal/engine"
	"momentum/internal/logger"
	"momentum/internal/repository"
	"momentum/strategies/momentum"
	"os"
	"os/signal"
	"syscall"
)

const defaultConfigPath = "config.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	path := os.Getenv("BACKTESTER_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, closeLoader, err := repository.NewLoader(ctx, cfg.Data, log)
	if err != nil {
		log.Error().Err(err).Msg("could not open data source")
		return 1
	}
	defer closeLoader()

	strategyConfig, err := engine.NewStrategyConfig(
		cfg.Strategy.ShortWindow,
		cfg.Strategy.LongWindow,
		cfg.Strategy.SelectionFraction,
		cfg.Strategy.Workers,
	)
	if err != nil {
		log.Error().Err(err).Msg("invalid strategy configuration")
		return 1
	}
	reportingConfig := engine.NewReportingConfig(
		cfg.Report.TradingDays,
		cfg.Report.ShowProgress,
		cfg.Report.ReturnsCSV,
		cfg.Report.RebalancesCSV,
	)

	eng := engine.NewEngine(
		loader,
		momentum.NewTopFraction(strategyConfig.SelectionFraction()),
		strategyConfig,
		reportingConfig,
		log,
	)
	_, err = eng.Run(ctx)
	switch {
	case err == nil, errors.Is(err, engine.ErrNoTrades):
		return 0
	case errors.Is(err, engine.ErrEmptyUniverse), errors.Is(err, repository.ErrEmptyUniverse):
		log.Error().Err(err).Msg("no data loaded")
		return 1
	default:
		log.Error().Err(err).Msg("backtest failed")
		return 1
	}
}
