// Command bars-import converts the configured CSV dump into the Parquet bar
// layout read by the parquet data source.
package main

import (
	"context"
	"fmt"
	"momentum/internal/config"
	"momentum/internal/logger"
	"momentum/internal/repository"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	os.Exit(run())
}

func run() int {
	path := os.Getenv("BACKTESTER_CONFIG")
	if path == "" {
		path = "config.yaml"
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

	started := time.Now()
	universe, err := repository.NewCSVLoader(cfg.Data.CSVPath, log).LoadUniverse(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load csv")
		return 1
	}

	store := repository.NewParquetStore(cfg.Data.ParquetDir, log)
	if err := store.WriteUniverse(ctx, universe); err != nil {
		log.Error().Err(err).Msg("write parquet")
		return 1
	}
	log.Info().
		Str("dir", cfg.Data.ParquetDir).
		Int("tickers", len(universe)).
		Int("observations", universe.Observations()).
		Dur("elapsed", time.Since(started)).
		Msg("bars imported")
	return 0
}
