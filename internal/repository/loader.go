package repository

import (
	"context"
	"errors"
	"fmt"
	"momentum/internal/config"
	"momentum/types"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Global error declarations.
var (
	ErrEmptyUniverse   = errors.New("no instrument data found in datasource")
	ErrMissingColumn   = errors.New("required column missing from header")
	ErrUnsupportedKind = errors.New("unsupported data source")
)

// Loader produces a chronologically ordered universe of daily histories.
type Loader interface {
	LoadUniverse(ctx context.Context) (types.Universe, error)
}

// NewLoader builds the loader named by cfg.Source. The returned func
// releases any held connection.
func NewLoader(ctx context.Context, cfg config.DataConfig, logger zerolog.Logger) (Loader, func(), error) {
	logger = logger.With().Str("source", cfg.Source).Logger()
	switch cfg.Source {
	case config.SourceCSV:
		return NewCSVLoader(cfg.CSVPath, logger), func() {}, nil
	case config.SourceParquet:
		return NewParquetStore(cfg.ParquetDir, logger), func() {}, nil
	case config.SourcePostgres:
		db, err := NewDatabase(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%q: %w", cfg.Source, ErrUnsupportedKind)
	}
}

// sortHistories orders every history by date and drops repeated dates,
// keeping the first row read for each date. It returns the number of rows
// dropped.
func sortHistories(universe types.Universe, logger zerolog.Logger) int {
	dropped := 0
	for ticker, h := range universe {
		sort.SliceStable(h, func(i, j int) bool { return h[i].Date.Before(h[j].Date) })

		kept := h[:0]
		for i, o := range h {
			if i > 0 && o.Date.Equal(kept[len(kept)-1].Date) {
				dropped++
				logger.Warn().
					Str("ticker", ticker).
					Str("date", o.Date.Format(types.DateFormat)).
					Msg("duplicate date dropped")
				continue
			}
			kept = append(kept, o)
		}
		universe[ticker] = kept
	}
	return dropped
}

// calendarDay strips the time of day, keeping the date as seen in t's own
// location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
