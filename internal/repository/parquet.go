package repository

import (
	"context"
	"fmt"
	"momentum/types"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// Compile-time interface check.
var _ Loader = (*ParquetStore)(nil)

// BarRecord is the Parquet schema for one daily bar.
type BarRecord struct {
	Symbol      string  `parquet:"symbol"`
	Timestamp   int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, UTC midnight
	Open        float64 `parquet:"open"`
	High        float64 `parquet:"high"`
	Low         float64 `parquet:"low"`
	Close       float64 `parquet:"close"`
	Volume      int64   `parquet:"volume"`
	Dividends   float64 `parquet:"dividends"`
	StockSplits float64 `parquet:"stock_splits"`
}

// ParquetStore keeps daily bars as one file per ticker and year:
//
//	<dataDir>/<TICKER>/<YYYY>.parquet
type ParquetStore struct {
	dataDir string
	logger  zerolog.Logger
}

func NewParquetStore(dataDir string, logger zerolog.Logger) *ParquetStore {
	return &ParquetStore{dataDir: dataDir, logger: logger}
}

// LoadUniverse reads every ticker directory under the data directory.
func (s *ParquetStore) LoadUniverse(ctx context.Context) (types.Universe, error) {
	tickers, err := s.ListTickers()
	if err != nil {
		return nil, err
	}

	universe := make(types.Universe, len(tickers))
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		history, err := s.readTicker(ticker)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 {
			universe[ticker] = history
		}
	}
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	dropped := sortHistories(universe, s.logger)
	s.logger.Info().
		Str("dir", s.dataDir).
		Int("tickers", len(universe)).
		Int("duplicate_rows", dropped).
		Msg("parquet data loaded")
	return universe, nil
}

// ListTickers returns the ticker directories in lexicographic order.
func (s *ParquetStore) ListTickers() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEmptyUniverse
		}
		return nil, fmt.Errorf("list %s: %w", s.dataDir, err)
	}

	var tickers []string
	for _, e := range entries {
		if e.IsDir() {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *ParquetStore) readTicker(ticker string) (types.History, error) {
	files, err := filepath.Glob(filepath.Join(s.dataDir, ticker, "*.parquet"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var history types.History
	for _, path := range files {
		records, err := readParquetFile[BarRecord](path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, r := range records {
			history = append(history, types.Observation{
				Date:        calendarDay(time.UnixMilli(r.Timestamp).UTC()),
				Open:        r.Open,
				High:        r.High,
				Low:         r.Low,
				Close:       r.Close,
				Volume:      r.Volume,
				Dividends:   r.Dividends,
				StockSplits: r.StockSplits,
			})
		}
	}
	return history, nil
}

// WriteUniverse writes the raw bars of every ticker, replacing existing
// files for the same ticker and year. Derived indicator fields are not
// stored.
func (s *ParquetStore) WriteUniverse(ctx context.Context, universe types.Universe) error {
	type key struct {
		ticker string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, ticker := range universe.Tickers() {
		for _, o := range universe[ticker] {
			k := key{ticker: ticker, year: o.Date.Year()}
			groups[k] = append(groups[k], BarRecord{
				Symbol:      ticker,
				Timestamp:   o.Date.UnixMilli(),
				Open:        o.Open,
				High:        o.High,
				Low:         o.Low,
				Close:       o.Close,
				Volume:      o.Volume,
				Dividends:   o.Dividends,
				StockSplits: o.StockSplits,
			})
		}
	}

	for k, records := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeParquetFile(s.barPath(k.ticker, k.year), records); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.ticker, k.year, err)
		}
	}
	return nil
}

func (s *ParquetStore) barPath(ticker string, year int) string {
	return filepath.Join(s.dataDir, ticker, fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
