package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"momentum/types"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const dateWidth = len(types.DateFormat)

type column int

const (
	colDate column = iota
	colTicker
	colOpen
	colHigh
	colLow
	colClose
	colVolume
	colDividends
	colStockSplits
	numColumns
)

var headerNames = map[string]column{
	"date":        colDate,
	"datetime":    colDate,
	"ticker":      colTicker,
	"symbol":      colTicker,
	"open":        colOpen,
	"high":        colHigh,
	"low":         colLow,
	"close":       colClose,
	"volume":      colVolume,
	"dividends":   colDividends,
	"stocksplits": colStockSplits,
}

// positionalLayout is the date,ticker,open,high,low,close,volume,dividends,
// stock splits layout written by the data fetcher.
var positionalLayout = [numColumns]int{0, 1, 2, 3, 4, 5, 6, 7, 8}

// CSVLoader reads a long-format daily bar dump: one row per ticker and day.
type CSVLoader struct {
	path   string
	logger zerolog.Logger
}

func NewCSVLoader(path string, logger zerolog.Logger) *CSVLoader {
	return &CSVLoader{path: path, logger: logger}
}

// LoadUniverse parses the whole file. Rows with malformed fields are logged
// and skipped.
func (l *CSVLoader) LoadUniverse(ctx context.Context) (types.Universe, error) {
	l.logger.Info().Str("path", l.path).Msg("loading csv data")
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	universe, err := l.read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return universe, nil
}

func (l *CSVLoader) read(ctx context.Context, r io.Reader) (types.Universe, error) {
	// UTF-8 and UTF-16 exports both start with a BOM; honour it if present.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyUniverse
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	layout, err := l.layoutFor(header)
	if err != nil {
		return nil, err
	}

	universe := make(types.Universe)
	skipped := 0
	for n := 1; ; n++ {
		if n%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			l.logger.Warn().Int("line", parseErr.Line).Err(err).Msg("malformed csv line skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)

		ticker, obs, err := parseRecord(record, layout)
		if err != nil {
			skipped++
			l.logger.Warn().
				Int("line", line).
				Str("row", strings.Join(record, ",")).
				Err(err).
				Msg("error prone line skipped")
			continue
		}
		universe[ticker] = append(universe[ticker], obs)
	}

	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	dropped := sortHistories(universe, l.logger)
	l.logger.Info().
		Int("tickers", len(universe)).
		Int("skipped_rows", skipped).
		Int("duplicate_rows", dropped).
		Msg("data loaded successfully")
	return universe, nil
}

// layoutFor maps header names to column positions. Headers without both a
// date and a ticker column fall back to the positional layout. A value of -1
// marks an absent optional column.
func (l *CSVLoader) layoutFor(header []string) ([numColumns]int, error) {
	var layout [numColumns]int
	for i := range layout {
		layout[i] = -1
	}
	for i, name := range header {
		if col, ok := headerNames[normalizeHeader(name)]; ok && layout[col] == -1 {
			layout[col] = i
		}
	}

	if layout[colDate] == -1 || layout[colTicker] == -1 {
		l.logger.Warn().Strs("header", header).Msg("unrecognised header, using positional columns")
		return positionalLayout, nil
	}
	if layout[colClose] == -1 {
		return layout, fmt.Errorf("close: %w", ErrMissingColumn)
	}
	return layout, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.NewReplacer(" ", "", "_", "").Replace(name)
}

func parseRecord(record []string, layout [numColumns]int) (string, types.Observation, error) {
	var obs types.Observation
	for _, pos := range layout {
		if pos >= len(record) {
			return "", obs, fmt.Errorf("expected at least %d fields, got %d", pos+1, len(record))
		}
	}

	ticker := strings.TrimSpace(record[layout[colTicker]])
	if ticker == "" {
		return "", obs, errors.New("empty ticker")
	}

	rawDate := strings.TrimSpace(record[layout[colDate]])
	if len(rawDate) < dateWidth {
		return "", obs, fmt.Errorf("date %q shorter than %d characters", rawDate, dateWidth)
	}
	d, err := types.ParseDate(rawDate[:dateWidth])
	if err != nil {
		return "", obs, fmt.Errorf("date: %w", err)
	}
	obs.Date = d

	floatFields := []struct {
		col   column
		name  string
		dst   *float64
		price bool
	}{
		{colOpen, "open", &obs.Open, true},
		{colHigh, "high", &obs.High, true},
		{colLow, "low", &obs.Low, true},
		{colClose, "close", &obs.Close, true},
		{colDividends, "dividends", &obs.Dividends, false},
		{colStockSplits, "stock splits", &obs.StockSplits, false},
	}
	for _, f := range floatFields {
		pos := layout[f.col]
		if pos < 0 {
			continue
		}
		v, err := parseFloat(record[pos])
		if err != nil {
			return "", obs, fmt.Errorf("%s: %w", f.name, err)
		}
		if f.price && v < 0 {
			return "", obs, fmt.Errorf("%s: negative price %v", f.name, v)
		}
		*f.dst = v
	}

	if pos := layout[colVolume]; pos >= 0 {
		v, err := parseVolume(record[pos])
		if err != nil {
			return "", obs, fmt.Errorf("volume: %w", err)
		}
		obs.Volume = v
	}
	return ticker, obs, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// parseVolume accepts non-negative integers as well as float renderings
// such as "1200.0".
func parseVolume(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative volume %d", v)
		}
		return v, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f < 0 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("volume %q out of range", s)
	}
	return int64(f), nil
}
