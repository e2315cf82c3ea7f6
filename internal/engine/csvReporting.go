package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"momentum/types"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// writeCSVFile creates path and hands it to write.
func writeCSVFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return write(f)
}

// writeReturnsCSV writes the daily return series along with the compounded
// equity curve (starting at 1).
func writeReturnsCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"date", "return", "equity"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	equity := 1.0
	for i, r := range result.Returns {
		equity *= 1.0 + r
		record := []string{
			result.Dates[i].Format(types.DateFormat),
			decimal.NewFromFloat(r).String(),
			decimal.NewFromFloat(equity).String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// writeRebalancesCSV writes one row per rebalance; selected tickers are
// joined with spaces.
func writeRebalancesCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"date", "candidates", "selected_count", "selected"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rb := range result.Rebalances {
		record := []string{
			rb.Date.Format(types.DateFormat),
			strconv.Itoa(rb.Candidates),
			strconv.Itoa(len(rb.Selected)),
			strings.Join(rb.Selected, " "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
