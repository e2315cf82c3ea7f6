package engine

import (
	"bytes"
	"context"
	"errors"
	"momentum/types"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEngine_Run(t *testing.T) {
	loadErr := errors.New("connection refused")
	days := consecutiveDays(date("2024-01-25"), 40)
	flat := types.Universe{}
	for k := 0; k < 10; k++ {
		flat[tickerName(k)] = historyFromCloses(days, flatCloses(len(days), 100))
	}

	tests := []struct {
		name       string
		store      mockDataStore
		wantErr    error
		wantOutput string
	}{
		{"loader failure", mockDataStore{err: loadErr}, loadErr, ""},
		{"empty universe", mockDataStore{universe: types.Universe{}}, ErrEmptyUniverse, ""},
		{"no trades", mockDataStore{universe: flat}, ErrNoTrades, "No trades were made"},
		{"trending universe", mockDataStore{universe: trendingUniverse(days, 10)}, nil, "Total Trading Days:      34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			eng := mockEngine(tt.store, smallConfig(t), nil)
			eng.SetOutput(&out)

			report, err := eng.Run(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if tt.wantErr == nil && report == nil {
				t.Fatal("Run() returned no report")
			}
			if !strings.Contains(out.String(), tt.wantOutput) {
				t.Errorf("output missing %q:\n%s", tt.wantOutput, out.String())
			}
		})
	}
}

func TestEngine_RunReport(t *testing.T) {
	days := consecutiveDays(date("2024-01-25"), 40)
	eng := mockEngine(mockDataStore{universe: trendingUniverse(days, 10)}, smallConfig(t), nil)
	eng.SetOutput(&bytes.Buffer{})

	report, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.StartDate.Equal(days[6]) || !report.EndDate.Equal(days[39]) {
		t.Errorf("period = %v..%v, want %v..%v", report.StartDate, report.EndDate, days[6], days[39])
	}
	if report.Rebalances != 3 {
		t.Errorf("Rebalances = %d, want 3", report.Rebalances)
	}
	if report.CumulativeReturn <= 0 || report.MaxDrawdown != 0 {
		t.Errorf("cumulative = %v drawdown = %v, want gain without drawdown", report.CumulativeReturn, report.MaxDrawdown)
	}
}

func TestEngine_RunExportsCSV(t *testing.T) {
	dir := t.TempDir()
	returnsPath := filepath.Join(dir, "returns.csv")
	rebalancesPath := filepath.Join(dir, "rebalances.csv")

	days := consecutiveDays(date("2024-01-25"), 40)
	reporting := NewReportingConfig(DefaultTradingDays, false, returnsPath, rebalancesPath)
	eng := mockEngine(mockDataStore{universe: trendingUniverse(days, 10)}, smallConfig(t), reporting)
	eng.SetOutput(&bytes.Buffer{})

	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	tests := []struct {
		path  string
		lines int
	}{
		{returnsPath, 35},
		{rebalancesPath, 4},
	}
	for _, tt := range tests {
		b, err := os.ReadFile(tt.path)
		if err != nil {
			t.Fatalf("read %s: %v", tt.path, err)
		}
		if got := strings.Count(string(b), "\n"); got != tt.lines {
			t.Errorf("%s has %d lines, want %d", filepath.Base(tt.path), got, tt.lines)
		}
	}
}

func TestEngine_BacktestEmptyUniverse(t *testing.T) {
	_, err := mockEngine(nil, DefaultStrategyConfig(), nil).Backtest(context.Background(), nil)
	if !errors.Is(err, ErrEmptyUniverse) {
		t.Errorf("Backtest(nil) error = %v, want ErrEmptyUniverse", err)
	}
}

func TestNewStrategyConfig(t *testing.T) {
	tests := []struct {
		name     string
		short    int
		long     int
		fraction float64
		wantErr  bool
	}{
		{"defaults", 50, 200, 0.10, false},
		{"zero window", 0, 200, 0.10, true},
		{"negative long window", 50, -1, 0.10, true},
		{"zero fraction", 50, 200, 0, true},
		{"fraction above one", 50, 200, 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewStrategyConfig(tt.short, tt.long, tt.fraction, 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStrategyConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.workers <= 0 {
				t.Errorf("workers = %d, want GOMAXPROCS default", cfg.workers)
			}
		})
	}
}
