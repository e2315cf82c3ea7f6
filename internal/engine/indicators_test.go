package engine

import (
	"context"
	"fmt"
	"math/rand"
	"momentum/types"
	"reflect"
	"testing"
)

func randomCloses(r *rand.Rand, n int) []float64 {
	closes := make([]float64, n)
	price := 50 + r.Float64()*100
	for i := range closes {
		price *= 1 + (r.Float64()-0.5)*0.06
		closes[i] = price
	}
	return closes
}

// naiveSMA is the brute-force mean of closes (i-window, i].
func naiveSMA(h types.History, i, window int) float64 {
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += h[j].Close
	}
	return sum / float64(window)
}

func TestEnrichHistory_WarmUpIsZero(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	days := consecutiveDays(date("2020-01-01"), 260)
	h := historyFromCloses(days, randomCloses(r, len(days)))
	enrichHistory(h, DefaultShortWindow, DefaultLongWindow)

	for i, o := range h {
		if i < DefaultShortWindow && o.SMAShort != 0 {
			t.Errorf("index %d: SMAShort = %v during warm-up, want 0", i, o.SMAShort)
		}
		if i < DefaultLongWindow && o.SMALong != 0 {
			t.Errorf("index %d: SMALong = %v during warm-up, want 0", i, o.SMALong)
		}
		if i < DefaultLongWindow && o.MomentumScore != 0 {
			t.Errorf("index %d: MomentumScore = %v during warm-up, want 0", i, o.MomentumScore)
		}
	}
}

func TestEnrichHistory_RollingSMAMatchesNaive(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	windows := []struct{ short, long int }{{50, 200}, {2, 4}, {5, 21}, {1, 3}}
	for _, w := range windows {
		t.Run(fmt.Sprintf("%d/%d", w.short, w.long), func(t *testing.T) {
			days := consecutiveDays(date("2019-01-01"), 400)
			h := historyFromCloses(days, randomCloses(r, len(days)))
			enrichHistory(h, w.short, w.long)

			for i := range h {
				if i >= w.short {
					if want := naiveSMA(h, i, w.short); !almostEqual(h[i].SMAShort, want, 1e-8) {
						t.Fatalf("index %d: SMAShort = %v, want %v", i, h[i].SMAShort, want)
					}
				}
				if i >= w.long {
					if want := naiveSMA(h, i, w.long); !almostEqual(h[i].SMALong, want, 1e-8) {
						t.Fatalf("index %d: SMALong = %v, want %v", i, h[i].SMALong, want)
					}
				}
			}
		})
	}
}

func TestEnrichHistory_MomentumScore(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	days := consecutiveDays(date("2021-01-01"), 300)
	h := historyFromCloses(days, randomCloses(r, len(days)))
	// A zero-priced stretch drives SMALong to zero at the end.
	for i := 90; i < len(h); i++ {
		h[i].Close = 0
	}
	enrichHistory(h, 10, 40)

	for i := 40; i < len(h); i++ {
		o := h[i]
		// The running sum may leave a rounding residue instead of an exact 0.
		if o.SMALong <= 0 {
			if o.MomentumScore != 0 {
				t.Fatalf("index %d: MomentumScore = %v with non-positive SMALong, want 0", i, o.MomentumScore)
			}
			continue
		}
		if want := o.SMAShort/o.SMALong - 1; !almostEqual(o.MomentumScore, want, floatTolerance) {
			t.Fatalf("index %d: MomentumScore = %v, want %v", i, o.MomentumScore, want)
		}
	}
}

func TestEnrichHistory_DailyReturn(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   []float64
	}{
		{"first day has no return", []float64{100}, []float64{0}},
		{"simple returns", []float64{100, 110, 99}, []float64{0, 0.1, -0.1}},
		{"zero previous close is guarded", []float64{100, 0, 50}, []float64{0, -1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := historyFromCloses(consecutiveDays(date("2024-01-01"), len(tt.closes)), tt.closes)
			enrichHistory(h, 50, 200)
			for i, o := range h {
				if !almostEqual(o.DailyReturn, tt.want[i], floatTolerance) {
					t.Errorf("index %d: DailyReturn = %v, want %v", i, o.DailyReturn, tt.want[i])
				}
			}
		})
	}
}

func TestEnrichHistory_EmptyHistory(t *testing.T) {
	var h types.History
	enrichHistory(h, 50, 200)
	if len(h) != 0 {
		t.Errorf("empty history grew to %d", len(h))
	}
}

func TestComputeIndicators_ParallelMatchesSequential(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	days := consecutiveDays(date("2018-01-01"), 320)

	parallel := types.Universe{}
	sequential := types.Universe{}
	for k := 0; k < 40; k++ {
		closes := randomCloses(r, len(days)-k)
		ticker := fmt.Sprintf("S%02d", k)
		parallel[ticker] = historyFromCloses(days[k:], closes)
		sequential[ticker] = historyFromCloses(days[k:], closes)
	}
	parallel["EMPTY"] = types.History{}
	sequential["EMPTY"] = types.History{}

	cfg, err := NewStrategyConfig(DefaultShortWindow, DefaultLongWindow, DefaultSelectionFraction, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := computeIndicators(context.Background(), parallel, cfg); err != nil {
		t.Fatalf("computeIndicators() error = %v", err)
	}
	for _, h := range sequential {
		enrichHistory(h, DefaultShortWindow, DefaultLongWindow)
	}
	if !reflect.DeepEqual(parallel, sequential) {
		t.Error("parallel indicator pass differs from the sequential one")
	}
}

func TestComputeIndicators_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := types.Universe{"AAPL": historyFromCloses(consecutiveDays(date("2024-01-01"), 3), []float64{1, 2, 3})}
	if err := computeIndicators(ctx, u, DefaultStrategyConfig()); err == nil {
		t.Error("computeIndicators() with cancelled context returned nil error")
	}
}
