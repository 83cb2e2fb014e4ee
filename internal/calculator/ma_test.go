package calculator

import (
	"errors"
	"math"
	"testing"

	"StockLens/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

// assertSeries compares element-wise; NaN in want means "undefined expected".
func assertSeries(t *testing.T, label string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d]: got %.6f, want NaN", label, i, got[i])
			}
			continue
		}
		assertClose(t, label, got[i], want[i], tol)
	}
}

var nan = math.NaN()

func TestSMA_Window3(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, "SMA(3)", got, []float64{nan, nan, 2, 3, 4}, 1e-12)
}

func TestSMA_WarmupLength(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16}
	for w := 1; w <= len(closes); w++ {
		got, _ := CalculateSMA(closes, w)
		undefined := 0
		for _, v := range got {
			if math.IsNaN(v) {
				undefined++
			}
		}
		if undefined != w-1 {
			t.Errorf("window %d: %d undefined points, want %d", w, undefined, w-1)
		}
	}
}

func TestSMA_NaNInWindow(t *testing.T) {
	// Prices: 1, 2, NaN, 4, 5, 6 with window 2
	// windows touching index 2 are undefined: [1]=1.5, [2]=NaN, [3]=NaN, [4]=4.5, [5]=5.5
	got, _ := CalculateSMA([]float64{1, 2, nan, 4, 5, 6}, 2)
	assertSeries(t, "SMA(2)", got, []float64{nan, 1.5, nan, nan, 4.5, 5.5}, 1e-12)
}

func TestSMA_ShorterThanWindow(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2}, 20)
	if err != nil {
		t.Fatalf("short series must not be an error, got %v", err)
	}
	assertSeries(t, "SMA(20)", got, []float64{nan, nan}, 0)
}

func TestEMA_Span2(t *testing.T) {
	// alpha = 2/3: EMA = [10, 10 + 2/3*(20-10)] = [10, 16.6667]
	got, err := CalculateEMA([]float64{10, 20}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, "EMA(2)", got, []float64{10, 10 + 2.0/3.0*10}, 1e-12)
}

func TestEMA_Span3(t *testing.T) {
	// alpha = 0.5
	// Prices: 100, 102, 104, 103
	// EMA: 100, 101, 102.5, 102.75
	got, _ := CalculateEMA([]float64{100, 102, 104, 103}, 3)
	assertSeries(t, "EMA(3)", got, []float64{100, 101, 102.5, 102.75}, 1e-12)
}

func TestEMA_NoWarmup(t *testing.T) {
	closes := []float64{5, 6, 7, 8, 9}
	got, _ := CalculateEMA(closes, 26)
	if got[0] != closes[0] {
		t.Errorf("EMA[0]=%v, want %v", got[0], closes[0])
	}
	for i, v := range got {
		if math.IsNaN(v) {
			t.Errorf("EMA[%d] undefined, expected no warm-up", i)
		}
	}
}

func TestEMA_NaNPropagation(t *testing.T) {
	// alpha = 0.5
	// Prices: NaN, 10, NaN, 20
	// seed at index 1, index 2 stays NaN, index 3 resumes: 0.5*20 + 0.5*10 = 15
	got, _ := CalculateEMA([]float64{nan, 10, nan, 20}, 3)
	assertSeries(t, "EMA(3)", got, []float64{nan, 10, nan, 15}, 1e-12)
}

func TestMovingAverages_RejectNonPositive(t *testing.T) {
	for _, w := range []int{0, -3} {
		if _, err := CalculateSMA([]float64{1}, w); !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("SMA window %d: expected ErrConfiguration, got %v", w, err)
		}
		if _, err := CalculateEMA([]float64{1}, w); !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("EMA span %d: expected ErrConfiguration, got %v", w, err)
		}
	}
}
