package calculator

import (
	"errors"
	"math"
	"testing"

	"StockLens/internal/model"
)

func TestBollinger_HandCalculated(t *testing.T) {
	// Prices: 1, 2, 3, 5 with window 3, k = 2
	// index 2: mean 2, sample std 1 → upper 4, lower 0
	// index 3: mean 10/3, deviations -4/3, -1/3, 5/3 → ss = 42/9, std = sqrt(7/3)
	bands, err := CalculateBollinger([]float64{1, 2, 3, 5}, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	std3 := math.Sqrt(7.0 / 3.0)
	assertSeries(t, "middle", bands.Middle, []float64{nan, nan, 2, 10.0 / 3.0}, 1e-9)
	assertSeries(t, "upper", bands.Upper, []float64{nan, nan, 4, 10.0/3.0 + 2*std3}, 1e-9)
	assertSeries(t, "lower", bands.Lower, []float64{nan, nan, 0, 10.0/3.0 - 2*std3}, 1e-9)
}

func TestBollinger_SharesSMAWarmup(t *testing.T) {
	closes := []float64{3, 4, 5, 6, 7, 8, 9, 10}
	bands, _ := CalculateBollinger(closes, 5, DefaultBandWidth)
	sma, _ := CalculateSMA(closes, 5)
	for i := range closes {
		if math.IsNaN(sma[i]) != math.IsNaN(bands.Upper[i]) || math.IsNaN(sma[i]) != math.IsNaN(bands.Lower[i]) {
			t.Errorf("index %d: band definedness differs from SMA", i)
		}
	}
}

func TestBollinger_ConstantSeriesCollapses(t *testing.T) {
	bands, _ := CalculateBollinger([]float64{7, 7, 7, 7}, 2, 2)
	for i := 1; i < 4; i++ {
		if bands.Upper[i] != 7 || bands.Lower[i] != 7 {
			t.Errorf("index %d: expected bands at 7, got %v/%v", i, bands.Upper[i], bands.Lower[i])
		}
	}
}

func TestBollinger_Rejects(t *testing.T) {
	if _, err := CalculateBollinger([]float64{1}, 0, 2); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("window 0: expected ErrConfiguration, got %v", err)
	}
	if _, err := CalculateBollinger([]float64{1}, 20, -1); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("k -1: expected ErrConfiguration, got %v", err)
	}
	if _, err := CalculateBollinger([]float64{1}, 20, math.NaN()); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("k NaN: expected ErrConfiguration, got %v", err)
	}
}
