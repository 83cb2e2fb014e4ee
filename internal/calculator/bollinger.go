package calculator

import "StockLens/internal/model"

// DefaultBandWidth is the number of standard deviations between the middle
// band and each outer band.
const DefaultBandWidth = 2.0

// Bands holds the three Bollinger lines, aligned with the input.
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// CalculateBollinger computes SMA(window) ± k·σ(window), σ being the rolling sample
// standard deviation. All three lines share the SMA warm-up.
func CalculateBollinger(values []float64, window int, k float64) (Bands, error) {
	if window <= 0 {
		return Bands{}, model.NewConfigurationError("window", window)
	}
	if !(k > 0) || !model.IsDefined(k) {
		return Bands{}, model.NewConfigurationError("k", k)
	}
	mid := rollingMean(values, window)
	std := rollingStd(values, window)
	upper := make([]float64, len(values))
	lower := make([]float64, len(values))
	for i := range values {
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return Bands{Middle: mid, Upper: upper, Lower: lower}, nil
}
