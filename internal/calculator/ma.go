package calculator

import (
	"math"

	"StockLens/internal/model"
)

// CalculateSMA computes the simple moving average of values over window. The first
// window-1 points are NaN, as is any point whose window holds a NaN.
func CalculateSMA(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, model.NewConfigurationError("window", window)
	}
	return rollingMean(values, window), nil
}

// CalculateEMA computes the adjust-free exponential moving average with
// alpha = 2/(span+1), seeded by the first finite value:
//
//	EMA[0] = x[0]
//	EMA[i] = alpha*x[i] + (1-alpha)*EMA[i-1]
//
// A NaN input yields NaN at that point; the recursion resumes from the last
// defined average on the next finite value.
func CalculateEMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, model.NewConfigurationError("span", span)
	}
	return ema(values, 2.0/float64(span+1)), nil
}

func ema(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	prev := math.NaN()
	for i, v := range values {
		if !model.IsDefined(v) {
			out[i] = math.NaN()
			continue
		}
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}
