package calculator

import (
	"math"

	"StockLens/internal/model"
)

// rollingMean averages each trailing window. A window containing a NaN is NaN.
// Sums are recomputed per window so results do not depend on history.
func rollingMean(values []float64, window int) []float64 {
	out := model.NaNs(len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for _, v := range values[i-window+1 : i+1] {
			if !model.IsDefined(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (n-1 denominator) of each
// trailing window. It is NaN during warm-up, for windows holding a NaN, and
// for window == 1.
func rollingStd(values []float64, window int) []float64 {
	out := model.NaNs(len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		sum := 0.0
		ok := true
		for _, v := range w {
			if !model.IsDefined(v) {
				ok = false
				break
			}
			sum += v
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for _, v := range w {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}
