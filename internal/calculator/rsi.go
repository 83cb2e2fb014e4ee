package calculator

import (
	"math"

	"StockLens/internal/model"
)

// CalculateRSI computes the RSI series over window using simple rolling means
// of gains and losses:
//
//	RS  = mean(gains) / mean(losses)
//	RSI = 100 - 100/(1+RS)
//
// The first observation has no prior close and counts as a zero change, so
// RSI is defined from index window-1. A NaN close still poisons the changes
// around it. When the window holds only gains the value is exactly 100; when
// it holds no movement at all the value is NaN.
func CalculateRSI(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, model.NewConfigurationError("window", window)
	}
	out := model.NaNs(len(values))
	if len(values) < window {
		return out, nil
	}

	deltas := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		deltas[i] = values[i] - values[i-1]
	}

	for i := window - 1; i < len(values); i++ {
		var gain, loss float64
		ok := true
		for _, d := range deltas[i-window+1 : i+1] {
			if !model.IsDefined(d) {
				ok = false
				break
			}
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		if !ok {
			continue
		}
		avgGain := gain / float64(window)
		avgLoss := loss / float64(window)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return math.NaN()
	case avgLoss == 0:
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
