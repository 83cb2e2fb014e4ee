package anomaly

import (
	"math"

	"StockLens/internal/model"
)

// DefaultThreshold is the z-score above which a close is flagged.
const DefaultThreshold = 2.0

// ZScore flags closes far from the mean of the whole series.
type ZScore struct {
	Threshold float64
}

// Detect computes the population mean and standard deviation of the finite
// closes and flags every close with |close-mean|/σ > Threshold. The Anomaly
// channel carries the close on flagged dates and NaN elsewhere. σ == 0 flags
// nothing.
func (z ZScore) Detect(series *model.PriceSeries) (*model.DerivedSeries, error) {
	if !(z.Threshold > 0) || math.IsInf(z.Threshold, 0) {
		return nil, model.NewConfigurationError("threshold", z.Threshold)
	}
	closes := series.Closes()
	mean, std, ok := populationStats(closes)
	if !ok {
		return nil, model.ErrEmptySeries
	}

	flags := model.NaNs(len(closes))
	if std > 0 {
		for i, c := range closes {
			if !model.IsDefined(c) {
				continue
			}
			if math.Abs(c-mean)/std > z.Threshold {
				flags[i] = c
			}
		}
	}

	out := model.NewDerivedSeries(series.Dates())
	out.Set(model.ChannelAnomaly, flags)
	return out, nil
}

func populationStats(values []float64) (mean, std float64, ok bool) {
	n := 0
	sum := 0.0
	for _, v := range values {
		if model.IsDefined(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	mean = sum / float64(n)
	ss := 0.0
	for _, v := range values {
		if model.IsDefined(v) {
			d := v - mean
			ss += d * d
		}
	}
	return mean, math.Sqrt(ss / float64(n)), true
}
