// Package anomaly flags unusual closes in a price series. The z-score and
// isolation-forest strategies are kept apart and may disagree.
package anomaly

import (
	"strings"

	"StockLens/internal/model"
)

// Detector produces an Anomaly channel aligned to the series' date axis.
type Detector interface {
	Detect(series *model.PriceSeries) (*model.DerivedSeries, error)
}

// Strategy names a detector.
type Strategy string

const (
	StrategyZScore    Strategy = "ZSCORE"
	StrategyIsolation Strategy = "ISOLATION"
)

// ParseStrategy accepts a strategy name in any case.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToUpper(strings.TrimSpace(s))); st {
	case StrategyZScore, "Z-SCORE", "Z":
		return StrategyZScore, nil
	case StrategyIsolation, "ISOLATION_FOREST", "IFOREST":
		return StrategyIsolation, nil
	}
	return "", model.NewConfigurationError("strategy", s)
}

// Params holds the tunables of both strategies.
type Params struct {
	Threshold     float64 // ZSCORE
	Contamination float64 // ISOLATION
	Trees         int     // ISOLATION
	SampleSize    int     // ISOLATION
	Seed          uint64  // ISOLATION
}

// DefaultParams returns threshold 2.0 and a 100-tree forest expecting 5%
// outliers, seeded with 42.
func DefaultParams() Params {
	return Params{
		Threshold:     DefaultThreshold,
		Contamination: DefaultContamination,
		Trees:         DefaultTrees,
		SampleSize:    DefaultSampleSize,
		Seed:          DefaultSeed,
	}
}

// New returns the detector for a strategy.
func New(s Strategy, p Params) (Detector, error) {
	switch s {
	case StrategyZScore:
		return ZScore{Threshold: p.Threshold}, nil
	case StrategyIsolation:
		return IsolationForest{
			Contamination: p.Contamination,
			Trees:         p.Trees,
			SampleSize:    p.SampleSize,
			Seed:          p.Seed,
		}, nil
	}
	return nil, model.NewConfigurationError("strategy", s)
}

// Detect runs one strategy over series.
func Detect(series *model.PriceSeries, s Strategy, p Params) (*model.DerivedSeries, error) {
	d, err := New(s, p)
	if err != nil {
		return nil, err
	}
	return d.Detect(series)
}

// Flagged returns the indices marked as anomalies. Series carrying a score
// channel use 1/0 flags; otherwise any defined value is a flag.
func Flagged(d *model.DerivedSeries) []int {
	var out []int
	binary := d.Has(model.ChannelAnomalyScore)
	for i := 0; i < d.Len(); i++ {
		v := d.At(model.ChannelAnomaly, i)
		if !model.IsDefined(v) {
			continue
		}
		if binary && v != 1 {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Count returns the number of flagged points.
func Count(d *model.DerivedSeries) int { return len(Flagged(d)) }

// Points lists the flagged observations of series with their closes and,
// when the strategy produced one, their scores.
func Points(series *model.PriceSeries, d *model.DerivedSeries) []model.Anomaly {
	idx := Flagged(d)
	out := make([]model.Anomaly, 0, len(idx))
	for _, i := range idx {
		if i >= series.Len() {
			break
		}
		out = append(out, model.Anomaly{
			Date:  series.Bars[i].Time,
			Close: series.Bars[i].Close,
			Score: d.At(model.ChannelAnomalyScore, i),
		})
	}
	return out
}
