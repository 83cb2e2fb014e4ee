// Package strategy reduces the latest indicator values to qualitative labels.
package strategy

import (
	"math"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// RSI thresholds.
var (
	OverboughtRSI = 70.0
	OversoldRSI   = 30.0
)

// LatestValues are the inputs of Interpret. NaN marks an undefined value.
type LatestValues struct {
	Price  float64
	RSI    float64
	MACD   float64
	Signal float64
	MA20   float64
	MA50   float64
}

// LatestFrom picks the most recent defined values out of a series and its
// indicators. MACD and Signal come from the same date, as do Price, MA20 and
// MA50; when no date carries all three, Price is the latest close and the
// averages stay NaN.
func LatestFrom(series *model.PriceSeries, derived *model.DerivedSeries) LatestValues {
	v := LatestValues{
		Price: math.NaN(), RSI: math.NaN(),
		MACD: math.NaN(), Signal: math.NaN(),
		MA20: math.NaN(), MA50: math.NaN(),
	}
	if rsi, _, ok := derived.Latest(model.ChannelRSI); ok {
		v.RSI = rsi
	}

	n := min(series.Len(), derived.Len())
	for i := n - 1; i >= 0; i-- {
		m, s := derived.At(model.ChannelMACD, i), derived.At(model.ChannelMACDSignal, i)
		if model.IsDefined(m) && model.IsDefined(s) {
			v.MACD, v.Signal = m, s
			break
		}
	}

	ma20, ma50 := calculator.MAChannel(20), calculator.MAChannel(50)
	closes := series.Closes()
	for i := n - 1; i >= 0; i-- {
		c, a, b := closes[i], derived.At(ma20, i), derived.At(ma50, i)
		if model.IsDefined(c) && model.IsDefined(a) && model.IsDefined(b) {
			v.Price, v.MA20, v.MA50 = c, a, b
			return v
		}
	}
	for i := len(closes) - 1; i >= 0; i-- {
		if model.IsDefined(closes[i]) {
			v.Price = closes[i]
			break
		}
	}
	return v
}

// Interpret labels each rule independently. A rule whose inputs are not all
// defined yields Insufficient Data.
func Interpret(v LatestValues) model.Interpretation {
	return model.Interpretation{
		RSI:   interpretRSI(v.RSI),
		MACD:  interpretMACD(v.MACD, v.Signal),
		Trend: interpretTrend(v.Price, v.MA20, v.MA50),
	}
}

func interpretRSI(rsi float64) model.RSILabel {
	switch {
	case !model.IsDefined(rsi):
		return model.RSIInsufficient
	case rsi > OverboughtRSI:
		return model.RSIOverbought
	case rsi < OversoldRSI:
		return model.RSIOversold
	}
	return model.RSINeutral
}

func interpretMACD(macd, signal float64) model.MACDLabel {
	if !model.IsDefined(macd) || !model.IsDefined(signal) {
		return model.MACDInsufficient
	}
	if macd > signal {
		return model.MACDBullish
	}
	return model.MACDBearish
}

func interpretTrend(price, ma20, ma50 float64) model.TrendLabel {
	if !model.IsDefined(price) || !model.IsDefined(ma20) || !model.IsDefined(ma50) {
		return model.TrendInsufficient
	}
	switch {
	case price > ma20 && price > ma50:
		return model.TrendBullish
	case price < ma20 && price < ma50:
		return model.TrendBearish
	}
	return model.TrendMixed
}
