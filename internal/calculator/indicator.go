package calculator

import (
	"fmt"
	"strconv"
	"strings"

	"StockLens/internal/model"
)

// Kind selects an indicator.
type Kind string

const (
	KindSMA       Kind = "SMA"
	KindEMA       Kind = "EMA"
	KindBollinger Kind = "BOLLINGER"
	KindRSI       Kind = "RSI"
	KindMACD      Kind = "MACD"
)

// ParseKind accepts an indicator name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindSMA, KindEMA, KindBollinger, KindRSI, KindMACD:
		return k, nil
	case "MA":
		return KindSMA, nil
	case "BB", "BANDS":
		return KindBollinger, nil
	}
	return "", model.NewConfigurationError("kind", s)
}

// Params carries the tunables of every indicator; each Kind reads only the
// fields it needs.
type Params struct {
	Window int     // SMA, BOLLINGER, RSI
	Span   int     // EMA
	K      float64 // BOLLINGER
	Fast   int     // MACD
	Slow   int     // MACD
	Signal int     // MACD
}

// DefaultParams returns the conventional parameters for kind.
func DefaultParams(kind Kind) Params {
	switch kind {
	case KindRSI:
		return Params{Window: 14}
	case KindEMA:
		return Params{Span: 20}
	case KindBollinger:
		return Params{Window: 20, K: DefaultBandWidth}
	case KindMACD:
		return Params{Fast: DefaultMACDFast, Slow: DefaultMACDSlow, Signal: DefaultMACDSignal}
	default:
		return Params{Window: 20}
	}
}

// MAChannel names the moving-average channel for a window, e.g. "MA_20".
func MAChannel(window int) string { return "MA_" + strconv.Itoa(window) }

// EMAChannel names the EMA channel for a span, e.g. "EMA_12".
func EMAChannel(span int) string { return "EMA_" + strconv.Itoa(span) }

// Compute runs one indicator over the close channel of series. Insufficient
// history is not an error: those points are simply NaN.
func Compute(series *model.PriceSeries, kind Kind, p Params) (*model.DerivedSeries, error) {
	closes := series.Closes()
	out := model.NewDerivedSeries(series.Dates())

	switch kind {
	case KindSMA:
		ma, err := CalculateSMA(closes, p.Window)
		if err != nil {
			return nil, err
		}
		out.Set(MAChannel(p.Window), ma)
	case KindEMA:
		e, err := CalculateEMA(closes, p.Span)
		if err != nil {
			return nil, err
		}
		out.Set(EMAChannel(p.Span), e)
	case KindBollinger:
		bands, err := CalculateBollinger(closes, p.Window, p.K)
		if err != nil {
			return nil, err
		}
		out.Set(MAChannel(p.Window), bands.Middle)
		out.Set(model.ChannelUpper, bands.Upper)
		out.Set(model.ChannelLower, bands.Lower)
	case KindRSI:
		rsi, err := CalculateRSI(closes, p.Window)
		if err != nil {
			return nil, err
		}
		out.Set(model.ChannelRSI, rsi)
	case KindMACD:
		lines, err := CalculateMACD(closes, p.Fast, p.Slow, p.Signal)
		if err != nil {
			return nil, err
		}
		out.Set(model.ChannelMACD, lines.MACD)
		out.Set(model.ChannelMACDSignal, lines.Signal)
		out.Set(model.ChannelMACDHist, lines.Hist)
	default:
		return nil, model.NewConfigurationError("kind", kind)
	}
	return out, nil
}

// Request pairs an indicator with its parameters.
type Request struct {
	Kind   Kind
	Params Params
}

// ComputeAll runs every request and merges the channels into one series.
// A later request overwrites a same-named channel of an earlier one.
func ComputeAll(series *model.PriceSeries, reqs []Request) (*model.DerivedSeries, error) {
	out := model.NewDerivedSeries(series.Dates())
	for _, r := range reqs {
		d, err := Compute(series, r.Kind, r.Params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Kind, err)
		}
		out.Merge(d)
	}
	return out, nil
}

// StandardRequests is the overlay set used for reports: MA20, MA50, RSI(14),
// MACD(12,26,9) and Bollinger(20, 2).
func StandardRequests() []Request {
	return []Request{
		{Kind: KindSMA, Params: Params{Window: 20}},
		{Kind: KindSMA, Params: Params{Window: 50}},
		{Kind: KindRSI, Params: DefaultParams(KindRSI)},
		{Kind: KindMACD, Params: DefaultParams(KindMACD)},
		{Kind: KindBollinger, Params: DefaultParams(KindBollinger)},
	}
}
