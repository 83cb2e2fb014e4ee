package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// OHLCV represents a single daily bar. Time is midnight UTC of the trading day.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily bars of one symbol, ascending by date with no
// duplicate dates. A NaN Close keeps its slot so derived series stay aligned.
type PriceSeries struct {
	Symbol Symbol
	Bars   []OHLCV
}

// Channel names of a PriceSeries.
const (
	ChannelOpen   = "open"
	ChannelHigh   = "high"
	ChannelLow    = "low"
	ChannelClose  = "close"
	ChannelVolume = "volume"
)

// NewPriceSeries copies bars, normalizes dates to calendar days and sorts them.
// It rejects duplicate dates and series without a single finite close.
func NewPriceSeries(symbol Symbol, bars []OHLCV) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	out := make([]OHLCV, len(bars))
	for i, b := range bars {
		b.Time = NormalizeDate(b.Time)
		out[i] = b
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	finite := 0
	for i, b := range out {
		if i > 0 && b.Time.Equal(out[i-1].Time) {
			return nil, fmt.Errorf("%s %s: %w", symbol, b.Time.Format(DateLayout), ErrDuplicateDate)
		}
		if isFinite(b.Close) {
			finite++
		}
	}
	if finite == 0 {
		return nil, fmt.Errorf("%s: no finite close: %w", symbol, ErrEmptySeries)
	}
	return &PriceSeries{Symbol: symbol, Bars: out}, nil
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Dates returns a copy of the date axis.
func (s *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		dates[i] = b.Time
	}
	return dates
}

// Closes returns a copy of the close channel.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Channel returns a copy of the named OHLCV channel.
func (s *PriceSeries) Channel(name string) ([]float64, error) {
	var pick func(OHLCV) float64
	switch name {
	case ChannelOpen:
		pick = func(b OHLCV) float64 { return b.Open }
	case ChannelHigh:
		pick = func(b OHLCV) float64 { return b.High }
	case ChannelLow:
		pick = func(b OHLCV) float64 { return b.Low }
	case ChannelClose:
		pick = func(b OHLCV) float64 { return b.Close }
	case ChannelVolume:
		pick = func(b OHLCV) float64 { return b.Volume }
	default:
		return nil, &MissingChannelError{Channel: name}
	}
	values := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		values[i] = pick(b)
	}
	return values, nil
}

// Between returns the observations with from <= date <= to. The result may be
// empty; it shares no memory with s.
func (s *PriceSeries) Between(from, to time.Time) *PriceSeries {
	from, to = NormalizeDate(from), NormalizeDate(to)
	start := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Time.Before(from) })
	end := sort.Search(len(s.Bars), func(i int) bool { return s.Bars[i].Time.After(to) })
	if end < start {
		end = start
	}
	bars := make([]OHLCV, end-start)
	copy(bars, s.Bars[start:end])
	return &PriceSeries{Symbol: s.Symbol, Bars: bars}
}

// Tail returns the last n observations (all of them if n exceeds Len).
func (s *PriceSeries) Tail(n int) []OHLCV {
	if n <= 0 {
		return nil
	}
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	out := make([]OHLCV, n)
	copy(out, s.Bars[len(s.Bars)-n:])
	return out
}

// Last returns the most recent observation.
func (s *PriceSeries) Last() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Clone returns a deep copy.
func (s *PriceSeries) Clone() *PriceSeries {
	bars := make([]OHLCV, len(s.Bars))
	copy(bars, s.Bars)
	return &PriceSeries{Symbol: s.Symbol, Bars: bars}
}

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// NormalizeDate truncates t to midnight UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsDefined reports whether v is a usable number (not NaN, not infinite).
func IsDefined(v float64) bool { return isFinite(v) }
