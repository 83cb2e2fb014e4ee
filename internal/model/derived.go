package model

import (
	"math"
	"time"
)

// Derived channel names.
const (
	ChannelRSI          = "RSI"
	ChannelMACD         = "MACD"
	ChannelMACDSignal   = "MACD_Signal"
	ChannelMACDHist     = "MACD_Hist"
	ChannelUpper        = "Upper"
	ChannelLower        = "Lower"
	ChannelAnomaly      = "Anomaly"
	ChannelAnomalyScore = "Anomaly_Score"
)

// DerivedSeries maps the date axis of a PriceSeries to named numeric channels.
// Every channel has the same length as Dates; undefined points are NaN.
type DerivedSeries struct {
	Dates    []time.Time
	order    []string
	channels map[string][]float64
}

// NewDerivedSeries creates an empty DerivedSeries on a copy of dates.
func NewDerivedSeries(dates []time.Time) *DerivedSeries {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &DerivedSeries{Dates: d, channels: make(map[string][]float64)}
}

// Set stores values under name. values must match the date axis length.
func (d *DerivedSeries) Set(name string, values []float64) {
	if len(values) != len(d.Dates) {
		panic("model: channel " + name + " length does not match date axis")
	}
	if _, ok := d.channels[name]; !ok {
		d.order = append(d.order, name)
	}
	v := make([]float64, len(values))
	copy(v, values)
	d.channels[name] = v
}

// Channel returns a copy of the named channel.
func (d *DerivedSeries) Channel(name string) ([]float64, error) {
	v, ok := d.channels[name]
	if !ok {
		return nil, &MissingChannelError{Channel: name}
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

// Has reports whether the channel exists.
func (d *DerivedSeries) Has(name string) bool {
	_, ok := d.channels[name]
	return ok
}

// Names returns channel names in insertion order.
func (d *DerivedSeries) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the length of the date axis.
func (d *DerivedSeries) Len() int { return len(d.Dates) }

// Latest returns the most recent defined value of a channel and its date.
func (d *DerivedSeries) Latest(name string) (float64, time.Time, bool) {
	v := d.channels[name]
	for i := len(v) - 1; i >= 0; i-- {
		if isFinite(v[i]) {
			return v[i], d.Dates[i], true
		}
	}
	return math.NaN(), time.Time{}, false
}

// At returns the value of a channel at index i, NaN if absent.
func (d *DerivedSeries) At(name string, i int) float64 {
	v, ok := d.channels[name]
	if !ok || i < 0 || i >= len(v) {
		return math.NaN()
	}
	return v[i]
}

// Merge copies every channel of other into d. Both must share the same axis.
func (d *DerivedSeries) Merge(other *DerivedSeries) {
	for _, name := range other.order {
		d.Set(name, other.channels[name])
	}
}

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
