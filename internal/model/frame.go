package model

import "time"

// Observation is one slot of an aligned series. Present is false on dates the
// symbol did not trade; prices are NaN there.
type Observation struct {
	OHLCV
	Present bool
}

// MultiSeriesFrame lines several symbols up on one shared date axis.
type MultiSeriesFrame struct {
	Dates   []time.Time
	Symbols []Symbol
	Rows    map[Symbol][]Observation
}

// Column returns the observations of one symbol.
func (f *MultiSeriesFrame) Column(sym Symbol) ([]Observation, bool) {
	rows, ok := f.Rows[sym]
	return rows, ok
}
