// Package compare lines several symbols up on one date axis.
package compare

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"StockLens/internal/model"
)

// DefaultTail is the number of trailing observations shown per symbol.
const DefaultTail = 5

// Align places every series on the union of their dates. A symbol has
// Present=false and NaN prices on dates it did not trade. Inputs are not
// modified.
func Align(seriesBySymbol map[model.Symbol]*model.PriceSeries) (*model.MultiSeriesFrame, error) {
	if len(seriesBySymbol) == 0 {
		return nil, model.ErrEmptySeries
	}

	symbols := sortedSymbols(seriesBySymbol)
	seen := make(map[int64]time.Time)
	for _, sym := range symbols {
		s := seriesBySymbol[sym]
		if s == nil {
			return nil, fmt.Errorf("%s: %w", sym, model.ErrEmptySeries)
		}
		for _, d := range s.Dates() {
			seen[d.Unix()] = d
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[int64]int, len(dates))
	for i, d := range dates {
		index[d.Unix()] = i
	}

	frame := &model.MultiSeriesFrame{
		Dates:   dates,
		Symbols: symbols,
		Rows:    make(map[model.Symbol][]model.Observation, len(symbols)),
	}
	for _, sym := range symbols {
		rows := make([]model.Observation, len(dates))
		for i, d := range dates {
			rows[i] = absent(d)
		}
		for _, bar := range seriesBySymbol[sym].Bars {
			rows[index[bar.Time.Unix()]] = model.Observation{OHLCV: bar, Present: true}
		}
		frame.Rows[sym] = rows
	}
	return frame, nil
}

// AlignRange clips every series to [from, to] before aligning. A symbol with
// no observations in range keeps an all-absent column.
func AlignRange(seriesBySymbol map[model.Symbol]*model.PriceSeries, from, to time.Time) (*model.MultiSeriesFrame, error) {
	clipped := make(map[model.Symbol]*model.PriceSeries, len(seriesBySymbol))
	for sym, s := range seriesBySymbol {
		if s == nil {
			return nil, fmt.Errorf("%s: %w", sym, model.ErrEmptySeries)
		}
		clipped[sym] = s.Between(from, to)
	}
	return Align(clipped)
}

// SymbolTail is the tabular reduction of one symbol.
type SymbolTail struct {
	Symbol model.Symbol
	Rows   []model.OHLCV
}

// Tail returns the last n present observations of each symbol, sorted by
// symbol. n <= 0 means DefaultTail.
func Tail(frame *model.MultiSeriesFrame, n int) []SymbolTail {
	if n <= 0 {
		n = DefaultTail
	}
	out := make([]SymbolTail, 0, len(frame.Symbols))
	for _, sym := range frame.Symbols {
		rows := frame.Rows[sym]
		var picked []model.OHLCV
		for i := len(rows) - 1; i >= 0 && len(picked) < n; i-- {
			if rows[i].Present {
				picked = append(picked, rows[i].OHLCV)
			}
		}
		for l, r := 0, len(picked)-1; l < r; l, r = l+1, r-1 {
			picked[l], picked[r] = picked[r], picked[l]
		}
		out = append(out, SymbolTail{Symbol: sym, Rows: picked})
	}
	return out
}

// Closes returns one symbol's close column on the frame axis, NaN where absent.
func Closes(frame *model.MultiSeriesFrame, sym model.Symbol) ([]float64, error) {
	rows, ok := frame.Column(sym)
	if !ok {
		return nil, &model.MissingChannelError{Channel: string(sym)}
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if r.Present {
			out[i] = r.Close
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// Result is the outcome of one symbol in Each.
type Result[T any] struct {
	Symbol model.Symbol
	Value  T
	Err    error
}

// Each runs fn for every symbol on its own goroutine, passing a private copy
// of the series. Results come back sorted by symbol; the returned error is
// the first failure in that order.
func Each[T any](seriesBySymbol map[model.Symbol]*model.PriceSeries, fn func(model.Symbol, *model.PriceSeries) (T, error)) ([]Result[T], error) {
	symbols := sortedSymbols(seriesBySymbol)
	results := make([]Result[T], len(symbols))

	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym model.Symbol, s *model.PriceSeries) {
			defer wg.Done()
			results[i].Symbol = sym
			if s == nil {
				results[i].Err = fmt.Errorf("%s: %w", sym, model.ErrEmptySeries)
				return
			}
			results[i].Value, results[i].Err = fn(sym, s.Clone())
		}(i, sym, seriesBySymbol[sym])
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}

func sortedSymbols(m map[model.Symbol]*model.PriceSeries) []model.Symbol {
	out := make([]model.Symbol, 0, len(m))
	for sym := range m {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func absent(d time.Time) model.Observation {
	nan := math.NaN()
	return model.Observation{OHLCV: model.OHLCV{Time: d, Open: nan, High: nan, Low: nan, Close: nan, Volume: nan}}
}
