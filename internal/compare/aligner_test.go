package compare

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"StockLens/internal/model"
)

func d(n int) time.Time { return time.Date(2024, 6, n, 0, 0, 0, 0, time.UTC) }

func mustSeries(t *testing.T, sym model.Symbol, closes map[int]float64) *model.PriceSeries {
	t.Helper()
	var bars []model.OHLCV
	for day, c := range closes {
		bars = append(bars, model.OHLCV{Time: d(day), Open: c, High: c, Low: c, Close: c, Volume: 10})
	}
	s, err := model.NewPriceSeries(sym, bars)
	if err != nil {
		t.Fatalf("build %s: %v", sym, err)
	}
	return s
}

func TestAlign_UnionWithGaps(t *testing.T) {
	in := map[model.Symbol]*model.PriceSeries{
		"A": mustSeries(t, "A", map[int]float64{1: 10, 3: 30}),
		"B": mustSeries(t, "B", map[int]float64{1: 100, 2: 200}),
	}
	frame, err := Align(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Dates) != 3 {
		t.Fatalf("axis length = %d, want 3", len(frame.Dates))
	}
	for i, want := range []time.Time{d(1), d(2), d(3)} {
		if !frame.Dates[i].Equal(want) {
			t.Errorf("axis[%d] = %v, want %v", i, frame.Dates[i], want)
		}
	}
	if frame.Symbols[0] != "A" || frame.Symbols[1] != "B" {
		t.Errorf("symbols not sorted: %v", frame.Symbols)
	}

	a, _ := Closes(frame, "A")
	b, _ := Closes(frame, "B")
	if a[0] != 10 || !math.IsNaN(a[1]) || a[2] != 30 {
		t.Errorf("A closes = %v, want [10 NaN 30]", a)
	}
	if b[0] != 100 || b[1] != 200 || !math.IsNaN(b[2]) {
		t.Errorf("B closes = %v, want [100 200 NaN]", b)
	}
	if frame.Rows["A"][1].Present || !frame.Rows["B"][1].Present {
		t.Error("presence flags wrong on d2")
	}
	// inputs untouched
	if in["A"].Len() != 2 || in["B"].Len() != 2 {
		t.Error("inputs were modified")
	}
}

func TestAlign_Errors(t *testing.T) {
	if _, err := Align(nil); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := Align(map[model.Symbol]*model.PriceSeries{"X": nil}); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("nil series: expected ErrEmptySeries, got %v", err)
	}
	frame, _ := Align(map[model.Symbol]*model.PriceSeries{"A": mustSeries(t, "A", map[int]float64{1: 1})})
	if _, err := Closes(frame, "ZZZ"); !errors.Is(err, model.ErrMissingChannel) {
		t.Errorf("unknown symbol: expected ErrMissingChannel, got %v", err)
	}
}

func TestAlignRange_Clips(t *testing.T) {
	in := map[model.Symbol]*model.PriceSeries{
		"A": mustSeries(t, "A", map[int]float64{1: 1, 2: 2, 3: 3, 4: 4}),
		"B": mustSeries(t, "B", map[int]float64{5: 5}),
	}
	frame, err := AlignRange(in, d(2), d(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Dates) != 2 {
		t.Fatalf("axis length = %d, want 2", len(frame.Dates))
	}
	for _, obs := range frame.Rows["B"] {
		if obs.Present {
			t.Error("B has no data in range, expected all-absent column")
		}
	}
}

func TestTail(t *testing.T) {
	closes := map[int]float64{}
	for i := 1; i <= 9; i++ {
		closes[i] = float64(i)
	}
	in := map[model.Symbol]*model.PriceSeries{
		"MSFT": mustSeries(t, "MSFT", closes),
		"AAPL": mustSeries(t, "AAPL", map[int]float64{2: 20, 8: 80}),
	}
	frame, _ := Align(in)

	tails := Tail(frame, 0)
	if len(tails) != 2 || tails[0].Symbol != "AAPL" || tails[1].Symbol != "MSFT" {
		t.Fatalf("expected tails sorted by symbol, got %+v", tails)
	}
	if len(tails[0].Rows) != 2 {
		t.Errorf("AAPL: %d rows, want 2 present observations", len(tails[0].Rows))
	}
	msft := tails[1].Rows
	if len(msft) != DefaultTail {
		t.Fatalf("MSFT: %d rows, want %d", len(msft), DefaultTail)
	}
	if msft[0].Close != 5 || msft[4].Close != 9 {
		t.Errorf("MSFT tail = %v..%v, want 5..9 ascending", msft[0].Close, msft[4].Close)
	}
}

func TestEach_DeterministicOrder(t *testing.T) {
	in := map[model.Symbol]*model.PriceSeries{}
	for _, sym := range []model.Symbol{"TSLA", "AAPL", "NVDA", "GOOG", "MSFT"} {
		in[sym] = mustSeries(t, sym, map[int]float64{1: 1, 2: 2})
	}
	for run := 0; run < 5; run++ {
		res, err := Each(in, func(sym model.Symbol, s *model.PriceSeries) (int, error) {
			s.Bars[0].Close = -1 // private copy
			return s.Len(), nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []model.Symbol{"AAPL", "GOOG", "MSFT", "NVDA", "TSLA"}
		for i, r := range res {
			if r.Symbol != want[i] || r.Value != 2 {
				t.Errorf("run %d: result %d = %+v, want %s/2", run, i, r, want[i])
			}
		}
	}
	if in["AAPL"].Bars[0].Close != 1 {
		t.Error("Each leaked caller series to fn")
	}
}

func TestEach_FirstErrorBySymbol(t *testing.T) {
	in := map[model.Symbol]*model.PriceSeries{
		"B": mustSeries(t, "B", map[int]float64{1: 1}),
		"C": mustSeries(t, "C", map[int]float64{1: 1}),
		"A": mustSeries(t, "A", map[int]float64{1: 1}),
	}
	_, err := Each(in, func(sym model.Symbol, _ *model.PriceSeries) (struct{}, error) {
		if sym == "A" {
			return struct{}{}, nil
		}
		return struct{}{}, fmt.Errorf("boom %s", sym)
	})
	if err == nil || err.Error() != "boom B" {
		t.Errorf("expected error from B, got %v", err)
	}
}
