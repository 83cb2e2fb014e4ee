package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPriceSeries_SortsAndNormalizes(t *testing.T) {
	bars := []OHLCV{
		{Time: time.Date(2024, 3, 3, 15, 30, 0, 0, time.UTC), Close: 3},
		{Time: day(1), Close: 1},
		{Time: day(2), Close: 2},
	}
	s, err := NewPriceSeries("AAPL", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []float64{1, 2, 3} {
		if s.Bars[i].Close != want {
			t.Errorf("bar %d: close=%v, want %v", i, s.Bars[i].Close, want)
		}
	}
	if !s.Bars[2].Time.Equal(day(3)) {
		t.Errorf("expected time normalized to midnight, got %v", s.Bars[2].Time)
	}
	// input must not be touched
	if bars[0].Close != 3 {
		t.Error("caller slice was reordered")
	}
}

func TestNewPriceSeries_Rejects(t *testing.T) {
	if _, err := NewPriceSeries("X", nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("empty: expected ErrEmptySeries, got %v", err)
	}

	allNaN := []OHLCV{{Time: day(1), Close: math.NaN()}, {Time: day(2), Close: math.NaN()}}
	if _, err := NewPriceSeries("X", allNaN); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("all NaN: expected ErrEmptySeries, got %v", err)
	}

	dup := []OHLCV{{Time: day(1), Close: 1}, {Time: day(1).Add(time.Hour), Close: 2}}
	if _, err := NewPriceSeries("X", dup); !errors.Is(err, ErrDuplicateDate) {
		t.Errorf("duplicate: expected ErrDuplicateDate, got %v", err)
	}
}

func TestNewPriceSeries_KeepsNaNSlots(t *testing.T) {
	s, err := NewPriceSeries("X", []OHLCV{
		{Time: day(1), Close: 1},
		{Time: day(2), Close: math.NaN()},
		{Time: day(3), Close: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 bars, got %d", s.Len())
	}
	if !math.IsNaN(s.Closes()[1]) {
		t.Error("expected NaN close kept in place")
	}
}

func TestPriceSeries_Channel(t *testing.T) {
	s, _ := NewPriceSeries("X", []OHLCV{{Time: day(1), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}})

	vol, err := s.Channel(ChannelVolume)
	if err != nil || vol[0] != 100 {
		t.Errorf("volume: got %v, %v", vol, err)
	}

	_, err = s.Channel("vwap")
	var mce *MissingChannelError
	if !errors.As(err, &mce) || mce.Channel != "vwap" {
		t.Errorf("expected MissingChannelError for vwap, got %v", err)
	}
	if !errors.Is(err, ErrMissingChannel) {
		t.Error("expected error to unwrap to ErrMissingChannel")
	}
}

func TestPriceSeries_BetweenAndTail(t *testing.T) {
	var bars []OHLCV
	for d := 1; d <= 10; d++ {
		bars = append(bars, OHLCV{Time: day(d), Close: float64(d)})
	}
	s, _ := NewPriceSeries("X", bars)

	sub := s.Between(day(3), day(5))
	if sub.Len() != 3 || sub.Bars[0].Close != 3 || sub.Bars[2].Close != 5 {
		t.Errorf("Between(3,5): got %+v", sub.Bars)
	}
	sub.Bars[0].Close = 99
	if s.Bars[2].Close != 3 {
		t.Error("Between result shares memory with the source")
	}

	if got := s.Between(day(20), day(25)).Len(); got != 0 {
		t.Errorf("expected empty range, got %d bars", got)
	}

	tail := s.Tail(3)
	if len(tail) != 3 || tail[0].Close != 8 {
		t.Errorf("Tail(3): got %+v", tail)
	}
	if len(s.Tail(50)) != 10 {
		t.Error("Tail larger than series should return everything")
	}
}
