package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"01/02/2006",
}

// FromRecords builds a PriceSeries from tabular rows (e.g. CSV). Header names
// are matched case-insensitively against date/open/high/low/close/volume once;
// "adj close" is used only when there is no close column. Blank, "null" and
// "nan" cells become NaN.
func FromRecords(symbol Symbol, header []string, rows [][]string) (*PriceSeries, error) {
	cols := map[string]int{}
	adjClose := -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch name {
		case "date", "datetime", "timestamp":
			cols["date"] = i
		case ChannelOpen, ChannelHigh, ChannelLow, ChannelClose, ChannelVolume:
			cols[name] = i
		case "adj close", "adj_close", "adjclose":
			adjClose = i
		}
	}
	if _, ok := cols["date"]; !ok {
		return nil, &MissingChannelError{Channel: "date"}
	}
	if _, ok := cols[ChannelClose]; !ok {
		if adjClose < 0 {
			return nil, &MissingChannelError{Channel: ChannelClose}
		}
		cols[ChannelClose] = adjClose
	}

	bars := make([]OHLCV, 0, len(rows))
	for n, row := range rows {
		ts, err := parseDate(cell(row, cols["date"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		bar := OHLCV{Time: ts}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{ChannelOpen, &bar.Open},
			{ChannelHigh, &bar.High},
			{ChannelLow, &bar.Low},
			{ChannelClose, &bar.Close},
			{ChannelVolume, &bar.Volume},
		} {
			idx, ok := cols[f.name]
			if !ok {
				*f.dst = math.NaN()
				continue
			}
			v, err := parseNumber(cell(row, idx))
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", n+1, f.name, err)
			}
			*f.dst = v
		}
		bars = append(bars, bar)
	}
	return NewPriceSeries(symbol, bars)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNumber(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "", "null", "nan", "none":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrMalformedInput)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: %w", s, ErrMalformedInput)
}
