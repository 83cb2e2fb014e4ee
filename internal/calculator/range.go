package calculator

import (
	"math"

	"StockLens/internal/model"
)

// Trading-day lookbacks for the common ranges.
const (
	YearTradingDays  = 252
	MonthTradingDays = 22
)

// PriceRange is the high/low envelope of the trailing bars and where the
// latest close sits inside it.
type PriceRange struct {
	Days     int
	High     float64
	Low      float64
	Position float64 // 0 at the low, 1 at the high
}

// CalculateRange scans up to the last days bars. Bars with an undefined
// high or low are skipped; if none remain the series is treated as empty.
func CalculateRange(bars []model.OHLCV, days int) (PriceRange, error) {
	if days < 1 {
		return PriceRange{}, model.NewConfigurationError("days", days)
	}
	if len(bars) == 0 {
		return PriceRange{}, model.ErrEmptySeries
	}
	start := len(bars) - days
	if start < 0 {
		start = 0
	}
	high, low := math.Inf(-1), math.Inf(1)
	for _, b := range bars[start:] {
		if model.IsDefined(b.High) && b.High > high {
			high = b.High
		}
		if model.IsDefined(b.Low) && b.Low < low {
			low = b.Low
		}
	}
	if math.IsInf(high, 0) || math.IsInf(low, 0) {
		return PriceRange{}, model.ErrEmptySeries
	}
	return PriceRange{
		Days:     len(bars) - start,
		High:     high,
		Low:      low,
		Position: RangePosition(bars[len(bars)-1].Close, high, low),
	}, nil
}

// RangePosition clamps (current-low)/(high-low) into [0, 1]. A flat range is
// 0.5 and an undefined close is NaN.
func RangePosition(current, high, low float64) float64 {
	if !model.IsDefined(current) {
		return math.NaN()
	}
	if high <= low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	return math.Max(0, math.Min(1, pos))
}
