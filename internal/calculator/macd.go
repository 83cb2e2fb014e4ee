package calculator

import "StockLens/internal/model"

// Standard MACD spans.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDLines holds the MACD line, its signal line and their difference.
type MACDLines struct {
	MACD   []float64
	Signal []float64
	Hist   []float64
}

// CalculateMACD computes EMA(fast) - EMA(slow) and its EMA(signal). Both lines use the
// recursive EMA, so they are defined from the first observation.
func CalculateMACD(values []float64, fast, slow, signal int) (MACDLines, error) {
	fastEMA, err := CalculateEMA(values, fast)
	if err != nil {
		return MACDLines{}, model.NewConfigurationError("fast", fast)
	}
	slowEMA, err := CalculateEMA(values, slow)
	if err != nil {
		return MACDLines{}, model.NewConfigurationError("slow", slow)
	}
	if signal <= 0 {
		return MACDLines{}, model.NewConfigurationError("signal", signal)
	}

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig, _ := CalculateEMA(line, signal)
	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - sig[i]
	}
	return MACDLines{MACD: line, Signal: sig, Hist: hist}, nil
}
