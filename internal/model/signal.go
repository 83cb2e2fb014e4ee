package model

import "time"

// InsufficientData is shared by every label kind when the inputs are undefined.
const InsufficientData = "Insufficient Data"

// RSILabel classifies the latest RSI value.
type RSILabel string

const (
	RSIOverbought   RSILabel = "Overbought"
	RSIOversold     RSILabel = "Oversold"
	RSINeutral      RSILabel = "Neutral"
	RSIInsufficient RSILabel = InsufficientData
)

// MACDLabel classifies MACD against its signal line.
type MACDLabel string

const (
	MACDBullish      MACDLabel = "Bullish"
	MACDBearish      MACDLabel = "Bearish"
	MACDInsufficient MACDLabel = InsufficientData
)

// TrendLabel classifies price against MA20 and MA50.
type TrendLabel string

const (
	TrendBullish      TrendLabel = "Bullish Trend"
	TrendBearish      TrendLabel = "Bearish Trend"
	TrendMixed        TrendLabel = "Mixed"
	TrendInsufficient TrendLabel = InsufficientData
)

// Interpretation is the qualitative reading of the latest indicator values.
type Interpretation struct {
	RSI   RSILabel
	MACD  MACDLabel
	Trend TrendLabel
}

// Anomaly is one flagged observation. Score is NaN for strategies that do
// not produce one.
type Anomaly struct {
	Date  time.Time
	Close float64
	Score float64
}
