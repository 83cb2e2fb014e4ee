package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/model"
)

// Snapshot holds the outcome of one analysis run.
type Snapshot struct {
	RunID          string
	Symbol         model.Symbol
	CreatedAt      time.Time
	Start, End     time.Time
	AsOf           time.Time // date of the latest bar
	Close          float64
	RSI            float64
	MACD           float64
	Signal         float64
	MA20           float64
	MA50           float64
	Interpretation model.Interpretation
	Strategy       string
	AnomalyCount   int
	Anomalies      []model.Anomaly
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(snap *Snapshot) error
	// History returns the latest runs for symbol, newest first, without
	// their anomaly points.
	History(symbol model.Symbol, limit int) ([]Snapshot, error)
	Close() error
}

// Open builds the recorder for driver: "sqlite" (at sqlitePath), "postgres"
// (at dsn) or "none".
func Open(driver, sqlitePath, dsn string, log zerolog.Logger) (Recorder, error) {
	switch driver {
	case "", "none":
		return NewNoopRecorder(), nil
	case "sqlite":
		if dir := filepath.Dir(sqlitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return NewSQLiteRecorder(sqlitePath, log)
	case "postgres":
		return NewPostgresRecorder(dsn, log)
	}
	return nil, model.NewConfigurationError("driver", driver)
}

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordAnalysis(*Snapshot) error { return nil }

func (NoopRecorder) History(model.Symbol, int) ([]Snapshot, error) { return nil, nil }

func (NoopRecorder) Close() error { return nil }

// snapshotRow is the flat table form shared by both SQL backends.
type snapshotRow struct {
	RunID        string          `db:"run_id"`
	CreatedAt    int64           `db:"created_at"`
	Symbol       string          `db:"symbol"`
	StartDate    string          `db:"start_date"`
	EndDate      string          `db:"end_date"`
	AsOf         string          `db:"as_of"`
	Close        sql.NullFloat64 `db:"close"`
	RSI          sql.NullFloat64 `db:"rsi"`
	MACD         sql.NullFloat64 `db:"macd"`
	Signal       sql.NullFloat64 `db:"macd_signal"`
	MA20         sql.NullFloat64 `db:"ma20"`
	MA50         sql.NullFloat64 `db:"ma50"`
	RSILabel     string          `db:"rsi_label"`
	MACDLabel    string          `db:"macd_label"`
	TrendLabel   string          `db:"trend_label"`
	Strategy     string          `db:"strategy"`
	AnomalyCount int             `db:"anomaly_count"`
}

func toRow(s *Snapshot) snapshotRow {
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	count := s.AnomalyCount
	if len(s.Anomalies) > count {
		count = len(s.Anomalies)
	}
	return snapshotRow{
		RunID:        s.RunID,
		CreatedAt:    created.Unix(),
		Symbol:       string(s.Symbol),
		StartDate:    formatDate(s.Start),
		EndDate:      formatDate(s.End),
		AsOf:         formatDate(s.AsOf),
		Close:        nullable(s.Close),
		RSI:          nullable(s.RSI),
		MACD:         nullable(s.MACD),
		Signal:       nullable(s.Signal),
		MA20:         nullable(s.MA20),
		MA50:         nullable(s.MA50),
		RSILabel:     string(s.Interpretation.RSI),
		MACDLabel:    string(s.Interpretation.MACD),
		TrendLabel:   string(s.Interpretation.Trend),
		Strategy:     s.Strategy,
		AnomalyCount: count,
	}
}

func (r snapshotRow) snapshot() Snapshot {
	return Snapshot{
		RunID:     r.RunID,
		Symbol:    model.Symbol(r.Symbol),
		CreatedAt: time.Unix(r.CreatedAt, 0),
		Start:     parseDate(r.StartDate),
		End:       parseDate(r.EndDate),
		AsOf:      parseDate(r.AsOf),
		Close:     value(r.Close),
		RSI:       value(r.RSI),
		MACD:      value(r.MACD),
		Signal:    value(r.Signal),
		MA20:      value(r.MA20),
		MA50:      value(r.MA50),
		Interpretation: model.Interpretation{
			RSI:   model.RSILabel(r.RSILabel),
			MACD:  model.MACDLabel(r.MACDLabel),
			Trend: model.TrendLabel(r.TrendLabel),
		},
		Strategy:     r.Strategy,
		AnomalyCount: r.AnomalyCount,
	}
}

// nullable stores undefined values as SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func value(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
