package recorder

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"StockLens/internal/model"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id            BIGSERIAL PRIMARY KEY,
		run_id        TEXT NOT NULL UNIQUE,
		created_at    BIGINT NOT NULL,
		symbol        TEXT NOT NULL,
		start_date    TEXT,
		end_date      TEXT,
		as_of         TEXT,
		close         DOUBLE PRECISION,
		rsi           DOUBLE PRECISION,
		macd          DOUBLE PRECISION,
		macd_signal   DOUBLE PRECISION,
		ma20          DOUBLE PRECISION,
		ma50          DOUBLE PRECISION,
		rsi_label     TEXT,
		macd_label    TEXT,
		trend_label   TEXT,
		strategy      TEXT,
		anomaly_count INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, created_at)`,
	`CREATE TABLE IF NOT EXISTS anomaly_points (
		id     BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
		date   TEXT NOT NULL,
		close  DOUBLE PRECISION,
		score  DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_points_run ON anomaly_points(run_id)`,
}

// PostgresRecorder persists analysis history to PostgreSQL.
type PostgresRecorder struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewPostgresRecorder connects with dsn and creates the tables if needed.
func NewPostgresRecorder(dsn string, log zerolog.Logger) (*PostgresRecorder, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, s := range postgresSchema {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	r := &PostgresRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	r.log.Info().Msg("postgres recorder connected")
	return r, nil
}

func (r *PostgresRecorder) RecordAnalysis(snap *Snapshot) error {
	row := toRow(snap)
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO analysis_runs
		(run_id, created_at, symbol, start_date, end_date, as_of,
		 close, rsi, macd, macd_signal, ma20, ma50,
		 rsi_label, macd_label, trend_label, strategy, anomaly_count)
		VALUES (:run_id, :created_at, :symbol, :start_date, :end_date, :as_of,
		 :close, :rsi, :macd, :macd_signal, :ma20, :ma50,
		 :rsi_label, :macd_label, :trend_label, :strategy, :anomaly_count)`, row); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range snap.Anomalies {
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO anomaly_points (run_id, date, close, score) VALUES (?,?,?,?)`),
			row.RunID, formatDate(p.Date), nullable(p.Close), nullable(p.Score),
		); err != nil {
			return fmt.Errorf("insert anomaly point: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PostgresRecorder) History(symbol model.Symbol, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []snapshotRow
	if err := r.db.Select(&rows, `SELECT run_id, created_at, symbol, start_date, end_date, as_of,
		close, rsi, macd, macd_signal, ma20, ma50,
		rsi_label, macd_label, trend_label, strategy, anomaly_count
		FROM analysis_runs WHERE symbol = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		string(symbol), limit); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	out := make([]Snapshot, len(rows))
	for i, row := range rows {
		out[i] = row.snapshot()
	}
	return out, nil
}

func (r *PostgresRecorder) Close() error {
	r.log.Info().Msg("closing postgres recorder")
	return r.db.Close()
}
