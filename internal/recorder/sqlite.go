package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"StockLens/internal/model"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL UNIQUE,
			created_at    INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			start_date    TEXT,
			end_date      TEXT,
			as_of         TEXT,
			close         REAL,
			rsi           REAL,
			macd          REAL,
			macd_signal   REAL,
			ma20          REAL,
			ma50          REAL,
			rsi_label     TEXT,
			macd_label    TEXT,
			trend_label   TEXT,
			strategy      TEXT,
			anomaly_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, created_at)`,

		`CREATE TABLE IF NOT EXISTS anomaly_points (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL,
			score  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_run ON anomaly_points(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := toRow(snap)
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO analysis_runs
		(run_id, created_at, symbol, start_date, end_date, as_of,
		 close, rsi, macd, macd_signal, ma20, ma50,
		 rsi_label, macd_label, trend_label, strategy, anomaly_count)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		row.RunID, row.CreatedAt, row.Symbol, row.StartDate, row.EndDate, row.AsOf,
		row.Close, row.RSI, row.MACD, row.Signal, row.MA20, row.MA50,
		row.RSILabel, row.MACDLabel, row.TrendLabel, row.Strategy, row.AnomalyCount,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range snap.Anomalies {
		if _, err := tx.Exec(`INSERT INTO anomaly_points (run_id, date, close, score) VALUES (?,?,?,?)`,
			row.RunID, formatDate(p.Date), nullable(p.Close), nullable(p.Score),
		); err != nil {
			return fmt.Errorf("insert anomaly point: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) History(symbol model.Symbol, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT run_id, created_at, symbol, start_date, end_date, as_of,
		close, rsi, macd, macd_signal, ma20, ma50,
		rsi_label, macd_label, trend_label, strategy, anomaly_count
		FROM analysis_runs WHERE symbol = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		string(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var row snapshotRow
		if err := rows.Scan(&row.RunID, &row.CreatedAt, &row.Symbol, &row.StartDate, &row.EndDate, &row.AsOf,
			&row.Close, &row.RSI, &row.MACD, &row.Signal, &row.MA20, &row.MA50,
			&row.RSILabel, &row.MACDLabel, &row.TrendLabel, &row.Strategy, &row.AnomalyCount); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, row.snapshot())
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
