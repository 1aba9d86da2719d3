package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
	"neat-trader/internal/stats"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) a SQLite-backed store at
// the given path. ":memory:" yields an in-process store, which the tests
// use.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errs.ErrDatabaseError, dbPath, err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		spread REAL NOT NULL DEFAULT 0,
		UNIQUE(symbol, timeframe, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_lookup
		ON candles(symbol, timeframe, timestamp);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		side TEXT NOT NULL,
		size REAL NOT NULL,
		entry_time INTEGER NOT NULL,
		exit_time INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		pnl REAL NOT NULL,
		pnl_percent REAL NOT NULL,
		pnl_net REAL NOT NULL,
		pnl_net_percent REAL NOT NULL,
		fees REAL NOT NULL,
		duration INTEGER NOT NULL,
		closed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, entry_time);

	CREATE TABLE IF NOT EXISTS stats_snapshots (
		run_id TEXT PRIMARY KEY,
		snapshot TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: init schema: %v", errs.ErrDatabaseError, err)
	}
	return nil
}

// SaveCandles upserts candle history for a symbol and timeframe.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", errs.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume, spread)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timeframe, timestamp) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume, spread = excluded.spread`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", errs.ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, timeframe, c.Timestamp.Unix(),
			c.Open, c.High, c.Low, c.Close, c.Volume, c.Spread); err != nil {
			return fmt.Errorf("%w: insert candle: %v", errs.ErrDatabaseError, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", errs.ErrDatabaseError, err)
	}
	return nil
}

// GetCandles returns candle history for a symbol and timeframe inside
// [from, to], ordered by timestamp ascending.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume, spread
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC`,
		symbol, timeframe, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("%w: query candles: %v", errs.ErrDatabaseError, err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		var ts int64
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Spread); err != nil {
			return nil, fmt.Errorf("%w: scan candle: %v", errs.ErrDatabaseError, err)
		}
		c.Timestamp = time.Unix(ts, 0).UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate candles: %v", errs.ErrDatabaseError, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s %s", errs.ErrDataNotFound, symbol, timeframe)
	}
	return candles, nil
}

// CandleRange returns the first and last stored candle timestamps for a
// symbol and timeframe.
func (s *SQLiteStore) CandleRange(ctx context.Context, symbol, timeframe string) (time.Time, time.Time, error) {
	var first, last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(timestamp), MAX(timestamp) FROM candles
		WHERE symbol = ? AND timeframe = ?`,
		symbol, timeframe).Scan(&first, &last)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: query range: %v", errs.ErrDatabaseError, err)
	}
	if !first.Valid || !last.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: no candles for %s %s", errs.ErrDataNotFound, symbol, timeframe)
	}
	return time.Unix(first.Int64, 0).UTC(), time.Unix(last.Int64, 0).UTC(), nil
}

// SaveTrades appends the trade history of one evaluation run.
func (s *SQLiteStore) SaveTrades(ctx context.Context, runID string, trades []models.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", errs.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, side, size, entry_time, exit_time, entry_price, exit_price,
			pnl, pnl_percent, pnl_net, pnl_net_percent, fees, duration, closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", errs.ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, t := range trades {
		closed := 0
		if t.Closed {
			closed = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, string(t.Side), t.Size,
			t.EntryTime.Unix(), t.ExitTime.Unix(), t.EntryPrice, t.ExitPrice,
			t.PnL, t.PnLPercent, t.PnLNet, t.PnLNetPercent, t.Fees, t.Duration, closed); err != nil {
			return fmt.Errorf("%w: insert trade: %v", errs.ErrDatabaseError, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", errs.ErrDatabaseError, err)
	}
	return nil
}

// GetTrades returns the trade history of a run, ordered by entry time.
func (s *SQLiteStore) GetTrades(ctx context.Context, runID string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT side, size, entry_time, exit_time, entry_price, exit_price,
			pnl, pnl_percent, pnl_net, pnl_net_percent, fees, duration, closed
		FROM trades WHERE run_id = ? ORDER BY entry_time ASC, id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: query trades: %v", errs.ErrDatabaseError, err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var side string
		var entry, exit int64
		var closed int
		if err := rows.Scan(&side, &t.Size, &entry, &exit, &t.EntryPrice, &t.ExitPrice,
			&t.PnL, &t.PnLPercent, &t.PnLNet, &t.PnLNetPercent, &t.Fees, &t.Duration, &closed); err != nil {
			return nil, fmt.Errorf("%w: scan trade: %v", errs.ErrDatabaseError, err)
		}
		t.Side = models.Side(side)
		t.EntryTime = time.Unix(entry, 0).UTC()
		t.ExitTime = time.Unix(exit, 0).UTC()
		t.Closed = closed != 0
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate trades: %v", errs.ErrDatabaseError, err)
	}
	return trades, nil
}

// SaveStats stores the performance snapshot of a run as its flat key/value
// form.
func (s *SQLiteStore) SaveStats(ctx context.Context, runID string, st *models.Stats) error {
	payload, err := json.Marshal(stats.ToRepr(st))
	if err != nil {
		return fmt.Errorf("%w: marshal stats: %v", errs.ErrDatabaseError, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stats_snapshots (run_id, snapshot, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			snapshot = excluded.snapshot, created_at = excluded.created_at`,
		runID, string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: save stats: %v", errs.ErrDatabaseError, err)
	}
	return nil
}

// GetStats returns the stored performance snapshot of a run.
func (s *SQLiteStore) GetStats(ctx context.Context, runID string) (*models.Stats, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM stats_snapshots WHERE run_id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no stats for run %s", errs.ErrDataNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query stats: %v", errs.ErrDatabaseError, err)
	}

	var repr map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &repr); err != nil {
		return nil, fmt.Errorf("%w: unmarshal stats: %v", errs.ErrDatabaseError, err)
	}
	return stats.FromRepr(repr)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
