// Package store provides data persistence for candle history, trade logs
// and performance snapshots.
package store

import (
	"context"
	"time"

	"neat-trader/internal/models"
)

// DataStore is the persistence interface used by the simulation engine and
// the CLI.
type DataStore interface {
	// SaveCandles upserts candle history for a symbol and timeframe.
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	// GetCandles returns candle history for a symbol and timeframe inside
	// [from, to], ordered by timestamp ascending.
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	// CandleRange returns the first and last stored candle timestamps for
	// a symbol and timeframe.
	CandleRange(ctx context.Context, symbol, timeframe string) (first, last time.Time, err error)

	// SaveTrades appends the trade history of one evaluation run.
	SaveTrades(ctx context.Context, runID string, trades []models.Trade) error
	// GetTrades returns the trade history of a run, ordered by entry time.
	GetTrades(ctx context.Context, runID string) ([]models.Trade, error)

	// SaveStats stores the performance snapshot of a run.
	SaveStats(ctx context.Context, runID string, stats *models.Stats) error
	// GetStats returns the stored performance snapshot of a run.
	GetStats(ctx context.Context, runID string) (*models.Stats, error)

	// Close releases the underlying resources.
	Close() error
}
