// Package engine drives trader evaluation: a worker pool, a batch runner
// for whole populations and a live session for single strategies.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/indicators"
	"neat-trader/internal/models"
	"neat-trader/internal/trading"
)

// Evaluation is the outcome of running one trader over the candle history.
type Evaluation struct {
	Trader *trading.Trader
	Stats  *models.Stats
	Err    error
}

// Runner evaluates trader populations against a fixed candle history. The
// indicator matrix is computed once per history and shared read-only by all
// traders.
type Runner struct {
	pool       *WorkerPool
	logger     zerolog.Logger
	indicators []indicators.Indicator
	kinds      []models.PositionInfoKind
	fxRate     float64
}

// NewRunner creates a runner on the given pool. fxRate converts quote
// currency to account currency; pass 1 when they are the same.
func NewRunner(pool *WorkerPool, logger zerolog.Logger, inds []indicators.Indicator, kinds []models.PositionInfoKind, fxRate float64) *Runner {
	if fxRate == 0 {
		fxRate = 1
	}
	return &Runner{
		pool:       pool,
		logger:     logger,
		indicators: inds,
		kinds:      kinds,
		fxRate:     fxRate,
	}
}

// IndicatorMatrix precomputes the per-step indicator values for a candle
// history: one row per candle, one column per indicator. Steps before an
// indicator has warmed up hold its neutral value.
func (r *Runner) IndicatorMatrix(candles []models.Candle) [][]float64 {
	series := make([][]float64, len(r.indicators))
	for j, ind := range r.indicators {
		values, err := ind.Calculate(candles)
		if err != nil || len(values) != len(candles) {
			values = nil
		}
		series[j] = values
	}

	matrix := make([][]float64, len(candles))
	for i := range candles {
		row := make([]float64, len(r.indicators))
		for j, ind := range r.indicators {
			if series[j] == nil || i < warmup(ind) {
				row[j] = ind.Neutral()
			} else {
				row[j] = series[j][i]
			}
		}
		matrix[i] = row
	}
	return matrix
}

func warmup(ind indicators.Indicator) int {
	p := ind.Period()
	if p < 0 {
		return 0
	}
	return p
}

// Run evaluates every trader over the candle history in parallel and
// returns one Evaluation per trader, index-aligned with the input. Traders
// are independent; each is stepped single-threaded on one worker.
func (r *Runner) Run(ctx context.Context, candles []models.Candle, traders []*trading.Trader) []Evaluation {
	results := make([]Evaluation, len(traders))
	if len(candles) == 0 {
		for i, tr := range traders {
			results[i] = Evaluation{Trader: tr, Err: errs.NewDataError("candles", "", "empty candle history", nil)}
		}
		return results
	}

	matrix := r.IndicatorMatrix(candles)

	var wg sync.WaitGroup
	for i, tr := range traders {
		i, tr := i, tr
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = r.evaluate(ctx, candles, matrix, tr)
		}
		if !r.pool.Submit(task) {
			wg.Done()
			results[i] = Evaluation{Trader: tr, Err: errs.Wrap(context.Canceled, "worker pool stopped")}
		}
	}
	wg.Wait()

	return results
}

// evaluate steps one trader through the full history.
func (r *Runner) evaluate(ctx context.Context, candles []models.Candle, matrix [][]float64, tr *trading.Trader) Evaluation {
	for i := range candles {
		select {
		case <-ctx.Done():
			return Evaluation{Trader: tr, Stats: tr.CalculateStats(), Err: ctx.Err()}
		default:
		}

		if err := tr.Update(candles[:i+1]); err != nil {
			return Evaluation{Trader: tr, Stats: tr.CalculateStats(), Err: err}
		}
		if dead, _ := tr.Dead(); dead {
			break
		}

		tr.Look(matrix[i], r.fxRate, r.kinds)
		if _, err := tr.Think(); err != nil {
			return Evaluation{Trader: tr, Stats: tr.CalculateStats(), Err: err}
		}
		if _, err := tr.Trade(); err != nil {
			return Evaluation{Trader: tr, Stats: tr.CalculateStats(), Err: err}
		}
	}

	stats := tr.CalculateStats()
	if dead, reason := tr.Dead(); dead {
		r.logger.Debug().
			Str("reason", reason).
			Int("lifespan", tr.Lifespan()).
			Msg("Trader died during evaluation")
	}
	return Evaluation{Trader: tr, Stats: stats}
}
