package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"neat-trader/internal/indicators"
	"neat-trader/internal/models"
	"neat-trader/internal/trading"
)

// defaultMaxHistory bounds the candle history a live session retains. It
// comfortably covers every indicator and extremum lookback in use.
const defaultMaxHistory = 1000

// LiveSession steps a single trader on candles arriving from a terminal and
// reports each step's decision as the integer contract the terminal
// understands: 0 wait, 1 open long, 2 open short, 3 close.
type LiveSession struct {
	mu         sync.Mutex
	trader     *trading.Trader
	indicators []indicators.Indicator
	kinds      []models.PositionInfoKind
	fxRate     float64
	maxHistory int
	history    []models.Candle
	logger     zerolog.Logger
}

// NewLiveSession creates a session around one trader.
func NewLiveSession(trader *trading.Trader, inds []indicators.Indicator, kinds []models.PositionInfoKind, logger zerolog.Logger) *LiveSession {
	return &LiveSession{
		trader:     trader,
		indicators: inds,
		kinds:      kinds,
		fxRate:     1,
		maxHistory: defaultMaxHistory,
		logger:     logger,
	}
}

// SetFxRate updates the quote-to-account conversion rate before the next
// candle is processed.
func (s *LiveSession) SetFxRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rate > 0 {
		s.fxRate = rate
	}
}

// OnCandle processes one just-closed candle and returns the decision code
// for the terminal to act on. Safe for use from a single feed goroutine
// concurrent with status readers.
func (s *LiveSession) OnCandle(candle models.Candle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, candle)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}

	if err := s.trader.Update(s.history); err != nil {
		return models.DecisionWait, err
	}
	if dead, reason := s.trader.Dead(); dead {
		s.logger.Warn().Str("reason", reason).Msg("Session trader is dead")
		return models.DecisionWait, nil
	}

	values := make([]float64, len(s.indicators))
	for j, ind := range s.indicators {
		values[j] = indicators.Latest(ind, s.history)
	}
	s.trader.Look(values, s.fxRate, s.kinds)

	if _, err := s.trader.Think(); err != nil {
		return models.DecisionWait, err
	}
	action, err := s.trader.Trade()
	if err != nil {
		return models.DecisionWait, err
	}
	return models.DecisionCode(action), nil
}

// Trader exposes the underlying trader for status reporting.
func (s *LiveSession) Trader() *trading.Trader {
	return s.trader
}

// Stats returns the session's performance snapshot so far.
func (s *LiveSession) Stats() *models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trader.CalculateStats()
}
