package indicators

import (
	"fmt"

	"neat-trader/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Neutral() float64 {
	return 0
}

func (s *SMA) Calculate(candles []models.Candle) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(candles))
	closes := closePrices(candles)

	for i := s.period - 1; i < len(candles); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// EMA calculates Exponential Moving Average.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Neutral() float64 {
	return 0
}

func (e *EMA) Calculate(candles []models.Candle) ([]float64, error) {
	if e.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < e.period {
		return nil, ErrInsufficientData
	}
	return emaSeries(closePrices(candles), e.period), nil
}

// MACD calculates the MACD histogram (MACD line minus signal line) with the
// conventional 12/26 fast/slow pair; the constructor period sets the signal
// length.
type MACD struct {
	fast   int
	slow   int
	signal int
}

// NewMACD creates a new MACD indicator with the given signal period.
// A zero period falls back to the conventional 9.
func NewMACD(signalPeriod int) *MACD {
	if signalPeriod <= 0 {
		signalPeriod = 9
	}
	return &MACD{fast: 12, slow: 26, signal: signalPeriod}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fast, m.slow, m.signal)
}

func (m *MACD) Period() int {
	return m.slow + m.signal
}

func (m *MACD) Neutral() float64 {
	return 0
}

func (m *MACD) Calculate(candles []models.Candle) ([]float64, error) {
	if len(candles) < m.slow+m.signal {
		return nil, ErrInsufficientData
	}

	closes := closePrices(candles)
	fastEMA := emaSeries(closes, m.fast)
	slowEMA := emaSeries(closes, m.slow)

	macdLine := make([]float64, len(closes))
	for i := m.slow - 1; i < len(closes); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := emaSeries(macdLine[m.slow-1:], m.signal)

	result := make([]float64, len(closes))
	for i := m.signal - 1; i < len(signalLine); i++ {
		result[m.slow-1+i] = macdLine[m.slow-1+i] - signalLine[i]
	}

	return result, nil
}
