// Package indicators provides the closed set of technical indicators the
// vision vector is built from. The engine only ever talks to the Indicator
// capability; concrete variants are looked up by identifier string at
// configuration-load time.
package indicators

import (
	"strings"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

// Indicator is the capability the engine consumes: given candle history,
// produce a series of scalar values aligned with the candles.
type Indicator interface {
	Name() string
	Period() int
	// Neutral is the value reported when there is not enough history.
	Neutral() float64
	Calculate(candles []models.Candle) ([]float64, error)
}

// New resolves an indicator identifier to a concrete variant. Unknown
// identifiers are a configuration error.
func New(id string, period int) (Indicator, error) {
	switch strings.ToUpper(id) {
	case "SMA":
		return NewSMA(period), nil
	case "EMA":
		return NewEMA(period), nil
	case "RSI":
		return NewRSI(period), nil
	case "ATR":
		return NewATR(period), nil
	case "MACD":
		return NewMACD(period), nil
	default:
		return nil, errs.NewConfigurationError("indicator", id, "unknown indicator identifier")
	}
}

// Latest returns the most recent value of an indicator over the candle
// history. Insufficient history yields the indicator's neutral value so the
// simulation keeps advancing.
func Latest(ind Indicator, candles []models.Candle) float64 {
	values, err := ind.Calculate(candles)
	if err != nil || len(values) == 0 {
		return ind.Neutral()
	}
	return values[len(values)-1]
}
