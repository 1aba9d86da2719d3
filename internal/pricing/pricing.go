// Package pricing provides pure pricing and risk calculations: pips, pip
// value, position sizing, margin, take-profit/stop-loss levels, liquidation
// and commission. Nothing here holds state.
package pricing

import (
	"math"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

const (
	// DefaultATRPeriod is used when an ATR distance config leaves the
	// period unset. This is the only documented default; every other
	// unset tag-dependent field is a configuration error.
	DefaultATRPeriod = 14
	// DefaultATRMultiplier is used when an ATR distance config leaves the
	// multiplier unset.
	DefaultATRMultiplier = 1.0
)

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func floorTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(v*p) / p
}

func ceilTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Ceil(v*p) / p
}

// Pips converts the price distance between entry and exit into pips for a
// symbol, rounded to 5 decimals.
func Pips(entry, exit float64, symbol *models.SymbolInfo) float64 {
	if symbol.PointValue == 0 {
		return 0
	}
	return roundTo(math.Abs(exit-entry)/symbol.PointValue, 5)
}

// PipValue returns the account-currency value of one pip for one lot at the
// given price.
func PipValue(price float64, symbol *models.SymbolInfo, fxRate float64) float64 {
	if price == 0 || fxRate == 0 {
		return 0
	}
	return (symbol.ContractSize * symbol.PointValue) / (price * fxRate)
}

// ProfitLoss returns the realized or mark-to-market pnl of a position at the
// given price, in account currency, rounded to 2 decimals.
func ProfitLoss(price float64, position *models.Position, symbol *models.SymbolInfo, fxRate float64) float64 {
	if position == nil {
		return 0
	}
	delta := roundTo(price-position.EntryPrice, 5)
	return roundTo(delta*position.Side.Direction()*symbol.ContractSize*position.Size*fxRate, 2)
}

// PositionSize returns the lot size risking riskPct of equity over stopPips,
// snapped down to the symbol's lot step and floored at its minimum lot.
func PositionSize(price, equity, riskPct, stopPips float64, symbol *models.SymbolInfo, fxRate float64) float64 {
	pipValue := PipValue(price, symbol, fxRate)
	denom := stopPips * pipValue
	if denom == 0 {
		return symbol.MinLot
	}
	size := (equity * riskPct) / denom
	if symbol.LotStep > 0 {
		size = math.Floor(size/symbol.LotStep) * symbol.LotStep
	}
	if size < symbol.MinLot {
		size = symbol.MinLot
	}
	if symbol.MaxLot > 0 && size > symbol.MaxLot {
		size = symbol.MaxLot
	}
	return size
}

// InitialMargin returns the margin required to open one lot at the given
// price and leverage, in account currency.
func InitialMargin(price, leverage float64, symbol *models.SymbolInfo, fxRate float64) float64 {
	if leverage == 0 {
		return 0
	}
	return symbol.ContractSize * price / leverage * fxRate
}

// LiquidationPrice returns the price at which a position is force-closed
// under the fixed-percentage-of-entry margin model: entry minus (long) or
// plus (short) entry/leverage.
func LiquidationPrice(position *models.Position, leverage float64) float64 {
	if position == nil || leverage == 0 {
		return 0
	}
	return position.EntryPrice - position.Side.Direction()*position.EntryPrice/leverage
}

// Commission returns the commission for the given lots in account currency,
// rounded to 2 decimals.
func Commission(commissionPerLot, lots, fxRate float64) float64 {
	return roundTo(commissionPerLot*lots*fxRate, 2)
}

// TakeProfitStopLoss computes the TP and SL prices for a new position at the
// given market price. The two legs dispatch independently on their distance
// type, so one leg may use Points while the other uses ATR.
func TakeProfitStopLoss(price float64, side models.Side, candles []models.Candle, cfg models.TakeProfitStopLossConfig, symbol *models.SymbolInfo) (takeProfit, stopLoss float64, err error) {
	takeProfit, err = legPrice(price, side, candles, cfg.TakeProfit, symbol, true)
	if err != nil {
		return 0, 0, err
	}
	stopLoss, err = legPrice(price, side, candles, cfg.StopLoss, symbol, false)
	if err != nil {
		return 0, 0, err
	}
	return takeProfit, stopLoss, nil
}

// legPrice resolves one TP or SL leg. For a long position the TP sits above
// the price and the SL below; for a short position the reverse.
func legPrice(price float64, side models.Side, candles []models.Candle, cfg models.DistanceConfig, symbol *models.SymbolInfo, isTakeProfit bool) (float64, error) {
	// +1 when the level sits above the price, -1 when below.
	above := side.Direction()
	if !isTakeProfit {
		above = -above
	}

	switch cfg.Type {
	case models.DistancePoints:
		if cfg.Points == 0 {
			return 0, errs.NewConfigurationError("points", cfg.Points, "points distance requires a non-zero points field")
		}
		return price + above*cfg.Points*symbol.PointValue, nil

	case models.DistancePercent:
		if cfg.Percent == 0 {
			return 0, errs.NewConfigurationError("percent", cfg.Percent, "percent distance requires a non-zero percent field")
		}
		level := price + above*price*cfg.Percent
		// Round toward the price so the level has not already been
		// breached at the instant it is set: levels above the price
		// round down, levels below round up.
		if above > 0 {
			return floorTo(level, symbol.Digits), nil
		}
		return ceilTo(level, symbol.Digits), nil

	case models.DistanceExtremum:
		if cfg.Window == 0 {
			return 0, errs.NewConfigurationError("window", cfg.Window, "extremum distance requires a non-zero window field")
		}
		if above > 0 {
			return HighestHigh(candles, cfg.Window), nil
		}
		return LowestLow(candles, cfg.Window), nil

	case models.DistanceATR:
		period := cfg.ATRPeriod
		if period == 0 {
			period = DefaultATRPeriod
		}
		mult := cfg.ATRMultiplier
		if mult == 0 {
			mult = DefaultATRMultiplier
		}
		return price + above*ATR(candles, period)*mult, nil

	default:
		return 0, errs.NewConfigurationError("distance_type", string(cfg.Type), "unknown distance type")
	}
}

// Distance resolves a trailing-stop distance in price terms at the current
// close. Unlike TP/SL legs this is a plain magnitude; the caller applies it
// on the unfavorable side of the price.
func Distance(price float64, candles []models.Candle, cfg models.DistanceConfig, symbol *models.SymbolInfo) (float64, error) {
	switch cfg.Type {
	case models.DistancePoints:
		if cfg.Points == 0 {
			return 0, errs.NewConfigurationError("points", cfg.Points, "points distance requires a non-zero points field")
		}
		return cfg.Points * symbol.PointValue, nil

	case models.DistancePercent:
		if cfg.Percent == 0 {
			return 0, errs.NewConfigurationError("percent", cfg.Percent, "percent distance requires a non-zero percent field")
		}
		return price * cfg.Percent, nil

	case models.DistanceExtremum:
		if cfg.Window == 0 {
			return 0, errs.NewConfigurationError("window", cfg.Window, "extremum distance requires a non-zero window field")
		}
		low := LowestLow(candles, cfg.Window)
		high := HighestHigh(candles, cfg.Window)
		return math.Abs(high-low) / 2, nil

	case models.DistanceATR:
		period := cfg.ATRPeriod
		if period == 0 {
			period = DefaultATRPeriod
		}
		mult := cfg.ATRMultiplier
		if mult == 0 {
			mult = DefaultATRMultiplier
		}
		return ATR(candles, period) * mult, nil

	default:
		return 0, errs.NewConfigurationError("distance_type", string(cfg.Type), "unknown distance type")
	}
}

// HighestHigh returns the highest high over the trailing window candles, or
// 0 when no candles are available.
func HighestHigh(candles []models.Candle, window int) float64 {
	if len(candles) == 0 {
		return 0
	}
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	highest := candles[start].High
	for _, c := range candles[start+1:] {
		if c.High > highest {
			highest = c.High
		}
	}
	return highest
}

// LowestLow returns the lowest low over the trailing window candles, or 0
// when no candles are available.
func LowestLow(candles []models.Candle, window int) float64 {
	if len(candles) == 0 {
		return 0
	}
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	lowest := candles[start].Low
	for _, c := range candles[start+1:] {
		if c.Low < lowest {
			lowest = c.Low
		}
	}
	return lowest
}

// ATR returns the average true range over the trailing period, or 0 when
// there are not enough candles. Insufficient history yields a neutral zero
// rather than an error so the simulation keeps advancing.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	var sum float64
	for i := len(candles) - period; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1])
	}
	return sum / float64(period)
}

func trueRange(c, prev models.Candle) float64 {
	tr := c.High - c.Low
	if hc := math.Abs(c.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := math.Abs(c.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}
