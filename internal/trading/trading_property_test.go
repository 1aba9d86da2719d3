package trading

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"neat-trader/internal/models"
)

// Property: a long trader's trailing stop only ratchets upward. For any
// closing-price walk the stop-loss order price is non-decreasing until the
// position closes.
func TestProperty_TrailingStopNeverLoosens(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	// Per-step close deltas in points, small enough to keep the walk
	// inside the initial TP/SL bracket for a while.
	deltaGen := gen.SliceOfN(20, gen.Float64Range(-30, 30))

	properties.Property("stop-loss price is non-decreasing for a long position", prop.ForAll(
		func(deltas []float64) bool {
			symbol, err := models.LookupSymbol("EURUSD")
			if err != nil {
				return false
			}
			params := Params{
				Symbol:   symbol,
				Schedule: models.AlwaysOpen(),
				TakeProfitStopLoss: models.TakeProfitStopLossConfig{
					TakeProfit: models.DistanceConfig{Type: models.DistancePoints, Points: 1000},
					StopLoss:   models.DistanceConfig{Type: models.DistancePoints, Points: 1000},
				},
				Trailing: &models.TrailingStopLossConfig{
					Distance:   models.DistanceConfig{Type: models.DistancePoints, Points: 50},
					Activation: 0.001,
				},
				InitialBalance: 10000,
				Leverage:       100,
				RiskPercent:    0.01,
				CanOpenLong:    true,
				CanClose:       true,
			}
			decider := &stubDecider{next: []float64{1, 0, 0}}
			trader, err := NewTrader(params, decider, zerolog.Nop())
			if err != nil {
				return false
			}

			ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
			price := 1.0
			history := []models.Candle{candleAt(ts, price, price+0.0001, price-0.0001, price)}

			if step(t, trader, decider, history, []float64{1, 0, 0}) != models.ActionEnterLong {
				return false
			}

			lastStop := trader.Orders()[1].Price
			for i, d := range deltas {
				price += d * symbol.PointValue
				ts = ts.Add(time.Hour)
				history = append(history, candleAt(ts, price, price+0.0001, price-0.0001, price))
				step(t, trader, decider, history, []float64{0, 0, 1})

				if trader.Position() == nil {
					return true
				}
				stop := trader.Orders()[1].Price
				if stop < lastStop {
					t.Logf("stop loosened at step %d: %.5f -> %.5f", i, lastStop, stop)
					return false
				}
				lastStop = stop
			}
			return true
		},
		deltaGen,
	))

	properties.Property("balance never goes negative", prop.ForAll(
		func(deltas []float64) bool {
			symbol, err := models.LookupSymbol("EURUSD")
			if err != nil {
				return false
			}
			params := Params{
				Symbol:   symbol,
				Schedule: models.AlwaysOpen(),
				TakeProfitStopLoss: models.TakeProfitStopLossConfig{
					TakeProfit: models.DistanceConfig{Type: models.DistancePoints, Points: 100},
					StopLoss:   models.DistanceConfig{Type: models.DistancePoints, Points: 100},
				},
				InitialBalance: 1000,
				Leverage:       100,
				RiskPercent:    0.05,
				CanOpenLong:    true,
				CanOpenShort:   true,
				CanClose:       true,
			}
			decider := &stubDecider{}
			trader, err := NewTrader(params, decider, zerolog.Nop())
			if err != nil {
				return false
			}

			ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
			price := 1.0
			history := []models.Candle{}
			votes := [][]float64{voteEnterLong, voteEnterShort, voteCloseLong, voteCloseShort, voteWait}
			for i, d := range deltas {
				price += d * symbol.PointValue
				if price < 0.1 {
					price = 0.1
				}
				ts = ts.Add(time.Hour)
				history = append(history, candleAt(ts, price, price+0.0005, price-0.0005, price))
				step(t, trader, decider, history, votes[i%len(votes)])

				if trader.Balance() < 0 {
					return false
				}
				for _, b := range trader.BalanceHistory() {
					if b < 0 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(-200, 200)),
	))

	properties.TestingRun(t)
}

// Property: whenever no position is open there are no pending orders, for
// any interleaving of decisions and price moves.
func TestProperty_OrdersExistOnlyWithPosition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("position/order lifecycle invariant", prop.ForAll(
		func(deltas []float64, voteSeeds []int8) bool {
			symbol, err := models.LookupSymbol("EURUSD")
			if err != nil {
				return false
			}
			params := testParamsForProperty(symbol)
			decider := &stubDecider{}
			trader, err := NewTrader(params, decider, zerolog.Nop())
			if err != nil {
				return false
			}

			votes := [][]float64{voteEnterLong, voteEnterShort, voteCloseLong, voteCloseShort, voteWait}
			ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
			price := 1.0
			history := []models.Candle{}
			for i, d := range deltas {
				price += d * symbol.PointValue
				if price < 0.1 {
					price = 0.1
				}
				ts = ts.Add(time.Hour)
				history = append(history, candleAt(ts, price, price+0.0008, price-0.0008, price))

				seed := int(voteSeeds[i%len(voteSeeds)])
				if seed < 0 {
					seed = -seed
				}
				step(t, trader, decider, history, votes[seed%len(votes)])

				if trader.Position() == nil && len(trader.Orders()) != 0 {
					return false
				}
				if trader.Position() != nil && len(trader.Orders()) != 2 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(-150, 150)),
		gen.SliceOfN(10, gen.Int8()),
	))

	properties.TestingRun(t)
}

func testParamsForProperty(symbol *models.SymbolInfo) Params {
	return Params{
		Symbol:   symbol,
		Schedule: models.AlwaysOpen(),
		TakeProfitStopLoss: models.TakeProfitStopLossConfig{
			TakeProfit: models.DistanceConfig{Type: models.DistancePoints, Points: 80},
			StopLoss:   models.DistanceConfig{Type: models.DistancePoints, Points: 80},
		},
		InitialBalance: 10000,
		Leverage:       100,
		RiskPercent:    0.01,
		CanOpenLong:    true,
		CanOpenShort:   true,
		CanClose:       true,
	}
}
