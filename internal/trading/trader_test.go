package trading

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

// stubDecider returns whatever vector the test assigned to next.
type stubDecider struct {
	next []float64
}

func (d *stubDecider) Decide([]float64) ([]float64, error) {
	return d.next, nil
}

// All five actions enabled: [enter-long enter-short close-long close-short wait].
var (
	voteEnterLong  = []float64{1, 0, 0, 0, 0}
	voteEnterShort = []float64{0, 1, 0, 0, 0}
	voteCloseLong  = []float64{0, 0, 1, 0, 0}
	voteCloseShort = []float64{0, 0, 0, 1, 0}
	voteWait       = []float64{0, 0, 0, 0, 1}
)

func testParams(t *testing.T) Params {
	t.Helper()
	symbol, err := models.LookupSymbol("EURUSD")
	require.NoError(t, err)
	return Params{
		Symbol:   symbol,
		Schedule: models.AlwaysOpen(),
		TakeProfitStopLoss: models.TakeProfitStopLossConfig{
			TakeProfit: models.DistanceConfig{Type: models.DistancePoints, Points: 100},
			StopLoss:   models.DistanceConfig{Type: models.DistancePoints, Points: 100},
		},
		InitialBalance: 10000,
		Leverage:       100,
		RiskPercent:    0.01,
		CanOpenLong:    true,
		CanOpenShort:   true,
		CanClose:       true,
	}
}

func newTestTrader(t *testing.T, mutate func(*Params)) (*Trader, *stubDecider) {
	t.Helper()
	params := testParams(t)
	if mutate != nil {
		mutate(&params)
	}
	decider := &stubDecider{next: voteWait}
	trader, err := NewTrader(params, decider, zerolog.Nop())
	require.NoError(t, err)
	return trader, decider
}

func candleAt(ts time.Time, open, high, low, close float64) models.Candle {
	return models.Candle{Timestamp: ts, Open: open, High: high, Low: low, Close: close}
}

// monday is a weekday well inside any weekdays-only schedule.
var monday = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

// step runs one full simulated step: update, look, think, trade.
func step(t *testing.T, tr *Trader, d *stubDecider, history []models.Candle, vote []float64) models.Action {
	t.Helper()
	d.next = vote
	require.NoError(t, tr.Update(history))
	tr.Look(nil, 1.0, nil)
	if dead, _ := tr.Dead(); dead {
		return models.ActionWait
	}
	_, err := tr.Think()
	require.NoError(t, err)
	action, err := tr.Trade()
	require.NoError(t, err)
	return action
}

func TestEnterLongCreatesPositionAndOrderPair(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}

	action := step(t, tr, d, history, voteEnterLong)
	require.Equal(t, models.ActionEnterLong, action)

	pos := tr.Position()
	require.NotNil(t, pos)
	assert.Equal(t, models.SideLong, pos.Side)
	assert.InDelta(t, 1.0, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 0.1, pos.Size, 1e-9)

	orders := tr.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, models.OrderTakeProfit, orders[0].Kind)
	assert.Equal(t, models.SideShort, orders[0].Side)
	assert.InDelta(t, 1.01, orders[0].Price, 1e-9)
	assert.Equal(t, models.OrderStopLoss, orders[1].Kind)
	assert.InDelta(t, 0.99, orders[1].Price, 1e-9)

	trades := tr.Trades()
	require.Len(t, trades, 1)
	assert.False(t, trades[0].Closed)
}

func TestTakeProfitFillsExactlyAtOrderPrice(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	next := candleAt(monday.Add(time.Hour), 1.005, 1.015, 1.005, 1.012)
	history = append(history, next)
	step(t, tr, d, history, voteWait)

	assert.Nil(t, tr.Position())
	assert.Empty(t, tr.Orders())

	trades := tr.Trades()
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Closed)
	assert.InDelta(t, 1.01, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 100.0, trades[0].PnL, 1e-9)
}

func TestStopLossFillsExactlyAtOrderPrice(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	next := candleAt(monday.Add(time.Hour), 0.995, 0.995, 0.985, 0.986)
	history = append(history, next)
	step(t, tr, d, history, voteWait)

	assert.Nil(t, tr.Position())
	assert.Empty(t, tr.Orders())

	trades := tr.Trades()
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Closed)
	assert.InDelta(t, 0.99, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, -100.0, trades[0].PnL, 1e-9)
}

func TestCloseByDecisionRealizesAtCandleClose(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	next := candleAt(monday.Add(time.Hour), 1.002, 1.006, 1.002, 1.005)
	history = append(history, next)
	action := step(t, tr, d, history, voteCloseLong)
	require.Equal(t, models.ActionCloseLong, action)

	assert.Nil(t, tr.Position())
	assert.Empty(t, tr.Orders())

	trades := tr.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 1.005, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 50.0, trades[0].PnL, 1e-9)
	// 3.5 per lot over 0.1 lots
	assert.InDelta(t, 0.35, trades[0].Fees, 1e-9)
	assert.InDelta(t, 10049.65, tr.Balance(), 1e-9)
}

func TestCloseRequiresMatchingSide(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.002, 0.998, 1.001))
	action := step(t, tr, d, history, voteCloseShort)

	assert.Equal(t, models.ActionWait, action)
	assert.NotNil(t, tr.Position())
}

func TestSecondEntryIgnoredWhilePositionOpen(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.002, 0.998, 1.001))
	action := step(t, tr, d, history, voteEnterShort)

	assert.Equal(t, models.ActionWait, action)
	require.NotNil(t, tr.Position())
	assert.Equal(t, models.SideLong, tr.Position().Side)
	assert.Len(t, tr.Trades(), 1)
}

func TestLiquidationClosesAtLiquidationPrice(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		// Park the stop far away so the margin model closes first.
		p.TakeProfitStopLoss.StopLoss = models.DistanceConfig{Type: models.DistancePoints, Points: 2000}
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)
	require.NotNil(t, tr.Position())

	// Liquidation for a 100x long at 1.0 sits at 0.99.
	next := candleAt(monday.Add(time.Hour), 0.988, 0.989, 0.984, 0.985)
	history = append(history, next)
	step(t, tr, d, history, voteWait)

	assert.Nil(t, tr.Position())
	assert.Empty(t, tr.Orders())

	trades := tr.Trades()
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Closed)
	assert.InDelta(t, 0.99, trades[0].ExitPrice, 1e-9)
}

func TestMaxTradeDurationForcesClose(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.MaxTradeDuration = 2
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.002, 0.998, 1.001))
	action := step(t, tr, d, history, voteWait)
	assert.Equal(t, models.ActionWait, action)
	require.NotNil(t, tr.Position())

	history = append(history, candleAt(monday.Add(2*time.Hour), 1.001, 1.003, 0.999, 1.002))
	action = step(t, tr, d, history, voteWait)
	assert.Equal(t, models.ActionCloseLong, action)
	assert.Nil(t, tr.Position())
	assert.Empty(t, tr.Orders())
}

func TestMinHoldBlocksEarlyClose(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.MinHold = 2
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.002, 0.998, 1.001))
	action := step(t, tr, d, history, voteCloseLong)
	assert.Equal(t, models.ActionWait, action)
	require.NotNil(t, tr.Position())

	history = append(history, candleAt(monday.Add(2*time.Hour), 1.001, 1.003, 0.999, 1.002))
	action = step(t, tr, d, history, voteCloseLong)
	assert.Equal(t, models.ActionCloseLong, action)
	assert.Nil(t, tr.Position())
}

func TestCooldownBlocksReentry(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.Cooldown = 2
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}

	// Fresh traders start inside the cooldown window too.
	action := step(t, tr, d, history, voteEnterLong)
	assert.Equal(t, models.ActionWait, action)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.002, 0.998, 1.0))
	action = step(t, tr, d, history, voteEnterLong)
	assert.Equal(t, models.ActionEnterLong, action)
}

func TestDailyTradeCapBlocksReentry(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.MaxDailyTrades = 1
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.002, 0.998, 1.001))
	step(t, tr, d, history, voteCloseLong)
	require.Nil(t, tr.Position())

	// Same day: capped.
	history = append(history, candleAt(monday.Add(2*time.Hour), 1.0, 1.002, 0.998, 1.0))
	action := step(t, tr, d, history, voteEnterLong)
	assert.Equal(t, models.ActionWait, action)

	// Next day: counter resets.
	history = append(history, candleAt(monday.Add(24*time.Hour), 1.0, 1.002, 0.998, 1.0))
	action = step(t, tr, d, history, voteEnterLong)
	assert.Equal(t, models.ActionEnterLong, action)
}

func TestScheduleBlocksEntryButNotClose(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.Schedule = models.WeekdaysOnly()
	})
	saturday := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Saturday, saturday.Weekday())

	history := []models.Candle{candleAt(saturday, 1.0, 1.001, 0.999, 1.0)}
	action := step(t, tr, d, history, voteEnterLong)
	assert.Equal(t, models.ActionWait, action)
	assert.Nil(t, tr.Position())

	// Open on Monday, then close on the following Saturday.
	history = append(history, candleAt(monday, 1.0, 1.001, 0.999, 1.0))
	step(t, tr, d, history, voteEnterLong)
	require.NotNil(t, tr.Position())

	nextSaturday := time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)
	history = append(history, candleAt(nextSaturday, 1.0, 1.002, 0.998, 1.001))
	action = step(t, tr, d, history, voteCloseLong)
	assert.Equal(t, models.ActionCloseLong, action)
	assert.Nil(t, tr.Position())
}

func TestSpreadGateBlocksEntry(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.MaxSpread = 2
	})
	wide := candleAt(monday, 1.0, 1.001, 0.999, 1.0)
	wide.Spread = 3
	action := step(t, tr, d, []models.Candle{wide}, voteEnterLong)
	assert.Equal(t, models.ActionWait, action)

	tight := candleAt(monday.Add(time.Hour), 1.0, 1.001, 0.999, 1.0)
	tight.Spread = 1
	action = step(t, tr, d, []models.Candle{wide, tight}, voteEnterLong)
	assert.Equal(t, models.ActionEnterLong, action)
}

func TestInactiveTraderDies(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.InactiveTraderThreshold = 3
	})
	history := []models.Candle{}
	for i := 0; i < 4; i++ {
		history = append(history, candleAt(monday.Add(time.Duration(i)*time.Hour), 1.0, 1.001, 0.999, 1.0))
		step(t, tr, d, history, voteWait)
	}

	dead, reason := tr.Dead()
	assert.True(t, dead)
	assert.NotEmpty(t, reason)
	assert.Equal(t, 3, tr.Lifespan())

	// Dead is terminal: further steps are no-ops.
	history = append(history, candleAt(monday.Add(5*time.Hour), 1.0, 1.001, 0.999, 1.0))
	action := step(t, tr, d, history, voteEnterLong)
	assert.Equal(t, models.ActionWait, action)
	assert.Nil(t, tr.Position())
	assert.Equal(t, 3, tr.Lifespan())
}

func TestBadTraderDiesBelowBalanceThreshold(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.BadTraderThreshold = 0.999
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)

	// Stop out: balance drops to 9899.65, below 9990.
	history = append(history, candleAt(monday.Add(time.Hour), 0.995, 0.995, 0.985, 0.986))
	step(t, tr, d, history, voteWait)
	require.Nil(t, tr.Position())

	history = append(history, candleAt(monday.Add(2*time.Hour), 0.986, 0.99, 0.985, 0.988))
	step(t, tr, d, history, voteWait)

	dead, _ := tr.Dead()
	assert.True(t, dead)
}

func TestThinkRejectsWrongVectorLength(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	require.NoError(t, tr.Update(history))
	tr.Look(nil, 1.0, nil)

	d.next = []float64{1, 0, 0}
	_, err := tr.Think()
	require.Error(t, err)
	var cfgErr *errs.ConfigurationError
	assert.True(t, errs.As(err, &cfgErr))
}

func TestArgmaxTieBreaksToFirstListedAction(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}

	action := step(t, tr, d, history, []float64{1, 1, 0, 0, 1})
	assert.Equal(t, models.ActionEnterLong, action)
}

func TestActionSetFollowsCapabilityFlags(t *testing.T) {
	tr, _ := newTestTrader(t, func(p *Params) {
		p.CanOpenShort = false
	})
	assert.Equal(t, []models.Action{
		models.ActionEnterLong,
		models.ActionCloseLong,
		models.ActionWait,
	}, tr.Actions())

	tr, _ = newTestTrader(t, func(p *Params) {
		p.CanOpenLong = false
		p.CanOpenShort = false
		p.CanClose = false
	})
	assert.Equal(t, []models.Action{models.ActionWait}, tr.Actions())
}

func TestVisionAppendsPositionScalars(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	kinds := []models.PositionInfoKind{
		models.PositionInfoSide,
		models.PositionInfoPnL,
		models.PositionInfoDuration,
	}

	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	require.NoError(t, tr.Update(history))
	vision := tr.Look([]float64{0.5}, 1.0, kinds)
	assert.Equal(t, []float64{0.5, 0, 0, 0}, vision)

	d.next = voteEnterLong
	_, err := tr.Think()
	require.NoError(t, err)
	_, err = tr.Trade()
	require.NoError(t, err)

	history = append(history, candleAt(monday.Add(time.Hour), 1.0, 1.006, 1.0, 1.005))
	require.NoError(t, tr.Update(history))
	vision = tr.Look([]float64{0.5}, 1.0, kinds)
	require.Len(t, vision, 4)
	assert.Equal(t, 1.0, vision[1], "side scalar")
	assert.Greater(t, vision[2], 0.0, "pnl scalar")
	assert.Equal(t, 1.0, vision[3], "duration scalar")
}

func TestTrailingStopRatchetsOnlyTighter(t *testing.T) {
	tr, d := newTestTrader(t, func(p *Params) {
		p.Trailing = &models.TrailingStopLossConfig{
			Distance:   models.DistanceConfig{Type: models.DistancePoints, Points: 50},
			Activation: 0.002,
		}
	})
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	step(t, tr, d, history, voteEnterLong)
	require.InDelta(t, 0.99, tr.Orders()[1].Price, 1e-9)

	// Favorable move beyond activation: stop tightens to close - 0.005.
	history = append(history, candleAt(monday.Add(time.Hour), 1.004, 1.006, 1.004, 1.005))
	step(t, tr, d, history, voteWait)
	require.Len(t, tr.Orders(), 2)
	assert.InDelta(t, 1.0, tr.Orders()[1].Price, 1e-9)

	// Pullback: the stop never loosens.
	history = append(history, candleAt(monday.Add(2*time.Hour), 1.004, 1.0045, 1.0025, 1.003))
	step(t, tr, d, history, voteWait)
	require.Len(t, tr.Orders(), 2)
	assert.InDelta(t, 1.0, tr.Orders()[1].Price, 1e-9)
}

func TestBalanceHistoryOneSamplePerStep(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{}
	for i := 0; i < 3; i++ {
		history = append(history, candleAt(monday.Add(time.Duration(i)*time.Hour), 1.0, 1.001, 0.999, 1.0))
		step(t, tr, d, history, voteWait)
	}
	assert.Len(t, tr.BalanceHistory(), 4)
	assert.Equal(t, 10000.0, tr.BalanceHistory()[0])
}

func TestUpdateRejectsEmptyHistory(t *testing.T) {
	tr, _ := newTestTrader(t, nil)
	err := tr.Update(nil)
	require.Error(t, err)
}

func TestShortPositionRoundTrip(t *testing.T) {
	tr, d := newTestTrader(t, nil)
	history := []models.Candle{candleAt(monday, 1.0, 1.001, 0.999, 1.0)}
	action := step(t, tr, d, history, voteEnterShort)
	require.Equal(t, models.ActionEnterShort, action)

	orders := tr.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, models.SideLong, orders[0].Side)
	assert.InDelta(t, 0.99, orders[0].Price, 1e-9, "short take-profit sits below entry")
	assert.InDelta(t, 1.01, orders[1].Price, 1e-9, "short stop-loss sits above entry")

	// Price falls into the take-profit.
	history = append(history, candleAt(monday.Add(time.Hour), 0.995, 0.995, 0.985, 0.986))
	step(t, tr, d, history, voteWait)

	assert.Nil(t, tr.Position())
	trades := tr.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 0.99, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 100.0, trades[0].PnL, 1e-9)
}
