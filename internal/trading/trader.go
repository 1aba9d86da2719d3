package trading

import (
	"time"

	"github.com/rs/zerolog"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/logging"
	"neat-trader/internal/models"
	"neat-trader/internal/pricing"
	"neat-trader/internal/stats"
)

// DecisionProvider is the decision collaborator: given a vision vector,
// produce a vector of real-valued action scores. The genome forward pass
// lives behind this interface and is out of the engine's scope.
type DecisionProvider interface {
	Decide(vision []float64) ([]float64, error)
}

// CloseReason identifies which path closed a position.
type CloseReason string

const (
	CloseDecision    CloseReason = "decision"
	CloseTakeProfit  CloseReason = "take_profit"
	CloseStopLoss    CloseReason = "stop_loss"
	CloseLiquidation CloseReason = "liquidation"
	CloseMaxDuration CloseReason = "max_duration"
)

// Params holds the immutable parameters of one trader instance. SymbolInfo
// and Schedule are read-only and may be shared by reference across
// concurrently evaluated traders.
type Params struct {
	Symbol             *models.SymbolInfo
	Schedule           models.Schedule
	TakeProfitStopLoss models.TakeProfitStopLossConfig
	Trailing           *models.TrailingStopLossConfig

	InitialBalance float64
	Leverage       float64
	RiskPercent    float64

	MaxSpread        float64 // points; 0 disables the gate
	Cooldown         int     // steps since last close before a new entry
	MinHold          int     // steps before a close decision is honored
	MaxTradeDuration int     // steps; 0 disables the force-close

	BadTraderThreshold      float64 // fraction of initial balance
	InactiveTraderThreshold int     // steps; 0 disables
	MaxDailyTrades          int     // 0 disables

	CanOpenLong  bool
	CanOpenShort bool
	CanClose     bool
}

// Trader owns the mutable simulation state for one strategy instance. It is
// single-threaded: the driver must not call into one Trader concurrently,
// though independent Traders may be evaluated in parallel.
type Trader struct {
	params  Params
	decider DecisionProvider
	logger  zerolog.Logger

	candles []models.Candle
	fxRate  float64

	balance        float64
	balanceHistory []float64
	position       *models.Position
	orders         []models.Order
	trades         []models.Trade

	actions  []models.Action
	vision   []float64
	decision []float64

	dead       bool
	deadReason string

	lifespan             int
	durationWithoutTrade int
	durationInPosition   int
	dailyTrades          int
	currentDay           time.Time
	lastPositionDate     time.Time
	totalFees            float64
}

// NewTrader creates a trader instance. The enabled action set is derived
// from the Can* flags in a fixed order: enter-long, enter-short, close-long,
// close-short, wait; the decision vector must match its length.
func NewTrader(params Params, decider DecisionProvider, logger zerolog.Logger) (*Trader, error) {
	if params.Symbol == nil {
		return nil, errs.NewConfigurationError("symbol", nil, "symbol info is required")
	}
	if params.InitialBalance <= 0 {
		return nil, errs.NewConfigurationError("initial_balance", params.InitialBalance, "must be positive")
	}
	if params.Leverage <= 0 {
		return nil, errs.NewConfigurationError("leverage", params.Leverage, "must be positive")
	}
	if decider == nil {
		return nil, errs.NewConfigurationError("decider", nil, "decision provider is required")
	}

	return &Trader{
		params:         params,
		decider:        decider,
		logger:         logging.WithSymbol(logger, params.Symbol.Symbol),
		fxRate:         1.0,
		balance:        params.InitialBalance,
		balanceHistory: []float64{params.InitialBalance},
		actions:        EnabledActions(params.CanOpenLong, params.CanOpenShort, params.CanClose),
	}, nil
}

// EnabledActions derives the action set from the capability flags, in the
// fixed order the decision vector must follow: enter-long, enter-short,
// close-long, close-short, wait.
func EnabledActions(canOpenLong, canOpenShort, canClose bool) []models.Action {
	actions := make([]models.Action, 0, 5)
	if canOpenLong {
		actions = append(actions, models.ActionEnterLong)
	}
	if canOpenShort {
		actions = append(actions, models.ActionEnterShort)
	}
	if canClose && canOpenLong {
		actions = append(actions, models.ActionCloseLong)
	}
	if canClose && canOpenShort {
		actions = append(actions, models.ActionCloseShort)
	}
	actions = append(actions, models.ActionWait)
	return actions
}

// Actions returns the enabled action set in decision-vector order.
func (t *Trader) Actions() []models.Action {
	return t.actions
}

// Update advances the trader by one simulated step against the given candle
// history, whose last element is the just-closed candle. It runs the
// liveness, order, liquidation, mark-to-market and trailing-stop checks;
// the decision half of the step happens in Trade.
func (t *Trader) Update(candles []models.Candle) error {
	if len(candles) == 0 {
		return errs.NewDataError("candles", t.params.Symbol.Symbol, "empty candle history", nil)
	}
	if t.dead {
		return nil
	}
	t.candles = candles
	last := candles[len(candles)-1]
	t.lifespan++

	day := last.Timestamp.Truncate(24 * time.Hour)
	if !day.Equal(t.currentDay) {
		t.currentDay = day
		t.dailyTrades = 0
	}

	// 1. Liveness: dead is terminal and short-circuits the step.
	if t.balance <= t.params.InitialBalance*t.params.BadTraderThreshold {
		t.die("balance below threshold")
		t.recordBalance()
		return nil
	}
	if t.params.InactiveTraderThreshold > 0 && t.lifespan >= t.params.InactiveTraderThreshold && len(t.trades) == 0 {
		t.die("no trades within lifespan")
		t.recordBalance()
		return nil
	}

	// 2. Order check against the candle's high/low range.
	if t.position != nil {
		if order, ok := t.triggeredOrder(last); ok {
			reason := CloseTakeProfit
			if order.Kind == models.OrderStopLoss {
				reason = CloseStopLoss
			}
			// Both kinds fill exactly at the order price; without an
			// intrabar model there is no slippage difference between
			// the limit and the market-close path.
			t.closePosition(order.Price, last.Timestamp, reason)
		}
	}

	// 3. Liquidation check, independent of the order check.
	if t.position != nil {
		liq := pricing.LiquidationPrice(t.position, t.params.Leverage)
		crossed := (t.position.Side == models.SideLong && last.Close <= liq) ||
			(t.position.Side == models.SideShort && last.Close >= liq)
		if crossed {
			t.closePosition(liq, last.Timestamp, CloseLiquidation)
		}
	}

	// 4. Mark-to-market at the candle close.
	if t.position != nil {
		t.position.PnL = pricing.ProfitLoss(last.Close, t.position, t.params.Symbol, t.fxRate)
		t.durationInPosition++
	} else {
		t.durationWithoutTrade++
	}

	// 5. Trailing-stop ratchet.
	if t.position != nil && t.params.Trailing != nil {
		if err := t.updateTrailingStop(last); err != nil {
			return err
		}
	}

	return nil
}

// triggeredOrder returns the first open order whose trigger price falls
// within the candle's range. Orders are scanned in creation order (TP before
// SL); with only OHLC data the true intrabar ordering is unknowable.
func (t *Trader) triggeredOrder(candle models.Candle) (models.Order, bool) {
	for _, order := range t.orders {
		if candle.Low <= order.Price && order.Price <= candle.High {
			return order, true
		}
	}
	return models.Order{}, false
}

// updateTrailingStop tightens the stop order once the favorable distance
// from entry exceeds the activation threshold. The update is a ratchet: a
// tightened stop is never moved back outward.
func (t *Trader) updateTrailingStop(candle models.Candle) error {
	pos := t.position
	favorable := (candle.Close - pos.EntryPrice) * pos.Side.Direction()
	if favorable <= t.params.Trailing.Activation {
		return nil
	}

	dist, err := pricing.Distance(candle.Close, t.candles, t.params.Trailing.Distance, t.params.Symbol)
	if err != nil {
		return err
	}
	if dist <= 0 {
		return nil
	}

	newStop := candle.Close - pos.Side.Direction()*dist
	for i := range t.orders {
		if t.orders[i].Kind != models.OrderStopLoss {
			continue
		}
		tighter := (pos.Side == models.SideLong && newStop > t.orders[i].Price) ||
			(pos.Side == models.SideShort && newStop < t.orders[i].Price)
		if tighter {
			t.orders[i].Price = newStop
		}
	}
	return nil
}

func (t *Trader) die(reason string) {
	t.dead = true
	t.deadReason = reason
	logging.LogDeath(t.logger, reason, t.balance, t.lifespan)
}

// openPosition opens a market position at the candle close, appends the open
// trade record and creates the TP/SL order pair on the opposite side.
func (t *Trader) openPosition(side models.Side, candle models.Candle) error {
	price := candle.Close
	tp, sl, err := pricing.TakeProfitStopLoss(price, side, t.candles, t.params.TakeProfitStopLoss, t.params.Symbol)
	if err != nil {
		return err
	}

	stopPips := pricing.Pips(price, sl, t.params.Symbol)
	size := pricing.PositionSize(price, t.balance, t.params.RiskPercent, stopPips, t.params.Symbol, t.fxRate)

	margin := pricing.InitialMargin(price, t.params.Leverage, t.params.Symbol, t.fxRate) * size
	if margin > t.balance {
		t.logger.Debug().
			Float64("margin", margin).
			Float64("balance", t.balance).
			Msg("Entry skipped: margin exceeds balance")
		return nil
	}

	t.position = &models.Position{
		Side:       side,
		Size:       size,
		EntryPrice: price,
		OpenedAt:   candle.Timestamp,
	}
	t.durationInPosition = 0
	t.trades = append(t.trades, models.Trade{
		Side:       side,
		Size:       size,
		EntryTime:  candle.Timestamp,
		EntryPrice: price,
	})
	t.orders = append(t.orders[:0],
		models.Order{Side: side.Opposite(), Kind: models.OrderTakeProfit, Price: tp},
		models.Order{Side: side.Opposite(), Kind: models.OrderStopLoss, Price: sl},
	)

	logging.LogEntry(t.logger, t.params.Symbol.Symbol, string(side), size, price)
	return nil
}

// closePosition realizes the position at the given price, rewrites the open
// trade record as closed and clears the order pair. Every close path funnels
// through here.
func (t *Trader) closePosition(price float64, at time.Time, reason CloseReason) {
	pos := t.position
	pnl := pricing.ProfitLoss(price, pos, t.params.Symbol, t.fxRate)
	fee := pricing.Commission(t.params.Symbol.CommissionPerLot, pos.Size, t.fxRate)

	balanceBefore := t.balance
	t.balance += pnl - fee
	if t.balance < 0 {
		t.balance = 0
	}

	trade := &t.trades[len(t.trades)-1]
	trade.ExitTime = at
	trade.ExitPrice = price
	trade.PnL = pnl
	trade.Fees = fee
	trade.PnLNet = pnl - fee
	if balanceBefore > 0 {
		trade.PnLPercent = pnl / balanceBefore
		trade.PnLNetPercent = (pnl - fee) / balanceBefore
	}
	trade.Duration = t.durationInPosition
	trade.Closed = true

	t.totalFees += fee
	t.lastPositionDate = at
	t.position = nil
	t.orders = t.orders[:0]
	t.durationWithoutTrade = 0
	t.durationInPosition = 0
	t.dailyTrades++

	logging.LogExit(t.logger, t.params.Symbol.Symbol, string(reason), price, pnl, t.balance)
}

func (t *Trader) recordBalance() {
	t.balanceHistory = append(t.balanceHistory, t.balance)
}

// Balance returns the current account balance.
func (t *Trader) Balance() float64 {
	return t.balance
}

// BalanceHistory returns the per-step balance series, starting with the
// initial balance.
func (t *Trader) BalanceHistory() []float64 {
	return t.balanceHistory
}

// Trades returns the trade history, including an open trade if one exists.
func (t *Trader) Trades() []models.Trade {
	return t.trades
}

// Position returns the open position, or nil.
func (t *Trader) Position() *models.Position {
	return t.position
}

// Orders returns the open TP/SL orders.
func (t *Trader) Orders() []models.Order {
	return t.orders
}

// Dead reports whether the trader has been terminally marked dead, and why.
func (t *Trader) Dead() (bool, string) {
	return t.dead, t.deadReason
}

// Lifespan returns the number of steps the trader has been stepped.
func (t *Trader) Lifespan() int {
	return t.lifespan
}

// CalculateStats derives the performance report from the accumulated trade
// and balance history.
func (t *Trader) CalculateStats() *models.Stats {
	return stats.Calculate(t.trades, t.balanceHistory)
}
