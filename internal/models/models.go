// Package models provides domain models for the trading simulation engine.
package models

import (
	"time"
)

// Side represents the direction of a position or order.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Direction returns +1 for long and -1 for short.
func (s Side) Direction() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// OrderKind represents the kind of a pending order.
type OrderKind string

const (
	OrderTakeProfit OrderKind = "TAKE_PROFIT"
	OrderStopLoss   OrderKind = "STOP_LOSS"
)

// Action represents a decision emitted by the decision collaborator.
type Action string

const (
	ActionEnterLong  Action = "ENTER_LONG"
	ActionEnterShort Action = "ENTER_SHORT"
	ActionCloseLong  Action = "CLOSE_LONG"
	ActionCloseShort Action = "CLOSE_SHORT"
	ActionWait       Action = "WAIT"
)

// Decision codes exposed at the live entry point.
const (
	DecisionWait      = 0
	DecisionOpenLong  = 1
	DecisionOpenShort = 2
	DecisionClose     = 3
)

// DecisionCode maps an action to the integer contract used by the live
// trading terminal.
func DecisionCode(a Action) int {
	switch a {
	case ActionEnterLong:
		return DecisionOpenLong
	case ActionEnterShort:
		return DecisionOpenShort
	case ActionCloseLong, ActionCloseShort:
		return DecisionClose
	default:
		return DecisionWait
	}
}

// PositionInfoKind selects one of the position scalars appended to the
// vision vector while a position is open.
type PositionInfoKind string

const (
	PositionInfoSide     PositionInfoKind = "SIDE"
	PositionInfoPnL      PositionInfoKind = "PNL"
	PositionInfoDuration PositionInfoKind = "DURATION"
)

// Candle represents OHLCV data for one timeframe period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Spread    float64 // in points
}

// Position represents the single open position a trader may hold.
type Position struct {
	Side       Side
	Size       float64 // lots
	EntryPrice float64
	OpenedAt   time.Time
	PnL        float64 // running, account currency
}

// Order represents a pending take-profit or stop-loss order. Orders exist
// only while a position is open and are always created as a TP/SL pair on
// the side opposite the position.
type Order struct {
	Side  Side
	Kind  OrderKind
	Price float64
}

// Trade is an append-only history record for one position. It is appended
// with Closed=false at entry; the close event rewrites the same record with
// the exit fields, so a trader's history holds exactly one record per trade
// once it is closed.
type Trade struct {
	Side          Side
	Size          float64
	EntryTime     time.Time
	ExitTime      time.Time
	EntryPrice    float64
	ExitPrice     float64
	PnL           float64 // gross, account currency
	PnLPercent    float64 // gross, fraction of balance at close
	PnLNet        float64 // net of fees
	PnLNetPercent float64
	Fees          float64
	Duration      int // loop-timeframe units
	Closed        bool
}
