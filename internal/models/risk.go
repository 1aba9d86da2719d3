package models

// DistanceType selects how a take-profit, stop-loss, or trailing distance is
// derived from the current market.
type DistanceType string

const (
	DistancePoints   DistanceType = "POINTS"
	DistancePercent  DistanceType = "PERCENT"
	DistanceExtremum DistanceType = "EXTREMUM"
	DistanceATR      DistanceType = "ATR"
)

// DistanceConfig holds the fields for one distance-type tag. Only the fields
// relevant to Type are read; evaluating a tag whose required field is unset
// is a configuration error.
type DistanceConfig struct {
	Type          DistanceType
	Points        float64 // DistancePoints
	Percent       float64 // DistancePercent
	Window        int     // DistanceExtremum: trailing candle count
	ATRPeriod     int     // DistanceATR, defaults to 14 when unset
	ATRMultiplier float64 // DistanceATR, defaults to 1.0 when unset
}

// TakeProfitStopLossConfig configures the TP/SL order pair created after a
// position is opened. The two legs are evaluated independently, so one may
// use Points while the other uses ATR.
type TakeProfitStopLossConfig struct {
	TakeProfit DistanceConfig
	StopLoss   DistanceConfig
}

// TrailingStopLossConfig configures the trailing-stop ratchet. Once the
// favorable distance from entry exceeds Activation (in price terms), the
// stop-loss order is tightened to the current close minus (long) or plus
// (short) the configured distance, and is never moved back outward.
type TrailingStopLossConfig struct {
	Distance   DistanceConfig
	Activation float64 // price distance from entry before trailing engages
}
