package models

// Stats is the fixed performance report derived from a trader's trade and
// balance history. It is recomputed wholesale, never incrementally mutated.
type Stats struct {
	InitialBalance float64
	FinalBalance   float64
	Performance    float64 // (final - initial) / initial

	TotalTrades   int
	LongTrades    int
	ShortTrades   int
	WinningTrades int
	LosingTrades  int
	WinningLong   int
	WinningShort  int
	LosingLong    int
	LosingShort   int

	TotalProfit float64 // sum of non-negative trade pnl
	TotalLoss   float64 // sum of |negative trade pnl|
	TotalFees   float64
	NetProfit   float64 // profit - loss - fees

	ProfitFactor float64
	MaxDrawdown  float64

	WinRate      float64
	WinRateLong  float64
	WinRateShort float64

	AverageProfit float64
	AverageLoss   float64
	MaxProfit     float64
	MaxLoss       float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	MaxConsecutiveProfit float64
	MaxConsecutiveLoss   float64

	AverageTradeDuration float64 // loop-timeframe units

	MonthlyReturns       map[string]float64 // "YYYY-MM" -> compounded return
	AverageMonthlyReturn float64
	SharpeRatio          float64
	SortinoRatio         float64
}
