package stats

import (
	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

// Repr keys. Every key is required on deserialization; a missing key is a
// fatal data-integrity error, never default-filled.
const (
	keyInitialBalance       = "initial_balance"
	keyFinalBalance         = "final_balance"
	keyPerformance          = "performance"
	keyTotalTrades          = "total_trades"
	keyLongTrades           = "long_trades"
	keyShortTrades          = "short_trades"
	keyWinningTrades        = "winning_trades"
	keyLosingTrades         = "losing_trades"
	keyWinningLong          = "winning_long"
	keyWinningShort         = "winning_short"
	keyLosingLong           = "losing_long"
	keyLosingShort          = "losing_short"
	keyTotalProfit          = "total_profit"
	keyTotalLoss            = "total_loss"
	keyTotalFees            = "total_fees"
	keyNetProfit            = "net_profit"
	keyProfitFactor         = "profit_factor"
	keyMaxDrawdown          = "max_drawdown"
	keyWinRate              = "win_rate"
	keyWinRateLong          = "win_rate_long"
	keyWinRateShort         = "win_rate_short"
	keyAverageProfit        = "average_profit"
	keyAverageLoss          = "average_loss"
	keyMaxProfit            = "max_profit"
	keyMaxLoss              = "max_loss"
	keyMaxConsecutiveWins   = "max_consecutive_wins"
	keyMaxConsecutiveLosses = "max_consecutive_losses"
	keyMaxConsecutiveProfit = "max_consecutive_profit"
	keyMaxConsecutiveLoss   = "max_consecutive_loss"
	keyAverageTradeDuration = "average_trade_duration"
	keyAverageMonthlyReturn = "average_monthly_return"
	keySharpeRatio          = "sharpe_ratio"
	keySortinoRatio         = "sortino_ratio"
	keyMonthlyReturns       = "monthly_returns"
)

// ToRepr flattens a stats report into a key/value structure: one float per
// numeric field plus the month -> return map under "monthly_returns".
func ToRepr(s *models.Stats) map[string]interface{} {
	monthly := make(map[string]float64, len(s.MonthlyReturns))
	for k, v := range s.MonthlyReturns {
		monthly[k] = v
	}
	return map[string]interface{}{
		keyInitialBalance:       s.InitialBalance,
		keyFinalBalance:         s.FinalBalance,
		keyPerformance:          s.Performance,
		keyTotalTrades:          float64(s.TotalTrades),
		keyLongTrades:           float64(s.LongTrades),
		keyShortTrades:          float64(s.ShortTrades),
		keyWinningTrades:        float64(s.WinningTrades),
		keyLosingTrades:         float64(s.LosingTrades),
		keyWinningLong:          float64(s.WinningLong),
		keyWinningShort:         float64(s.WinningShort),
		keyLosingLong:           float64(s.LosingLong),
		keyLosingShort:          float64(s.LosingShort),
		keyTotalProfit:          s.TotalProfit,
		keyTotalLoss:            s.TotalLoss,
		keyTotalFees:            s.TotalFees,
		keyNetProfit:            s.NetProfit,
		keyProfitFactor:         s.ProfitFactor,
		keyMaxDrawdown:          s.MaxDrawdown,
		keyWinRate:              s.WinRate,
		keyWinRateLong:          s.WinRateLong,
		keyWinRateShort:         s.WinRateShort,
		keyAverageProfit:        s.AverageProfit,
		keyAverageLoss:          s.AverageLoss,
		keyMaxProfit:            s.MaxProfit,
		keyMaxLoss:              s.MaxLoss,
		keyMaxConsecutiveWins:   float64(s.MaxConsecutiveWins),
		keyMaxConsecutiveLosses: float64(s.MaxConsecutiveLosses),
		keyMaxConsecutiveProfit: s.MaxConsecutiveProfit,
		keyMaxConsecutiveLoss:   s.MaxConsecutiveLoss,
		keyAverageTradeDuration: s.AverageTradeDuration,
		keyAverageMonthlyReturn: s.AverageMonthlyReturn,
		keySharpeRatio:          s.SharpeRatio,
		keySortinoRatio:         s.SortinoRatio,
		keyMonthlyReturns:       monthly,
	}
}

// FromRepr rebuilds a stats report from its flat representation. Every
// required key must be present; the first missing key aborts with a
// StatsReprError.
func FromRepr(repr map[string]interface{}) (*models.Stats, error) {
	get := func(key string) (float64, error) {
		raw, ok := repr[key]
		if !ok {
			return 0, errs.NewStatsReprError(key)
		}
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		default:
			return 0, errs.NewStatsReprError(key)
		}
	}

	s := &models.Stats{}
	fields := []struct {
		key string
		dst *float64
	}{
		{keyInitialBalance, &s.InitialBalance},
		{keyFinalBalance, &s.FinalBalance},
		{keyPerformance, &s.Performance},
		{keyTotalProfit, &s.TotalProfit},
		{keyTotalLoss, &s.TotalLoss},
		{keyTotalFees, &s.TotalFees},
		{keyNetProfit, &s.NetProfit},
		{keyProfitFactor, &s.ProfitFactor},
		{keyMaxDrawdown, &s.MaxDrawdown},
		{keyWinRate, &s.WinRate},
		{keyWinRateLong, &s.WinRateLong},
		{keyWinRateShort, &s.WinRateShort},
		{keyAverageProfit, &s.AverageProfit},
		{keyAverageLoss, &s.AverageLoss},
		{keyMaxProfit, &s.MaxProfit},
		{keyMaxLoss, &s.MaxLoss},
		{keyMaxConsecutiveProfit, &s.MaxConsecutiveProfit},
		{keyMaxConsecutiveLoss, &s.MaxConsecutiveLoss},
		{keyAverageTradeDuration, &s.AverageTradeDuration},
		{keyAverageMonthlyReturn, &s.AverageMonthlyReturn},
		{keySharpeRatio, &s.SharpeRatio},
		{keySortinoRatio, &s.SortinoRatio},
	}
	for _, f := range fields {
		v, err := get(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	counts := []struct {
		key string
		dst *int
	}{
		{keyTotalTrades, &s.TotalTrades},
		{keyLongTrades, &s.LongTrades},
		{keyShortTrades, &s.ShortTrades},
		{keyWinningTrades, &s.WinningTrades},
		{keyLosingTrades, &s.LosingTrades},
		{keyWinningLong, &s.WinningLong},
		{keyWinningShort, &s.WinningShort},
		{keyLosingLong, &s.LosingLong},
		{keyLosingShort, &s.LosingShort},
		{keyMaxConsecutiveWins, &s.MaxConsecutiveWins},
		{keyMaxConsecutiveLosses, &s.MaxConsecutiveLosses},
	}
	for _, c := range counts {
		v, err := get(c.key)
		if err != nil {
			return nil, err
		}
		*c.dst = int(v)
	}

	rawMonthly, ok := repr[keyMonthlyReturns]
	if !ok {
		return nil, errs.NewStatsReprError(keyMonthlyReturns)
	}
	s.MonthlyReturns = make(map[string]float64)
	switch m := rawMonthly.(type) {
	case map[string]float64:
		for k, v := range m {
			s.MonthlyReturns[k] = v
		}
	case map[string]interface{}:
		for k, raw := range m {
			v, isFloat := raw.(float64)
			if !isFloat {
				return nil, errs.NewStatsReprError(keyMonthlyReturns)
			}
			s.MonthlyReturns[k] = v
		}
	default:
		return nil, errs.NewStatsReprError(keyMonthlyReturns)
	}

	return s, nil
}
