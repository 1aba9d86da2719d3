// Package stats derives the fixed performance report from a trader's trade
// and balance history. It is stateless: the report is recomputed wholesale
// from the history on every call, so repeated calls on unchanged history
// yield identical results.
package stats

import (
	"math"

	"neat-trader/internal/models"
)

// Calculate computes the full performance report. Balances is the per-step
// balance series starting with the initial balance; trades may include an
// open trade, which is ignored.
func Calculate(trades []models.Trade, balances []float64) *models.Stats {
	s := &models.Stats{
		MonthlyReturns: make(map[string]float64),
	}

	// Only closed trades count.
	closed := make([]models.Trade, 0, len(trades))
	for _, tr := range trades {
		if tr.Closed {
			closed = append(closed, tr)
		}
	}

	if len(balances) > 0 {
		s.InitialBalance = balances[0]
		s.FinalBalance = balances[len(balances)-1]
		if s.InitialBalance != 0 {
			s.Performance = (s.FinalBalance - s.InitialBalance) / s.InitialBalance
		}
	}

	s.MaxDrawdown = maxDrawdown(balances)

	for _, tr := range closed {
		s.TotalTrades++
		long := tr.Side == models.SideLong
		if long {
			s.LongTrades++
		} else {
			s.ShortTrades++
		}
		if tr.PnL >= 0 {
			s.WinningTrades++
			s.TotalProfit += tr.PnL
			if long {
				s.WinningLong++
			} else {
				s.WinningShort++
			}
		} else {
			s.LosingTrades++
			s.TotalLoss += -tr.PnL
			if long {
				s.LosingLong++
			} else {
				s.LosingShort++
			}
		}
		s.TotalFees += tr.Fees
	}
	s.NetProfit = s.TotalProfit - s.TotalLoss - s.TotalFees

	s.WinRate = ratio(s.WinningTrades, s.TotalTrades)
	s.WinRateLong = ratio(s.WinningLong, s.LongTrades)
	s.WinRateShort = ratio(s.WinningShort, s.ShortTrades)

	if s.WinningTrades > 0 {
		s.AverageProfit = s.TotalProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = s.TotalLoss / float64(s.LosingTrades)
	}

	lossSide := (1 - s.WinRate) * s.AverageLoss
	if lossSide != 0 {
		s.ProfitFactor = (s.WinRate * s.AverageProfit) / lossSide
	}

	s.MaxProfit, s.MaxLoss = extremes(closed)
	s.MaxConsecutiveWins, s.MaxConsecutiveLosses = streakCounts(closed)
	s.MaxConsecutiveProfit, s.MaxConsecutiveLoss = streakAmounts(closed)

	if len(closed) > 0 {
		var total int
		for _, tr := range closed {
			total += tr.Duration
		}
		s.AverageTradeDuration = float64(total) / float64(len(closed))
	}

	s.MonthlyReturns = monthlyReturns(closed)
	s.AverageMonthlyReturn = meanValues(s.MonthlyReturns)
	s.SharpeRatio, s.SortinoRatio = riskAdjusted(s.MonthlyReturns, s.AverageMonthlyReturn)

	return s
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// maxDrawdown makes a single pass over the balance series, tracking the
// running peak and the deepest trough since that peak.
func maxDrawdown(balances []float64) float64 {
	var peak, maxDD float64
	for _, b := range balances {
		if b > peak {
			peak = b
		}
		if peak > 0 {
			if dd := (peak - b) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func extremes(closed []models.Trade) (maxProfit, maxLoss float64) {
	for _, tr := range closed {
		if tr.PnL > maxProfit {
			maxProfit = tr.PnL
		}
		if tr.PnL < maxLoss {
			maxLoss = tr.PnL
		}
	}
	return maxProfit, maxLoss
}

// streakCounts returns the longest runs of consecutive winning (pnl >= 0)
// and losing trades. A run is reset by any trade on the other side of the
// sign boundary.
func streakCounts(closed []models.Trade) (maxWins, maxLosses int) {
	var wins, losses int
	for _, tr := range closed {
		if tr.PnL >= 0 {
			wins++
			losses = 0
		} else {
			losses++
			wins = 0
		}
		if wins > maxWins {
			maxWins = wins
		}
		if losses > maxLosses {
			maxLosses = losses
		}
	}
	return maxWins, maxLosses
}

// streakAmounts returns the largest summed profit over a winning streak and
// the most negative summed loss over a losing streak.
func streakAmounts(closed []models.Trade) (maxProfit, maxLoss float64) {
	var profitRun, lossRun float64
	for _, tr := range closed {
		if tr.PnL >= 0 {
			profitRun += tr.PnL
			lossRun = 0
		} else {
			lossRun += tr.PnL
			profitRun = 0
		}
		if profitRun > maxProfit {
			maxProfit = profitRun
		}
		if lossRun < maxLoss {
			maxLoss = lossRun
		}
	}
	return maxProfit, maxLoss
}

// monthlyReturns groups net percentage returns by exit month and compounds
// them: the month's return is prod(1+r) - 1, rounded to 4 decimals.
func monthlyReturns(closed []models.Trade) map[string]float64 {
	factors := make(map[string]float64)
	for _, tr := range closed {
		month := tr.ExitTime.Format("2006-01")
		f, ok := factors[month]
		if !ok {
			f = 1
		}
		factors[month] = f * (1 + tr.PnLNetPercent)
	}

	returns := make(map[string]float64, len(factors))
	for month, f := range factors {
		returns[month] = math.Round((f-1)*10000) / 10000
	}
	return returns
}

func meanValues(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	var total float64
	for _, v := range m {
		total += v
	}
	return total / float64(len(m))
}

// riskAdjusted returns the Sharpe and Sortino ratios over the monthly-return
// series. Sharpe divides by the population standard deviation of all monthly
// returns; Sortino divides by the population standard deviation of the
// negative monthly returns only. Either is 0 when its denominator is.
func riskAdjusted(monthly map[string]float64, mean float64) (sharpe, sortino float64) {
	if len(monthly) == 0 {
		return 0, 0
	}

	all := make([]float64, 0, len(monthly))
	var negative []float64
	for _, r := range monthly {
		all = append(all, r)
		if r < 0 {
			negative = append(negative, r)
		}
	}

	if sd := popStdDev(all); sd > 0 {
		sharpe = mean / sd
	}
	if len(negative) > 0 {
		if sd := popStdDev(negative); sd > 0 {
			sortino = mean / sd
		}
	}
	return sharpe, sortino
}

func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var m float64
	for _, v := range values {
		m += v
	}
	m /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
