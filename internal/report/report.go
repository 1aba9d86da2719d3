// Package report renders performance statistics as a human-readable
// text report.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"neat-trader/internal/models"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	label   = color.New(color.FgWhite).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
)

// Generate writes a formatted performance report for s to w.
func Generate(w io.Writer, s *models.Stats) error {
	if s == nil {
		return fmt.Errorf("report: nil stats")
	}

	section(w, "Account")
	line(w, "Initial Balance", fmt.Sprintf("%.2f", s.InitialBalance))
	line(w, "Final Balance", fmt.Sprintf("%.2f", s.FinalBalance))
	line(w, "Performance", signedPercent(s.Performance*100))
	line(w, "Max Drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown*100))

	section(w, "Trades")
	line(w, "Total Trades", fmt.Sprintf("%d", s.TotalTrades))
	line(w, "Winning / Losing", fmt.Sprintf("%d / %d", s.WinningTrades, s.LosingTrades))
	line(w, "Long / Short", fmt.Sprintf("%d / %d", s.LongTrades, s.ShortTrades))
	line(w, "Win Rate", fmt.Sprintf("%.2f%%", s.WinRate*100))
	line(w, "Long Win Rate", fmt.Sprintf("%.2f%%", s.WinRateLong*100))
	line(w, "Short Win Rate", fmt.Sprintf("%.2f%%", s.WinRateShort*100))
	line(w, "Profit Factor", fmt.Sprintf("%.2f", s.ProfitFactor))
	line(w, "Avg Trade Duration", fmt.Sprintf("%.1f steps", s.AverageTradeDuration))

	section(w, "Profit & Loss")
	line(w, "Total Profit", signedAmount(s.TotalProfit))
	line(w, "Total Loss", signedAmount(-s.TotalLoss))
	line(w, "Total Fees", fmt.Sprintf("%.2f", s.TotalFees))
	line(w, "Net Profit", signedAmount(s.NetProfit))
	line(w, "Average Profit", signedAmount(s.AverageProfit))
	line(w, "Average Loss", signedAmount(-s.AverageLoss))
	line(w, "Max Profit", signedAmount(s.MaxProfit))
	line(w, "Max Loss", signedAmount(s.MaxLoss))
	line(w, "Max Consecutive Wins", fmt.Sprintf("%d", s.MaxConsecutiveWins))
	line(w, "Max Consecutive Losses", fmt.Sprintf("%d", s.MaxConsecutiveLosses))
	line(w, "Max Consecutive Profit", signedAmount(s.MaxConsecutiveProfit))
	line(w, "Max Consecutive Loss", signedAmount(s.MaxConsecutiveLoss))

	section(w, "Risk-Adjusted")
	line(w, "Sharpe Ratio", fmt.Sprintf("%.4f", s.SharpeRatio))
	line(w, "Sortino Ratio", fmt.Sprintf("%.4f", s.SortinoRatio))
	line(w, "Avg Monthly Return", signedPercent(s.AverageMonthlyReturn*100))

	if len(s.MonthlyReturns) > 0 {
		section(w, "Monthly Returns")
		months := make([]string, 0, len(s.MonthlyReturns))
		for m := range s.MonthlyReturns {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months {
			line(w, monthLabel(m), signedPercent(s.MonthlyReturns[m]*100))
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", heading(title))
}

func line(w io.Writer, name, value string) {
	fmt.Fprintf(w, "  %-24s %s\n", label(name), value)
}

func signedAmount(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	if v > 0 {
		return green(s)
	}
	if v < 0 {
		return red(s)
	}
	return s
}

func signedPercent(v float64) string {
	s := fmt.Sprintf("%+.2f%%", v)
	if v > 0 {
		return green(s)
	}
	if v < 0 {
		return red(s)
	}
	return s
}

func monthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
