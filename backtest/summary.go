package backtest

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/quantforge/tradecore/model"
)

// Summary renders a per-strategy results table with an overall footer.
func Summary(w io.Writer, result *model.BacktestResult) {
	fmt.Fprintf(w, "%s %s: %d candles, %s to %s\n",
		result.Symbol, result.Period, result.TotalCandles,
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Strategy", "Trades", "Win", "Loss", "% Win", "PF", "Max Streak", "Avg Hold", "PnL %"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for _, s := range result.StrategyStats {
		table.Append([]string{
			s.StrategyID,
			strconv.Itoa(s.TotalTrades),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
			fmt.Sprintf("%.1f %%", s.WinRate),
			formatProfitFactor(s.ProfitFactor),
			strconv.Itoa(s.MaxConsecutiveLosses),
			fmt.Sprintf("%.1fh", s.AvgHoldingHours),
			fmt.Sprintf("%+.2f", s.TotalPnlPercent),
		})
	}

	o := result.Overall
	table.SetFooter([]string{
		"TOTAL",
		strconv.Itoa(o.TotalTrades),
		strconv.Itoa(o.Wins),
		strconv.Itoa(o.Losses),
		fmt.Sprintf("%.1f %%", o.WinRate),
		"",
		fmt.Sprintf("DD %.1f%%", o.MaxDrawdownPercent),
		fmt.Sprintf("SR %.2f", o.SharpeRatio),
		fmt.Sprintf("%+.2f", o.TotalPnlPercent),
	})
	table.Render()

	if o.BestStrategy != "" {
		fmt.Fprintf(w, "best: %s  worst: %s\n", o.BestStrategy, o.WorstStrategy)
	}
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
