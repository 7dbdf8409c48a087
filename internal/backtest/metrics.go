package backtest

import (
	"math"
)

// annualization applied to the Sharpe ratio regardless of sample cadence.
const sharpeAnnualization = 365

// calculateMetrics derives the result statistics from a finished run. It is
// a pure function of the ledger and the initial capital; every division is
// guarded so the result never contains NaN.
func calculateMetrics(led *ledger, initialCapital float64) Metrics {
	m := Metrics{}

	finalCapital := initialCapital
	if len(led.equity) > 0 {
		finalCapital = led.equity[len(led.equity)-1].Value
	}
	m.TotalReturn = finalCapital - initialCapital
	if initialCapital != 0 {
		m.TotalReturnPercent = m.TotalReturn / initialCapital * 100
	}

	// Closed-trade statistics come from exit trades with a realized pnl.
	var pnls []float64
	for _, t := range led.trades {
		if t.Kind == TradeExit && t.PnL != nil {
			pnls = append(pnls, *t.PnL)
		}
	}

	m.TotalTrades = len(pnls)
	grossProfit := 0.0
	grossLoss := 0.0
	for _, pnl := range pnls {
		if pnl > 0 {
			m.WinningTrades++
			grossProfit += pnl
			if pnl > m.LargestWin {
				m.LargestWin = pnl
			}
		} else if pnl < 0 {
			m.LosingTrades++
			grossLoss += -pnl
			if -pnl > m.LargestLoss {
				m.LargestLoss = -pnl
			}
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin = grossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
	}
	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	}

	m.MaxDrawdown, m.MaxDrawdownPercent = drawdown(led.equity)
	m.SharpeRatio = sharpeRatio(led.equity)

	// Capital usage from the parallel uninvested-cash series.
	if len(led.cash) > 0 {
		minCash := led.cash[0]
		sumCash := 0.0
		for _, c := range led.cash {
			if c < minCash {
				minCash = c
			}
			sumCash += c
		}
		m.MaxInvested = initialCapital - minCash
		m.AvgInvested = initialCapital - sumCash/float64(len(led.cash))
		if initialCapital != 0 {
			m.MaxInvestedPercent = m.MaxInvested / initialCapital * 100
			m.AvgInvestedPercent = m.AvgInvested / initialCapital * 100
		}
	}

	return m
}

// drawdown scans the equity curve with a running peak and returns the
// largest absolute decline plus that decline as a percentage.
//
// The percentage is taken against the peak value the running tracker holds
// after the full scan, not the peak concurrent with the drawdown event.
// Changing this would alter published numbers for identical inputs.
func drawdown(equity []EquityPoint) (maxDD, maxDDPercent float64) {
	if len(equity) == 0 {
		return 0, 0
	}
	peak := equity[0].Value
	for _, e := range equity {
		if e.Value > peak {
			peak = e.Value
		}
		if dd := peak - e.Value; dd > maxDD {
			maxDD = dd
		}
	}
	if peak > 0 {
		maxDDPercent = maxDD / peak * 100
	}
	return maxDD, maxDDPercent
}

// sharpeRatio computes mean/stddev of per-step equity returns, annualized
// with the fixed constant. Zero when the deviation is zero.
func sharpeRatio(equity []EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Value-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0
	}
	return mean / stdDev * math.Sqrt(sharpeAnnualization)
}
