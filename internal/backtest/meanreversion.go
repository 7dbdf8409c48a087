package backtest

import (
	"fmt"

	"qsim/internal/market/price"
)

// meanReversionSimulator replays an oscillator strategy driven by the
// Relative Strength Index: go long when oversold, short when overbought,
// exit on stop-loss, take-profit or RSI crossing back through the midpoint.
type meanReversionSimulator struct {
	cfg Config
}

// rsiAt computes the RSI at index i over the trailing window of price
// deltas, using simple averages of gains and losses. Requires i >= period.
func rsiAt(points []price.Point, i, period int) float64 {
	gains := 0.0
	losses := 0.0
	for j := i - period + 1; j <= i; j++ {
		delta := points[j].Price - points[j-1].Price
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	gains /= float64(period)
	losses /= float64(period)

	if losses == 0 {
		return 100
	}
	return 100 - 100/(1+gains/losses)
}

func (s *meanReversionSimulator) run(points []price.Point) *ledger {
	led := newLedger(len(points))

	cash := s.cfg.InitialCapital
	pos := &position{}
	period := s.cfg.RSIPeriod

	for i, p := range points {
		if i >= period {
			rsi := rsiAt(points, i, period)

			if !pos.isOpen() {
				if s.cfg.PositionSize > 0 && cash >= s.cfg.PositionSize {
					size := s.cfg.PositionSize / p.Price
					if rsi < s.cfg.RSIOversold {
						pos.openLong(p.Price, size)
						cash -= s.cfg.PositionSize
						led.addEntry(p.Timestamp, SideLong, p.Price, size,
							fmt.Sprintf("RSI %.1f (oversold)", rsi))
					} else if rsi > s.cfg.RSIOverbought {
						pos.openShort(p.Price, size)
						cash -= s.cfg.PositionSize
						led.addEntry(p.Timestamp, SideShort, p.Price, size,
							fmt.Sprintf("RSI %.1f (overbought)", rsi))
					}
				}
			} else {
				pnlPct := pos.pnlPercent(p.Price)
				reason := ""
				switch {
				case s.cfg.StopLossPercent > 0 && pnlPct <= -s.cfg.StopLossPercent:
					reason = "Stop loss"
				case s.cfg.TakeProfitPercent > 0 && pnlPct >= s.cfg.TakeProfitPercent:
					reason = "Take profit"
				case pos.state == positionLong && rsi > 50:
					reason = fmt.Sprintf("RSI %.1f (reversion)", rsi)
				case pos.state == positionShort && rsi < 50:
					reason = fmt.Sprintf("RSI %.1f (reversion)", rsi)
				}
				if reason != "" {
					pnl := pos.unrealizedPnL(p.Price)
					cash += pos.notional() + pnl
					led.addExit(p.Timestamp, pos.side(), p.Price, pos.size, pnl, reason)
					pos.close()
				}
			}
		}

		led.mark(p.Timestamp, cash+pos.notional()+pos.unrealizedPnL(p.Price), cash)
	}

	if pos.isOpen() {
		last := points[len(points)-1]
		pnl := pos.unrealizedPnL(last.Price)
		cash += pos.notional() + pnl
		led.addExit(last.Timestamp, pos.side(), last.Price, pos.size, pnl, "End of backtest")
	}

	return led
}
