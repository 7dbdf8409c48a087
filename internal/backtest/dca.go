package backtest

import (
	"time"

	"qsim/internal/market/price"
)

// dcaSimulator replays a scheduled-accumulation (dollar-cost averaging)
// strategy: buy a fixed notional amount on a fixed wall-time interval and
// track the weighted-average entry price of the accumulated position.
type dcaSimulator struct {
	cfg Config
}

func (s *dcaSimulator) run(points []price.Point) *ledger {
	led := newLedger(len(points))

	cash := s.cfg.InitialCapital
	size := 0.0
	avgEntry := 0.0
	interval := time.Duration(s.cfg.DCAIntervalHours) * time.Hour
	var lastBuy time.Time

	for i, p := range points {
		// The first sample always triggers a buy; it seeds the ladder.
		due := i == 0 || p.Timestamp.Sub(lastBuy) >= interval
		if due && s.cfg.DCAAmount > 0 && cash >= s.cfg.DCAAmount {
			bought := s.cfg.DCAAmount / p.Price
			avgEntry = (avgEntry*size + p.Price*bought) / (size + bought)
			size += bought
			cash -= s.cfg.DCAAmount
			lastBuy = p.Timestamp
			led.addEntry(p.Timestamp, SideLong, p.Price, bought, "DCA interval")
		}

		// Stop-loss / take-profit close the entire accumulated position and
		// return to an accumulation-ready state.
		if size > 0 && avgEntry > 0 {
			pnlPct := (p.Price - avgEntry) / avgEntry * 100
			reason := ""
			if s.cfg.StopLossPercent > 0 && pnlPct <= -s.cfg.StopLossPercent {
				reason = "Stop loss"
			} else if s.cfg.TakeProfitPercent > 0 && pnlPct >= s.cfg.TakeProfitPercent {
				reason = "Take profit"
			}
			if reason != "" {
				pnl := (p.Price - avgEntry) * size
				cash += size * p.Price
				led.addExit(p.Timestamp, SideLong, p.Price, size, pnl, reason)
				size = 0
				avgEntry = 0
			}
		}

		led.mark(p.Timestamp, cash+size*p.Price, cash)
	}

	if size > 0 {
		last := points[len(points)-1]
		pnl := (last.Price - avgEntry) * size
		cash += size * last.Price
		led.addExit(last.Timestamp, SideLong, last.Price, size, pnl, "End of backtest")
	}

	return led
}
