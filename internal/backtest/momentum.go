package backtest

import (
	"fmt"
	"math"

	"qsim/internal/market/price"
)

// momentumSimulator replays a trend-following strategy: enter in the
// direction of a sufficiently large deviation from the trailing moving
// average, exit on stop-loss, take-profit or a momentum reversal.
type momentumSimulator struct {
	cfg Config
}

func (s *momentumSimulator) run(points []price.Point) *ledger {
	led := newLedger(len(points))

	cash := s.cfg.InitialCapital
	pos := &position{}
	period := s.cfg.MomentumPeriod
	threshold := s.cfg.MomentumThreshold

	for i, p := range points {
		// Warm-up: no signal until a full trailing window exists.
		if i >= period {
			mean := 0.0
			for _, w := range points[i-period : i] {
				mean += w.Price
			}
			mean /= float64(period)

			momentum := 0.0
			if mean != 0 {
				momentum = (p.Price - mean) / mean * 100
			}

			if !pos.isOpen() {
				if math.Abs(momentum) > threshold && s.cfg.PositionSize > 0 && cash >= s.cfg.PositionSize {
					size := s.cfg.PositionSize / p.Price
					reason := fmt.Sprintf("Momentum %.1f%%", momentum)
					if momentum > 0 {
						pos.openLong(p.Price, size)
						led.addEntry(p.Timestamp, SideLong, p.Price, size, reason)
					} else {
						pos.openShort(p.Price, size)
						led.addEntry(p.Timestamp, SideShort, p.Price, size, reason)
					}
					cash -= s.cfg.PositionSize
				}
			} else {
				pnlPct := pos.pnlPercent(p.Price)
				reason := ""
				switch {
				case s.cfg.StopLossPercent > 0 && pnlPct <= -s.cfg.StopLossPercent:
					reason = "Stop loss"
				case s.cfg.TakeProfitPercent > 0 && pnlPct >= s.cfg.TakeProfitPercent:
					reason = "Take profit"
				case pos.state == positionLong && momentum < -threshold:
					reason = fmt.Sprintf("Momentum %.1f%% (reversal)", momentum)
				case pos.state == positionShort && momentum > threshold:
					reason = fmt.Sprintf("Momentum %.1f%% (reversal)", momentum)
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
