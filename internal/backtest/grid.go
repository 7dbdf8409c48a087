package backtest

import (
	"fmt"
	"time"

	"qsim/internal/market/price"
)

// subPosition is one independently priced grid lot. It is immutable once
// created; exits always remove the oldest lot first.
type subPosition struct {
	timestamp  time.Time
	entryPrice float64
	size       float64
}

// subPositionQueue is a FIFO of grid lots: push at entry, pop-front at exit.
type subPositionQueue struct {
	items []subPosition
}

func (q *subPositionQueue) push(p subPosition) {
	q.items = append(q.items, p)
}

func (q *subPositionQueue) popFront() (subPosition, bool) {
	if len(q.items) == 0 {
		return subPosition{}, false
	}
	front := q.items[0]
	q.items = q.items[1:]
	return front, true
}

func (q *subPositionQueue) len() int {
	return len(q.items)
}

// markValue is the mark-to-market value of all queued lots at the given
// price.
func (q *subPositionQueue) markValue(price float64) float64 {
	total := 0.0
	for _, p := range q.items {
		total += p.size * price
	}
	return total
}

// gridSimulator replays a grid strategy over equally spaced price levels.
//
// The grid bounds are derived from the observed minimum and maximum of the
// whole series before the replay starts. A live strategy cannot know these
// bounds in advance; keeping them defined this way makes reruns over the
// same history reproduce earlier published results.
type gridSimulator struct {
	cfg Config
}

func (s *gridSimulator) run(points []price.Point) *ledger {
	led := newLedger(len(points))

	gridMin, gridMax := points[0].Price, points[0].Price
	for _, p := range points {
		if p.Price < gridMin {
			gridMin = p.Price
		}
		if p.Price > gridMax {
			gridMax = p.Price
		}
	}

	spacing := (gridMax - gridMin) / float64(s.cfg.GridLevels+1)
	levels := make([]float64, s.cfg.GridLevels)
	for i := range levels {
		levels[i] = gridMin + spacing*float64(i+1)
	}

	cash := s.cfg.InitialCapital
	queue := &subPositionQueue{}

	for i, p := range points {
		if i > 0 && spacing > 0 {
			prev := points[i-1].Price
			for _, level := range levels {
				switch {
				case prev < level && level <= p.Price:
					// Rising cross: close the oldest lot, if any.
					if lot, ok := queue.popFront(); ok {
						pnl := (p.Price - lot.entryPrice) * lot.size
						cash += lot.size * p.Price
						led.addExit(p.Timestamp, SideLong, p.Price, lot.size, pnl,
							fmt.Sprintf("Grid sell at %.2f", level))
					}
				case prev > level && level >= p.Price:
					// Falling cross: open a new lot if cash allows.
					if s.cfg.PositionSize > 0 && cash >= s.cfg.PositionSize {
						lot := subPosition{
							timestamp:  p.Timestamp,
							entryPrice: p.Price,
							size:       s.cfg.PositionSize / p.Price,
						}
						queue.push(lot)
						cash -= s.cfg.PositionSize
						led.addEntry(p.Timestamp, SideLong, p.Price, lot.size,
							fmt.Sprintf("Grid buy at %.2f", level))
					}
				}
			}
		}

		led.mark(p.Timestamp, cash+queue.markValue(p.Price), cash)
	}

	// Close out every remaining lot at the final price, oldest first.
	last := points[len(points)-1]
	for {
		lot, ok := queue.popFront()
		if !ok {
			break
		}
		pnl := (last.Price - lot.entryPrice) * lot.size
		cash += lot.size * last.Price
		led.addExit(last.Timestamp, SideLong, last.Price, lot.size, pnl, "End of backtest")
	}

	return led
}
