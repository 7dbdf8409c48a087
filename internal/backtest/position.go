package backtest

// positionState is the explicit state of the single directional position used
// by the momentum and mean-reversion simulators. Transitions are flat -> open
// (long or short) -> flat; there is no resizing or flipping in place.
type positionState int

const (
	positionFlat positionState = iota
	positionLong
	positionShort
)

// position holds the open-position bookkeeping for single-position
// strategies.
type position struct {
	state      positionState
	entryPrice float64
	size       float64
}

// openLong transitions flat -> long.
func (p *position) openLong(price, size float64) {
	p.state = positionLong
	p.entryPrice = price
	p.size = size
}

// openShort transitions flat -> short.
func (p *position) openShort(price, size float64) {
	p.state = positionShort
	p.entryPrice = price
	p.size = size
}

// close transitions back to flat.
func (p *position) close() {
	*p = position{}
}

func (p *position) isOpen() bool {
	return p.state != positionFlat
}

func (p *position) side() TradeSide {
	if p.state == positionShort {
		return SideShort
	}
	return SideLong
}

// notional is the capital committed at entry.
func (p *position) notional() float64 {
	return p.entryPrice * p.size
}

// unrealizedPnL is the mark-to-market profit at the given price; zero when
// flat.
func (p *position) unrealizedPnL(price float64) float64 {
	switch p.state {
	case positionLong:
		return (price - p.entryPrice) * p.size
	case positionShort:
		return (p.entryPrice - price) * p.size
	default:
		return 0
	}
}

// pnlPercent is the percentage move of the position at the given price,
// positive when in profit regardless of side.
func (p *position) pnlPercent(price float64) float64 {
	if !p.isOpen() || p.entryPrice == 0 {
		return 0
	}
	switch p.state {
	case positionShort:
		return (p.entryPrice - price) / p.entryPrice * 100
	default:
		return (price - p.entryPrice) / p.entryPrice * 100
	}
}
