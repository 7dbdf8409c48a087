package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsim/internal/testutils"
)

func TestGridMonotonicRiseNeverTrades(t *testing.T) {
	// Strictly increasing from 90 to 110: every level crossing is a sell
	// signal, and with no prior buys the FIFO queue stays empty throughout.
	points := testutils.LinearSeries(100, time.Hour, 90, 110)

	sim := &gridSimulator{cfg: Config{
		Strategy:       StrategyGrid,
		InitialCapital: 1000,
		PositionSize:   50,
		GridLevels:     10,
	}}
	led := sim.run(points)

	assert.Empty(t, led.trades)
	require.NotEmpty(t, led.equity)
	assert.InDelta(t, 1000, led.equity[len(led.equity)-1].Value, 1e-9)
}

func TestGridBuysOnFallSellsOnRise(t *testing.T) {
	// One leg down through every level, one leg back up.
	points := testutils.Series(time.Hour, 100, 94, 100)

	sim := &gridSimulator{cfg: Config{
		Strategy:       StrategyGrid,
		InitialCapital: 1000,
		PositionSize:   50,
		GridLevels:     10,
	}}
	led := sim.run(points)

	var entries, exits []Trade
	for _, tr := range led.trades {
		if tr.Kind == TradeEntry {
			entries = append(entries, tr)
		} else {
			exits = append(exits, tr)
		}
	}

	require.Len(t, entries, 10)
	require.Len(t, exits, 10)
	for _, tr := range entries {
		assert.InDelta(t, 94, tr.Price, 1e-9)
		assert.InDelta(t, 50.0/94.0, tr.Size, 1e-9)
	}
	for _, tr := range exits {
		assert.InDelta(t, 100, tr.Price, 1e-9)
		require.NotNil(t, tr.PnL)
		assert.InDelta(t, (100.0-94.0)*(50.0/94.0), *tr.PnL, 1e-9)
	}
}

func TestGridClosesOldestLotFirst(t *testing.T) {
	// Two legs down at different prices, then one leg up through all levels.
	// The first sells must close the lots bought at 97 before the ones
	// bought at 94.
	points := testutils.Series(time.Hour, 100, 97, 94, 100)

	sim := &gridSimulator{cfg: Config{
		Strategy:       StrategyGrid,
		InitialCapital: 1000,
		PositionSize:   50,
		GridLevels:     10,
	}}
	led := sim.run(points)

	var exits []Trade
	for _, tr := range led.trades {
		if tr.Kind == TradeExit {
			exits = append(exits, tr)
		}
	}
	require.Len(t, exits, 10)

	// Lots from the 97 leg exit first (FIFO), then the 94 leg.
	for i, tr := range exits {
		require.NotNil(t, tr.PnL)
		if i < 5 {
			assert.InDelta(t, (100.0-97.0)*(50.0/97.0), *tr.PnL, 1e-9)
		} else {
			assert.InDelta(t, (100.0-94.0)*(50.0/94.0), *tr.PnL, 1e-9)
		}
	}
}

func TestGridForceClosesRemainingLots(t *testing.T) {
	// Falls through the levels and never recovers: every lot is closed at
	// the final price with the forced reason.
	points := testutils.Series(time.Hour, 100, 94, 94)

	sim := &gridSimulator{cfg: Config{
		Strategy:       StrategyGrid,
		InitialCapital: 1000,
		PositionSize:   50,
		GridLevels:     5,
	}}
	led := sim.run(points)

	exits := 0
	for _, tr := range led.trades {
		if tr.Kind == TradeExit {
			exits++
			assert.Equal(t, "End of backtest", tr.Reason)
		}
	}
	assert.Equal(t, 5, exits)
}

func TestGridConstantPriceIsInert(t *testing.T) {
	points := testutils.ConstantSeries(50, time.Hour, 100)

	sim := &gridSimulator{cfg: Config{
		Strategy:       StrategyGrid,
		InitialCapital: 1000,
		PositionSize:   50,
		GridLevels:     10,
	}}
	led := sim.run(points)

	assert.Empty(t, led.trades)
}
