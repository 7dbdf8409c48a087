package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsim/internal/testutils"
)

func momentumFlatThenSpike() []float64 {
	prices := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		prices = append(prices, 100)
	}
	return append(prices, 105)
}

func TestMomentumFlatThenSpikeOpensLong(t *testing.T) {
	points := testutils.Series(time.Hour, momentumFlatThenSpike()...)

	sim := &momentumSimulator{cfg: Config{
		Strategy:          StrategyMomentum,
		InitialCapital:    1000,
		PositionSize:      100,
		MomentumPeriod:    20,
		MomentumThreshold: 2,
	}}
	led := sim.run(points)

	var entry *Trade
	for i := range led.trades {
		if led.trades[i].Kind == TradeEntry {
			entry = &led.trades[i]
			break
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, SideLong, entry.Side)
	assert.Equal(t, points[20].Timestamp, entry.Timestamp)
	// momentum = (105 - 100) / 100 * 100 = 5.0
	assert.Contains(t, entry.Reason, "5.0")
}

func TestMomentumWarmupTakesNoAction(t *testing.T) {
	points := testutils.LinearSeries(10, time.Hour, 100, 150)

	sim := &momentumSimulator{cfg: Config{
		Strategy:          StrategyMomentum,
		InitialCapital:    1000,
		PositionSize:      100,
		MomentumPeriod:    20,
		MomentumThreshold: 2,
	}}
	led := sim.run(points)

	assert.Empty(t, led.trades)
	for _, e := range led.equity {
		assert.InDelta(t, 1000, e.Value, 1e-9)
	}
}

func TestMomentumReversalClosesLong(t *testing.T) {
	prices := append(momentumFlatThenSpike(), 95, 95)
	points := testutils.Series(time.Hour, prices...)

	sim := &momentumSimulator{cfg: Config{
		Strategy:          StrategyMomentum,
		InitialCapital:    1000,
		PositionSize:      100,
		MomentumPeriod:    20,
		MomentumThreshold: 2,
	}}
	led := sim.run(points)

	var exit *Trade
	for i := range led.trades {
		if led.trades[i].Kind == TradeExit {
			exit = &led.trades[i]
			break
		}
	}
	require.NotNil(t, exit)
	// At the drop to 95 the trailing mean is 100.25, momentum -5.2%, well
	// past the opposite threshold.
	assert.Contains(t, exit.Reason, "reversal")
	require.NotNil(t, exit.PnL)
	assert.Negative(t, *exit.PnL)
}

func TestMomentumShortEntryAndStopLoss(t *testing.T) {
	prices := make([]float64, 0, 23)
	for i := 0; i < 20; i++ {
		prices = append(prices, 100)
	}
	// Drop opens a short; the rebound blows through the stop.
	prices = append(prices, 95, 105, 105)
	points := testutils.Series(time.Hour, prices...)

	sim := &momentumSimulator{cfg: Config{
		Strategy:          StrategyMomentum,
		InitialCapital:    1000,
		PositionSize:      100,
		MomentumPeriod:    20,
		MomentumThreshold: 2,
		StopLossPercent:   5,
	}}
	led := sim.run(points)

	require.NotEmpty(t, led.trades)
	entry := led.trades[0]
	assert.Equal(t, TradeEntry, entry.Kind)
	assert.Equal(t, SideShort, entry.Side)

	var exit *Trade
	for i := range led.trades {
		if led.trades[i].Kind == TradeExit {
			exit = &led.trades[i]
			break
		}
	}
	require.NotNil(t, exit)
	assert.Equal(t, "Stop loss", exit.Reason)
	require.NotNil(t, exit.PnL)
	assert.Negative(t, *exit.PnL)
}
