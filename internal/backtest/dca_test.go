package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsim/internal/testutils"
)

func TestDCAConstantPrice(t *testing.T) {
	// 7 days of hourly samples at a constant $100.
	points := testutils.ConstantSeries(7*24, time.Hour, 100)

	sim := &dcaSimulator{cfg: Config{
		Strategy:          StrategyDCA,
		Symbol:            "BTCUSDT",
		InitialCapital:    1000,
		DCAAmount:         50,
		DCAIntervalHours:  12,
		StopLossPercent:   10,
		TakeProfitPercent: 10,
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

	// One seed buy at sample 0, then one every 12 hours.
	require.Len(t, entries, 14)
	for _, tr := range entries {
		assert.Equal(t, SideLong, tr.Side)
		assert.Equal(t, "DCA interval", tr.Reason)
		assert.InDelta(t, 0.5, tr.Size, 1e-9)
	}

	// Price never moves, so the only exit is the forced one.
	require.Len(t, exits, 1)
	assert.Equal(t, "End of backtest", exits[0].Reason)
	require.NotNil(t, exits[0].PnL)
	assert.InDelta(t, 0, *exits[0].PnL, 1e-9)
	assert.InDelta(t, 7.0, exits[0].Size, 1e-9)

	// Flat price means a flat equity curve at initial capital.
	require.NotEmpty(t, led.equity)
	assert.InDelta(t, 1000, led.equity[0].Value, 1e-9)
	assert.InDelta(t, 1000, led.equity[len(led.equity)-1].Value, 1e-9)
}

func TestDCAFirstSampleAlwaysBuys(t *testing.T) {
	points := testutils.ConstantSeries(3, time.Hour, 200)

	sim := &dcaSimulator{cfg: Config{
		Strategy:         StrategyDCA,
		InitialCapital:   1000,
		DCAAmount:        100,
		DCAIntervalHours: 1000, // far longer than the series
	}}
	led := sim.run(points)

	entries := 0
	for _, tr := range led.trades {
		if tr.Kind == TradeEntry {
			entries++
		}
	}
	assert.Equal(t, 1, entries, "only the seed buy should trigger")
}

func TestDCAStopLossClosesWholePosition(t *testing.T) {
	// One buy at 100, then the price collapses through the stop.
	points := testutils.Series(time.Hour, 100, 100, 80, 80)

	sim := &dcaSimulator{cfg: Config{
		Strategy:         StrategyDCA,
		InitialCapital:   1000,
		DCAAmount:        100,
		DCAIntervalHours: 1000,
		StopLossPercent:  10,
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
	assert.Equal(t, "Stop loss", exit.Reason)
	require.NotNil(t, exit.PnL)
	assert.InDelta(t, (80.0-100.0)*1.0, *exit.PnL, 1e-9)

	// Nothing left to force-close at series end.
	exits := 0
	for _, tr := range led.trades {
		if tr.Kind == TradeExit {
			exits++
		}
	}
	assert.Equal(t, 1, exits)
}

func TestDCASkipsBuyWhenCashExhausted(t *testing.T) {
	points := testutils.ConstantSeries(10, time.Hour, 100)

	sim := &dcaSimulator{cfg: Config{
		Strategy:         StrategyDCA,
		InitialCapital:   250,
		DCAAmount:        100,
		DCAIntervalHours: 1,
	}}
	led := sim.run(points)

	entries := 0
	for _, tr := range led.trades {
		if tr.Kind == TradeEntry {
			entries++
		}
	}
	// 250 of capital covers two 100-notional buys; the third is skipped,
	// silently, every hour after.
	assert.Equal(t, 2, entries)
}
