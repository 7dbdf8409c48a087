package backtest

import (
	"context"
	"fmt"
	"time"

	"qsim/internal/errors"
	"qsim/internal/logger"
	"qsim/internal/market/price"
)

const defaultFetchTimeout = 30 * time.Second

// simulator is the common contract of the four strategy replays: consume an
// ordered price series, produce a ledger. Implementations are single-use and
// carry no state between runs.
type simulator interface {
	run(points []price.Point) *ledger
}

// Monitor receives telemetry about finished runs. Implementations must be
// safe for concurrent use.
type Monitor interface {
	ObserveRun(strategy Strategy, success bool, duration time.Duration)
}

// Engine orchestrates backtest runs: it validates the configuration, fetches
// the price series, dispatches to the matching simulator and derives the
// result metrics.
//
// An Engine holds no mutable state across invocations. A single instance may
// serve concurrent runs; independent runs share nothing but the provider.
type Engine struct {
	provider     price.Provider
	log          logger.Logger
	monitor      Monitor
	fetchTimeout time.Duration
}

// NewEngine creates a backtest engine over the given price provider.
func NewEngine(provider price.Provider, log logger.Logger) *Engine {
	return &Engine{
		provider:     provider,
		log:          log,
		fetchTimeout: defaultFetchTimeout,
	}
}

// SetMonitor attaches run telemetry. A nil monitor disables it.
func (e *Engine) SetMonitor(m Monitor) {
	e.monitor = m
}

// SetFetchTimeout overrides the call-level timeout of the price fetch.
func (e *Engine) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		e.fetchTimeout = d
	}
}

// Run executes one backtest and returns the assembled result. The context
// bounds only the price fetch; the simulation itself is a local, determinate
// computation.
func (e *Engine) Run(ctx context.Context, cfg *Config) (*Result, error) {
	started := time.Now()

	if err := cfg.Validate(); err != nil {
		e.observe(cfg.Strategy, false, started)
		return nil, err
	}
	norm := cfg.normalized()

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	points, err := e.provider.GetPrices(fetchCtx, norm.Symbol, norm.days())
	if err != nil {
		e.observe(norm.Strategy, false, started)
		code := errors.ErrCodeMarketDataUnavailable
		if fetchCtx.Err() == context.DeadlineExceeded {
			code = errors.ErrCodeMarketDataTimeout
		}
		return nil, errors.WrapError(err, code, "failed to fetch price history")
	}
	if len(points) == 0 {
		e.observe(norm.Strategy, false, started)
		return nil, errors.NewAppErrorWithDetails(
			errors.ErrCodeMarketDataUnavailable,
			"empty price series",
			fmt.Sprintf("no price data for %s over %d days", norm.Symbol, norm.days()),
			nil,
		)
	}

	led := e.newSimulator(norm).run(points)
	metrics := calculateMetrics(led, norm.InitialCapital)

	finalCapital := norm.InitialCapital
	if len(led.equity) > 0 {
		finalCapital = led.equity[len(led.equity)-1].Value
	}

	result := &Result{
		Strategy:       norm.Strategy,
		Symbol:         norm.Symbol,
		StartDate:      norm.StartDate,
		EndDate:        norm.EndDate,
		InitialCapital: norm.InitialCapital,
		FinalCapital:   finalCapital,
		Trades:         led.trades,
		EquityCurve:    led.equity,
		Metrics:        metrics,
	}

	e.observe(norm.Strategy, true, started)
	if e.log != nil {
		e.log.Info("backtest completed",
			"strategy", norm.Strategy,
			"symbol", norm.Symbol,
			"samples", len(points),
			"trades", len(led.trades),
			"final_capital", finalCapital,
			"duration", time.Since(started).String(),
		)
	}

	return result, nil
}

// newSimulator builds the simulator for the configured strategy. The config
// has already been validated and normalized.
func (e *Engine) newSimulator(cfg Config) simulator {
	switch cfg.Strategy {
	case StrategyGrid:
		return &gridSimulator{cfg: cfg}
	case StrategyMomentum:
		return &momentumSimulator{cfg: cfg}
	case StrategyMeanReversion:
		return &meanReversionSimulator{cfg: cfg}
	default:
		return &dcaSimulator{cfg: cfg}
	}
}

func (e *Engine) observe(strategy Strategy, success bool, started time.Time) {
	if e.monitor != nil {
		e.monitor.ObserveRun(strategy, success, time.Since(started))
	}
}
