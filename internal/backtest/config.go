package backtest

import (
	"fmt"
	"time"

	"qsim/internal/errors"
)

// Default parameter values applied by normalized() when the corresponding
// optional field is left at zero.
const (
	defaultDCAIntervalHours  = 24
	defaultGridLevels        = 10
	defaultMomentumPeriod    = 20
	defaultMomentumThreshold = 2.0
	defaultRSIPeriod         = 14
	defaultRSIOversold       = 30.0
	defaultRSIOverbought     = 70.0
)

// Config describes one backtest run. It is treated as immutable for the
// duration of the simulation.
type Config struct {
	Strategy          Strategy  `json:"strategy" yaml:"strategy"`
	Symbol            string    `json:"symbol" yaml:"symbol"`
	StartDate         time.Time `json:"start_date" yaml:"start_date"`
	EndDate           time.Time `json:"end_date" yaml:"end_date"`
	InitialCapital    float64   `json:"initial_capital" yaml:"initial_capital"`
	Leverage          float64   `json:"leverage" yaml:"leverage"`
	PositionSize      float64   `json:"position_size" yaml:"position_size"` // notional per trigger
	StopLossPercent   float64   `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent float64   `json:"take_profit_percent" yaml:"take_profit_percent"`

	// DCA
	DCAAmount        float64 `json:"dca_amount,omitempty" yaml:"dca_amount"`
	DCAIntervalHours int     `json:"dca_interval_hours,omitempty" yaml:"dca_interval_hours"`

	// Grid
	GridLevels  int     `json:"grid_levels,omitempty" yaml:"grid_levels"`
	GridSpacing float64 `json:"grid_spacing,omitempty" yaml:"grid_spacing"`

	// Momentum
	MomentumPeriod    int     `json:"momentum_period,omitempty" yaml:"momentum_period"`
	MomentumThreshold float64 `json:"momentum_threshold,omitempty" yaml:"momentum_threshold"`

	// Mean reversion
	RSIPeriod     int     `json:"rsi_period,omitempty" yaml:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold,omitempty" yaml:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought,omitempty" yaml:"rsi_overbought"`
}

// Validate checks the config for values no simulation can proceed with.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyDCA, StrategyGrid, StrategyMomentum, StrategyMeanReversion:
	default:
		return errors.NewAppErrorWithDetails(
			errors.ErrCodeStrategyUnknown,
			"unknown strategy",
			fmt.Sprintf("strategy %q is not one of dca, grid, momentum, meanReversion", c.Strategy),
			nil,
		)
	}
	if c.Symbol == "" {
		return errors.NewAppError(errors.ErrCodeConfigInvalid, "symbol is required", nil)
	}
	if c.InitialCapital < 0 {
		return errors.NewAppError(errors.ErrCodeConfigInvalid, "initial capital must not be negative", nil)
	}
	return nil
}

// normalized returns a copy with defaults filled in for unset optional
// fields. The receiver is never mutated.
func (c Config) normalized() Config {
	if c.DCAAmount == 0 {
		c.DCAAmount = c.PositionSize
	}
	if c.DCAIntervalHours <= 0 {
		c.DCAIntervalHours = defaultDCAIntervalHours
	}
	if c.GridLevels <= 0 {
		c.GridLevels = defaultGridLevels
	}
	if c.MomentumPeriod <= 0 {
		c.MomentumPeriod = defaultMomentumPeriod
	}
	if c.MomentumThreshold == 0 {
		c.MomentumThreshold = defaultMomentumThreshold
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = defaultRSIPeriod
	}
	if c.RSIOversold == 0 {
		c.RSIOversold = defaultRSIOversold
	}
	if c.RSIOverbought == 0 {
		c.RSIOverbought = defaultRSIOverbought
	}
	return c
}

// days returns the span of the run in whole days, at least one. The price
// provider contract is day-granular.
func (c *Config) days() int {
	d := int(c.EndDate.Sub(c.StartDate).Hours() / 24)
	if d < 1 {
		d = 1
	}
	return d
}
