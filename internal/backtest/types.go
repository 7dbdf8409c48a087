package backtest

import (
	"encoding/json"
	"math"
	"time"
)

// Strategy identifies a simulated trading strategy.
type Strategy string

const (
	StrategyDCA           Strategy = "dca"
	StrategyGrid          Strategy = "grid"
	StrategyMomentum      Strategy = "momentum"
	StrategyMeanReversion Strategy = "meanReversion"
)

// TradeKind marks a trade as opening or closing a position.
type TradeKind string

const (
	TradeEntry TradeKind = "entry"
	TradeExit  TradeKind = "exit"
)

// TradeSide is the direction of a position.
type TradeSide string

const (
	SideLong  TradeSide = "long"
	SideShort TradeSide = "short"
)

// Trade is one row of the simulated trade ledger. PnL is set only on exits.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      TradeKind `json:"kind"`
	Side      TradeSide `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	PnL       *float64  `json:"pnl,omitempty"`
	Reason    string    `json:"reason"`
}

// EquityPoint is the total portfolio value (cash plus mark-to-market position
// value) at one timestamp of the simulation.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Metrics aggregates risk and performance statistics over a finished run.
type Metrics struct {
	TotalReturn        float64 `json:"total_return"`
	TotalReturnPercent float64 `json:"total_return_percent"`
	TotalTrades        int     `json:"total_trades"`
	WinningTrades      int     `json:"winning_trades"`
	LosingTrades       int     `json:"losing_trades"`
	WinRate            float64 `json:"win_rate"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	ProfitFactor       float64 `json:"profit_factor"`
	AvgWin             float64 `json:"avg_win"`
	AvgLoss            float64 `json:"avg_loss"`
	LargestWin         float64 `json:"largest_win"`
	LargestLoss        float64 `json:"largest_loss"`
	MaxInvested        float64 `json:"max_invested"`
	MaxInvestedPercent float64 `json:"max_invested_percent"`
	AvgInvested        float64 `json:"avg_invested"`
	AvgInvestedPercent float64 `json:"avg_invested_percent"`
}

// metricsJSON mirrors Metrics with a wire-safe profit factor. A strategy with
// no losing trades has an infinite profit factor, which plain JSON cannot
// carry as a number.
type metricsJSON struct {
	TotalReturn        float64     `json:"total_return"`
	TotalReturnPercent float64     `json:"total_return_percent"`
	TotalTrades        int         `json:"total_trades"`
	WinningTrades      int         `json:"winning_trades"`
	LosingTrades       int         `json:"losing_trades"`
	WinRate            float64     `json:"win_rate"`
	MaxDrawdown        float64     `json:"max_drawdown"`
	MaxDrawdownPercent float64     `json:"max_drawdown_percent"`
	SharpeRatio        float64     `json:"sharpe_ratio"`
	ProfitFactor       interface{} `json:"profit_factor"`
	AvgWin             float64     `json:"avg_win"`
	AvgLoss            float64     `json:"avg_loss"`
	LargestWin         float64     `json:"largest_win"`
	LargestLoss        float64     `json:"largest_loss"`
	MaxInvested        float64     `json:"max_invested"`
	MaxInvestedPercent float64     `json:"max_invested_percent"`
	AvgInvested        float64     `json:"avg_invested"`
	AvgInvestedPercent float64     `json:"avg_invested_percent"`
}

// MarshalJSON encodes an infinite profit factor as the string "Infinity".
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := metricsJSON{
		TotalReturn:        m.TotalReturn,
		TotalReturnPercent: m.TotalReturnPercent,
		TotalTrades:        m.TotalTrades,
		WinningTrades:      m.WinningTrades,
		LosingTrades:       m.LosingTrades,
		WinRate:            m.WinRate,
		MaxDrawdown:        m.MaxDrawdown,
		MaxDrawdownPercent: m.MaxDrawdownPercent,
		SharpeRatio:        m.SharpeRatio,
		ProfitFactor:       m.ProfitFactor,
		AvgWin:             m.AvgWin,
		AvgLoss:            m.AvgLoss,
		LargestWin:         m.LargestWin,
		LargestLoss:        m.LargestLoss,
		MaxInvested:        m.MaxInvested,
		MaxInvestedPercent: m.MaxInvestedPercent,
		AvgInvested:        m.AvgInvested,
		AvgInvestedPercent: m.AvgInvestedPercent,
	}
	if math.IsInf(m.ProfitFactor, 1) {
		out.ProfitFactor = "Infinity"
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var in metricsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = Metrics{
		TotalReturn:        in.TotalReturn,
		TotalReturnPercent: in.TotalReturnPercent,
		TotalTrades:        in.TotalTrades,
		WinningTrades:      in.WinningTrades,
		LosingTrades:       in.LosingTrades,
		WinRate:            in.WinRate,
		MaxDrawdown:        in.MaxDrawdown,
		MaxDrawdownPercent: in.MaxDrawdownPercent,
		SharpeRatio:        in.SharpeRatio,
		AvgWin:             in.AvgWin,
		AvgLoss:            in.AvgLoss,
		LargestWin:         in.LargestWin,
		LargestLoss:        in.LargestLoss,
		MaxInvested:        in.MaxInvested,
		MaxInvestedPercent: in.MaxInvestedPercent,
		AvgInvested:        in.AvgInvested,
		AvgInvestedPercent: in.AvgInvestedPercent,
	}
	switch pf := in.ProfitFactor.(type) {
	case float64:
		m.ProfitFactor = pf
	case string:
		m.ProfitFactor = math.Inf(1)
	}
	return nil
}

// Result is the full outcome of one backtest run.
type Result struct {
	ID             string        `json:"id,omitempty"`
	Strategy       Strategy      `json:"strategy"`
	Symbol         string        `json:"symbol"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	InitialCapital float64       `json:"initial_capital"`
	FinalCapital   float64       `json:"final_capital"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	Metrics        Metrics       `json:"metrics"`
}

// ledger collects the raw output of one simulator run: the trade ledger, the
// equity curve and the parallel uninvested-cash series.
type ledger struct {
	trades []Trade
	equity []EquityPoint
	cash   []float64
}

func newLedger(capacity int) *ledger {
	return &ledger{
		trades: make([]Trade, 0),
		equity: make([]EquityPoint, 0, capacity),
		cash:   make([]float64, 0, capacity),
	}
}

// addEntry appends an opening trade.
func (l *ledger) addEntry(ts time.Time, side TradeSide, price, size float64, reason string) {
	l.trades = append(l.trades, Trade{
		Timestamp: ts,
		Kind:      TradeEntry,
		Side:      side,
		Price:     price,
		Size:      size,
		Reason:    reason,
	})
}

// addExit appends a closing trade with its realized pnl.
func (l *ledger) addExit(ts time.Time, side TradeSide, price, size, pnl float64, reason string) {
	l.trades = append(l.trades, Trade{
		Timestamp: ts,
		Kind:      TradeExit,
		Side:      side,
		Price:     price,
		Size:      size,
		PnL:       &pnl,
		Reason:    reason,
	})
}

// mark records the equity value and uninvested cash for one sample.
func (l *ledger) mark(ts time.Time, equity, cash float64) {
	l.equity = append(l.equity, EquityPoint{Timestamp: ts, Value: equity})
	l.cash = append(l.cash, cash)
}
