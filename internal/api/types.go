package api

import (
	"time"

	"qsim/internal/backtest"
)

// Response is the envelope used by all JSON endpoints.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
}

// BacktestRequest represents a backtest run request. The embedded config
// carries the strategy, date range, and per-strategy parameters.
type BacktestRequest struct {
	backtest.Config
	Persist bool `json:"persist"`
}
