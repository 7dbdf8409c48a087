package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"qsim/internal/backtest"
	"qsim/internal/config"
	"qsim/internal/logger"
	"qsim/internal/market/price"
	"qsim/internal/testutils"
)

const (
	testUser     = "admin"
	testPassword = "hunter2"
)

func newTestServer(t *testing.T, authEnabled bool) *Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Name: "qsim", Env: "test", Version: "test"},
		Auth: config.AuthConfig{
			Enabled:      authEnabled,
			JWTSecret:    "test-secret",
			TokenTTL:     time.Hour,
			Username:     testUser,
			PasswordHash: string(hash),
		},
	}

	provider := price.NewStaticProvider(testutils.LinearSeries(120, time.Hour, 100, 110))
	engine := backtest.NewEngine(provider, logger.NewLogger(logger.Config{Level: logger.LevelError}))

	return NewServer(cfg, engine, nil, nil, logger.NewLogger(logger.Config{Level: logger.LevelError}))
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, srv *Server) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: testUser, Password: testPassword}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, true)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: testUser, Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: "nobody", Password: testPassword}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBacktestRequiresAuth(t *testing.T) {
	srv := newTestServer(t, true)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/backtest", baseRequest(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/backtest", baseRequest(), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRunBacktestEndToEnd(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/backtest", baseRequest(), token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    backtest.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	assert.Equal(t, backtest.StrategyDCA, resp.Data.Strategy)
	assert.Equal(t, "BTC/USDT", resp.Data.Symbol)
	assert.NotEmpty(t, resp.Data.EquityCurve)
	assert.Greater(t, resp.Data.Metrics.TotalTrades, 0)
}

func TestRunBacktestRejectsUnknownStrategy(t *testing.T) {
	srv := newTestServer(t, false)

	req := baseRequest()
	req.Strategy = "martingale"
	w := doJSON(t, srv, http.MethodPost, "/api/v1/backtest", req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown strategy")
}

func TestRunBacktestRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/backtest", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersistenceUnavailableWithoutStore(t *testing.T) {
	srv := newTestServer(t, false)

	req := baseRequest()
	req.Persist = true
	w := doJSON(t, srv, http.MethodPost, "/api/v1/backtest", req, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/backtests", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/backtests/some-id", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func baseRequest() BacktestRequest {
	return BacktestRequest{
		Config: backtest.Config{
			Strategy:       backtest.StrategyDCA,
			Symbol:         "BTC/USDT",
			StartDate:      testutils.SeriesStart,
			EndDate:        testutils.SeriesStart.Add(120 * time.Hour),
			InitialCapital: 10000,
			PositionSize:   100,
		},
	}
}
