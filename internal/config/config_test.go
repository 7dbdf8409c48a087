package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsim/internal/backtest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: qsim
  env: test
server:
  port: 9090
database:
  host: localhost
  port: 5432
  dbname: qsim
auth:
  enabled: true
  jwt_secret: test-secret
  token_ttl: 1h
scheduler:
  enabled: true
  jobs:
    - name: nightly-btc-dca
      schedule: "0 0 * * *"
      lookback_days: 30
      backtest:
        strategy: dca
        symbol: BTC/USDT
        initial_capital: 10000
        dca_amount: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qsim", cfg.App.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)

	require.Len(t, cfg.Scheduler.Jobs, 1)
	job := cfg.Scheduler.Jobs[0]
	assert.Equal(t, "nightly-btc-dca", job.Name)
	assert.Equal(t, "0 0 * * *", job.Schedule)
	assert.Equal(t, 30, job.LookbackDays)
	assert.Equal(t, backtest.StrategyDCA, job.Backtest.Strategy)
	assert.Equal(t, 10000.0, job.Backtest.InitialCapital)
	assert.Equal(t, 100.0, job.Backtest.DCAAmount)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "qsim", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Backtest.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Backtest.PriceCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "/metrics", cfg.Monitoring.PrometheusPath)
	assert.NotEmpty(t, cfg.Logging.Level)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("QSIM_TEST_DB_PASSWORD", "s3cret")

	cfg, err := Load(writeConfig(t, "database:\n  password: ${QSIM_TEST_DB_PASSWORD}\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "app: [unclosed"))
	assert.Error(t, err)
}
