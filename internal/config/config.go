package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"qsim/internal/backtest"
	"qsim/internal/cache"
	"qsim/internal/database"
	"qsim/internal/logger"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   database.Config  `yaml:"database"`
	Redis      cache.Config     `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    logger.Config    `yaml:"logging"`
}

// AppConfig represents application identity configuration.
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuthConfig represents API authentication configuration. PasswordHash is a
// bcrypt hash; plaintext passwords never appear in config files.
type AuthConfig struct {
	Enabled      bool          `yaml:"enabled"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
}

// BacktestConfig represents engine tuning.
type BacktestConfig struct {
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	PriceCacheTTL time.Duration `yaml:"price_cache_ttl"`
}

// SchedulerConfig represents the recurring-backtest scheduler.
type SchedulerConfig struct {
	Enabled bool           `yaml:"enabled"`
	Jobs    []ScheduledJob `yaml:"jobs"`
}

// ScheduledJob is one recurring backtest. The date range is rolling: each
// firing covers the trailing LookbackDays up to the firing time.
type ScheduledJob struct {
	Name         string          `yaml:"name"`
	Schedule     string          `yaml:"schedule"` // cron expression
	LookbackDays int             `yaml:"lookback_days"`
	Backtest     backtest.Config `yaml:"backtest"`
}

// MonitoringConfig represents metrics exposure.
type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPath    string `yaml:"prometheus_path"`
}

// Load loads configuration from a YAML file. Values may reference
// environment variables with ${VAR} syntax; they are expanded before
// parsing.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "qsim"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Backtest.FetchTimeout == 0 {
		c.Backtest.FetchTimeout = 30 * time.Second
	}
	if c.Backtest.PriceCacheTTL == 0 {
		c.Backtest.PriceCacheTTL = 5 * time.Minute
	}
	if c.Monitoring.PrometheusPath == "" {
		c.Monitoring.PrometheusPath = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging = logger.DefaultConfig
	}
}
