package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"qsim/internal/api"
	"qsim/internal/backtest"
	"qsim/internal/cache"
	"qsim/internal/config"
	"qsim/internal/database"
	"qsim/internal/logger"
	"qsim/internal/market/price"
	"qsim/internal/monitoring"
	"qsim/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "configuration file path")
	flag.Parse()

	// Optional; environment variables referenced by the config may come
	// from a .env file in development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.Logging)
	appLog.Info("starting qsim", "version", cfg.App.Version, "env", cfg.App.Env)

	// Database and Redis are optional at startup: without them the server
	// still serves ad-hoc backtests against whatever provider is wired.
	var store *database.ResultStore
	var provider price.Provider

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		appLog.Warn("database unavailable, persistence disabled", "error", err)
	} else {
		defer db.Close()
		store = database.NewResultStore(db)
		provider = price.NewPostgresProvider(db)
	}

	if provider == nil {
		appLog.Error("no price source available; configure the database")
		os.Exit(1)
	}

	redisCache, err := cache.NewRedisCache(&cfg.Redis)
	if err != nil {
		appLog.Warn("redis unavailable, price caching disabled", "error", err)
	} else {
		defer redisCache.Close()
		provider = price.NewCachedProvider(provider, redisCache, cfg.Backtest.PriceCacheTTL)
	}

	metrics := monitoring.NewMetrics()

	engine := backtest.NewEngine(provider, appLog)
	engine.SetMonitor(metrics)
	engine.SetFetchTimeout(cfg.Backtest.FetchTimeout)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(engine, store, metrics, appLog)
		if err := sched.Register(cfg.Scheduler.Jobs); err != nil {
			appLog.Error("scheduler configuration invalid", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	server := api.NewServer(cfg, engine, store, metrics, appLog)
	go func() {
		if err := server.Start(); err != nil {
			appLog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	appLog.Info("shutting down", "signal", sig.String())

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		appLog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
