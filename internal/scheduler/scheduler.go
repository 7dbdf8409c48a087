package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"qsim/internal/backtest"
	"qsim/internal/config"
	"qsim/internal/database"
	"qsim/internal/logger"
	"qsim/internal/monitoring"
)

const defaultLookbackDays = 30
const runTimeout = 10 * time.Minute

// Scheduler runs configured backtests on cron schedules. Each firing covers
// a rolling window ending at the firing time, and the result is persisted
// when a store is available.
type Scheduler struct {
	cron    *cron.Cron
	engine  *backtest.Engine
	store   *database.ResultStore
	metrics *monitoring.Metrics
	log     logger.Logger
}

// New creates a scheduler. Store and metrics may be nil.
func New(engine *backtest.Engine, store *database.ResultStore, metrics *monitoring.Metrics, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		engine:  engine,
		store:   store,
		metrics: metrics,
		log:     log,
	}
}

// Register adds all jobs from config. An invalid cron expression fails the
// whole registration so misconfiguration is caught at startup.
func (s *Scheduler) Register(jobs []config.ScheduledJob) error {
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.runJob(job) }); err != nil {
			return fmt.Errorf("failed to register job %q: %w", job.Name, err)
		}
		s.log.Info("registered scheduled backtest",
			"job", job.Name,
			"schedule", job.Schedule,
			"strategy", job.Backtest.Strategy,
		)
	}
	return nil
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob(job config.ScheduledJob) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	lookback := job.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}

	cfg := job.Backtest
	cfg.EndDate = time.Now().UTC()
	cfg.StartDate = cfg.EndDate.AddDate(0, 0, -lookback)

	result, err := s.engine.Run(ctx, &cfg)
	if s.metrics != nil {
		s.metrics.ObserveScheduledRun(cfg.Strategy, err == nil)
	}
	if err != nil {
		s.log.Error("scheduled backtest failed", "job", job.Name, "error", err)
		return
	}

	s.log.Info("scheduled backtest finished",
		"job", job.Name,
		"final_capital", result.FinalCapital,
		"total_trades", result.Metrics.TotalTrades,
	)

	if s.store == nil {
		return
	}
	id, err := s.store.Save(ctx, result)
	if err != nil {
		s.log.Error("failed to persist scheduled result", "job", job.Name, "error", err)
		return
	}
	s.log.Info("scheduled result saved", "job", job.Name, "id", id)
}
