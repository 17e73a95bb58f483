package jobs

import (
	"context"

	"carshare-ledger/internal/clock"
	"carshare-ledger/internal/config"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/service"
)

// Flusher publishes outbox events recorded since the last flush.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	relay    Flusher
	clock    clock.Clock
	owner    domain.Account
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Sale    service.SaleService
	Rewards service.RewardsService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, relay Flusher, clk clock.Clock, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		relay:    relay,
		clock:    clk,
		owner:    domain.Account(cfg.Ledger.OwnerAccount),
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	log := logger.WithService("jobs").With("job", jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	log.Info("Starting job")
	jobFunc(context.Background())
	log.Info("Job completed")
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.FinalizeExpiredSales()
	jr.ReportRefundWindows()
	jr.ReportUnallocatedPool()
	jr.CheckLockedTotals()
	jr.FlushEvents()
}
