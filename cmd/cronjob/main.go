package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"carshare-ledger/internal/app"
	"carshare-ledger/internal/config"
	"carshare-ledger/internal/jobs"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'finalize-expired-sales', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Car Share Ledger Cronjob Runner...", "log_level", cfg.Log.Level)
	if cfg.Store.Type != config.StorePostgres {
		logger.Warn("Cronjob runner is using the in-memory store and will not see the server's state")
	}

	ledger, err := app.Build(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err)
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer ledger.Close()

	jobServices := &jobs.Services{
		Sale:    ledger.Sales,
		Rewards: ledger.Rewards,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, ledger.Relay, ledger.Clock, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			ledger.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		ledger.Close()
		os.Exit(1)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

var jobNames = []string{
	"finalize-expired-sales",
	"report-refund-windows",
	"report-unallocated-pool",
	"check-locked-totals",
	"flush-events",
	"all",
}

// runJobOnce runs a specific job once. It reports false for an unknown name.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "finalize-expired-sales":
		jobRunner.FinalizeExpiredSales()
	case "report-refund-windows":
		jobRunner.ReportRefundWindows()
	case "report-unallocated-pool":
		jobRunner.ReportUnallocatedPool()
	case "check-locked-totals":
		jobRunner.CheckLockedTotals()
	case "flush-events":
		jobRunner.FlushEvents()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		for _, name := range jobNames {
			fmt.Printf("  - %s\n", name)
		}
		return false
	}
	return true
}
