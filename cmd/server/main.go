package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	httpapi "carshare-ledger/internal/api/http"
	"carshare-ledger/internal/app"
	"carshare-ledger/internal/config"
	"carshare-ledger/internal/jobs"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("scheduler", true, "Run the cron scheduler in-process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Car Share Ledger...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "store", cfg.Store.Type, "publisher", cfg.Events.Publisher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err)
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer ledger.Close()

	handler := httpapi.NewHandler(ledger.Sales, ledger.Rewards, ledger.Shares, ledger.Ledger)
	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, ledger.Tokens),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Sale: ledger.Sales, Rewards: ledger.Rewards}, ledger.Relay, ledger.Clock, cfg)
		cronScheduler, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			logger.Error("Failed to create scheduler", "error", err)
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}

	// Publish anything committed after the last scheduled flush.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if n, err := ledger.Relay.Flush(flushCtx); err != nil {
		logger.Error("Failed to flush events on shutdown", "error", err, "published", n)
	}
	logger.Info("Server stopped. Goodbye!")
}
