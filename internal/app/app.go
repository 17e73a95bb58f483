// Package app assembles the ledger from configuration. Every binary builds
// its services through Build so they agree on accounts and storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carshare-ledger/internal/assetledger"
	"carshare-ledger/internal/clock"
	"carshare-ledger/internal/config"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/events"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
	"carshare-ledger/internal/repository/memory"
	"carshare-ledger/internal/repository/postgres"
	"carshare-ledger/internal/security"
	"carshare-ledger/internal/service"
)

const secondsPerDay = 86400

type App struct {
	Config *config.Config
	Clock  clock.Clock
	Store  repository.Store
	Relay  *events.Relay
	Tokens security.TokenManager

	Sales   service.SaleService
	Rewards service.RewardsService
	Shares  service.ShareService
	Ledger  service.LedgerService

	redis *redis.Client
}

// Build opens storage and the event publisher and constructs the services.
// The caller owns the returned App and must Close it.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Clock: clock.NewSystem()}

	switch cfg.Store.Type {
	case config.StorePostgres:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := postgres.ConnectDB(cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, err
		}
		a.Store = postgres.NewStore(db)
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(ctx, db); err != nil {
				a.Close()
				return nil, err
			}
		}
		logger.Info("Database connection established")
	default:
		logger.Warn("Using in-memory store, state is lost on exit")
		a.Store = memory.NewStore()
	}

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.Events.Publisher == config.PublisherRedis {
		client, err := events.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		publisher = events.NewRedisPublisher(client, cfg.Redis.Channel)
		logger.Info("Publishing events to redis", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}
	a.Relay = events.NewRelay(a.Store, publisher)

	owner := domain.Account(cfg.Ledger.OwnerAccount)
	ledger := assetledger.New(a.Clock)
	a.Sales = service.NewSaleService(a.Store, ledger, a.Clock, a.Relay, service.SaleConfig{
		Owner:        owner,
		Escrow:       domain.Account(cfg.Ledger.SaleManagerAccount),
		RefundWindow: cfg.Ledger.RefundWindowDays * secondsPerDay,
	})
	a.Rewards = service.NewRewardsService(a.Store, ledger, a.Clock, a.Relay, service.RewardsConfig{
		Owner:   owner,
		Custody: domain.Account(cfg.Ledger.RewardsAccount),
	})
	a.Shares = service.NewShareService(a.Store, ledger)
	a.Ledger = service.NewLedgerService(a.Store)
	a.Tokens = security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	if cfg.Ledger.AutoLink {
		if err := a.Link(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Link authorizes the sale manager on the asset ledger. A ledger that is
// already linked is left alone.
func (a *App) Link(ctx context.Context) error {
	err := a.Sales.LinkAssetLedger(ctx, domain.Account(a.Config.Ledger.OwnerAccount))
	if errors.Is(err, domain.ErrLedgerAlreadyLinked) {
		logger.Debug("Asset ledger already linked", "seller", a.Sales.Account())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to link asset ledger: %w", err)
	}
	logger.Info("Asset ledger linked", "seller", a.Sales.Account())
	return nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Error("Failed to close redis client", "error", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}
}
