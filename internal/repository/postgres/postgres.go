package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// serialization_failure, deadlock_detected
var retryableCodes = map[pq.ErrorCode]bool{
	"40001": true,
	"40P01": true,
}

type Store struct {
	db *sql.DB
	repository.SaleRepository
	repository.CarRepository
	repository.RewardRepository
	repository.ShareRepository
	repository.LedgerRepository
	repository.EventRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:               db,
		SaleRepository:   NewSaleRepository(db),
		CarRepository:    NewCarRepository(db),
		RewardRepository: NewRewardRepository(db),
		ShareRepository:  NewShareRepository(db),
		LedgerRepository: NewLedgerRepository(db),
		EventRepository:  NewEventRepository(db),
	}
}

// ConnectDB opens and pings a postgres pool.
func ConnectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// RunInTx executes fn inside one SERIALIZABLE transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, newTxRepos(sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return classify(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && retryableCodes[pqErr.Code] {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pqErr.Message)
	}
	return err
}

type txRepos struct {
	sales   repository.SaleRepository
	cars    repository.CarRepository
	rewards repository.RewardRepository
	shares  repository.ShareRepository
	ledger  repository.LedgerRepository
	events  repository.EventRepository
}

func newTxRepos(db DBTX) *txRepos {
	return &txRepos{
		sales:   NewSaleRepository(db),
		cars:    NewCarRepository(db),
		rewards: NewRewardRepository(db),
		shares:  NewShareRepository(db),
		ledger:  NewLedgerRepository(db),
		events:  NewEventRepository(db),
	}
}

func (t *txRepos) Sales() repository.SaleRepository     { return t.sales }
func (t *txRepos) Cars() repository.CarRepository       { return t.cars }
func (t *txRepos) Rewards() repository.RewardRepository { return t.rewards }
func (t *txRepos) Shares() repository.ShareRepository   { return t.shares }
func (t *txRepos) Ledger() repository.LedgerRepository  { return t.ledger }
func (t *txRepos) Events() repository.EventRepository   { return t.events }
