package repository

import (
	"context"
	"errors"

	"carshare-ledger/internal/domain"
)

var (
	// ErrNotFound is returned by Get methods when the row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a transaction lost a serialization race
	// and must be resubmitted by the caller.
	ErrConflict = errors.New("transaction conflict, retry")
)

type SaleRepository interface {
	Get(ctx context.Context, id int64) (*domain.Sale, error)
	Create(ctx context.Context, sale *domain.Sale) error
	Update(ctx context.Context, sale *domain.Sale) error
	ListByStatus(ctx context.Context, statuses ...domain.SaleStatus) ([]domain.Sale, error)

	// Contributions: tokens bought per account, zeroed on refund
	GetContribution(ctx context.Context, saleID int64, account domain.Account) (int64, error)
	SetContribution(ctx context.Context, saleID int64, account domain.Account, tokens int64) error
}

type CarRepository interface {
	Get(ctx context.Context, saleID int64) (*domain.Car, error)
	Create(ctx context.Context, car *domain.Car) error
	Update(ctx context.Context, car *domain.Car) error
	List(ctx context.Context) ([]domain.Car, error)
}

// RewardRepository returns zero-valued accounts and pools for keys that were
// never written.
type RewardRepository interface {
	GetAccount(ctx context.Context, saleID int64, account domain.Account) (*domain.RewardAccount, error)
	SaveAccount(ctx context.Context, acc *domain.RewardAccount) error
	SumLocked(ctx context.Context, saleID int64) (int64, error)
	GetPool(ctx context.Context, saleID int64) (*domain.RewardPool, error)
	SavePool(ctx context.Context, pool *domain.RewardPool) error
	GetUnallocated(ctx context.Context) (int64, error)
	SetUnallocated(ctx context.Context, amount int64) error
}

// ShareRepository is the storage behind the asset ledger.
type ShareRepository interface {
	BalanceOf(ctx context.Context, account domain.Account, saleID int64) (int64, error)
	SetBalance(ctx context.Context, account domain.Account, saleID int64, amount int64) error
	TotalSupply(ctx context.Context, saleID int64) (int64, error)
	IsApprovedForAll(ctx context.Context, owner, operator domain.Account) (bool, error)
	SetApprovalForAll(ctx context.Context, owner, operator domain.Account, approved bool) error
	GetAuthorizedSeller(ctx context.Context) (domain.Account, error)
	SetAuthorizedSeller(ctx context.Context, seller domain.Account) error
	GetURI(ctx context.Context, saleID int64) (string, error)
	SetURI(ctx context.Context, saleID int64, uri string) error
	GetMinter(ctx context.Context, saleID int64) (domain.Account, error)
	SetMinter(ctx context.Context, saleID int64, minter domain.Account) error
}

type LedgerRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error
	GetBalance(ctx context.Context, account domain.Account) (int64, error)
	ListTransactions(ctx context.Context, account domain.Account, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
	GetSummary(ctx context.Context, account domain.Account) (*domain.LedgerSummary, error)
}

// EventRepository is the transactional outbox. Sequence numbers order the
// feed but are not commit order, so delivery is tracked per event.
type EventRepository interface {
	Append(ctx context.Context, event *domain.Event) error
	ListAfter(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error)
	ListUnpublished(ctx context.Context, limit int32) ([]domain.Event, error)
	MarkPublished(ctx context.Context, seqs []int64) error
}

// Tx exposes the repositories bound to one atomic unit of work.
type Tx interface {
	Sales() SaleRepository
	Cars() CarRepository
	Rewards() RewardRepository
	Shares() ShareRepository
	Ledger() LedgerRepository
	Events() EventRepository
}

// Store runs fn atomically: if fn returns an error none of its writes are
// visible, otherwise all of them are. Transactions are serialized.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
