package service

import (
	"context"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/repository"
)

const maxPageSize int32 = 100

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

func (s *ledgerService) GetBalance(ctx context.Context, account domain.Account) (int64, error) {
	var balance int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance, err = tx.Ledger().GetBalance(ctx, account)
		return err
	})
	return balance, err
}

func (s *ledgerService) GetTransactions(ctx context.Context, account domain.Account, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	var txs []domain.LedgerTransaction
	var count int32
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		txs, count, err = tx.Ledger().ListTransactions(ctx, account, page, pageSize)
		return err
	})
	return txs, count, err
}

func (s *ledgerService) GetLedgerSummary(ctx context.Context, account domain.Account) (*domain.LedgerSummary, error) {
	var summary *domain.LedgerSummary
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		summary, err = tx.Ledger().GetSummary(ctx, account)
		return err
	})
	return summary, err
}

func (s *ledgerService) ListEvents(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error) {
	if limit < 1 || limit > maxPageSize {
		limit = maxPageSize
	}
	var evs []domain.Event
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		evs, err = tx.Events().ListAfter(ctx, afterSeq, limit)
		return err
	})
	return evs, err
}
