package service

import (
	"context"
	"errors"
	"fmt"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

func logExit(method string, err error, args ...any) {
	if domain.KindOf(err) != "" {
		logger.ExitMethodRejected(method, err, args...)
		return
	}
	logger.ExitMethodWithError(method, err, args...)
}

// loadSale returns the stored sale, or an Inactive sale for an id that was
// never started.
func loadSale(ctx context.Context, tx repository.Tx, saleID int64) (*domain.Sale, error) {
	sale, err := tx.Sales().Get(ctx, saleID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.Sale{ID: saleID, Status: domain.SaleStatusInactive}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sale %d: %w", saleID, err)
	}
	return sale, nil
}

// pay writes a journal entry for account. Negative amounts are payments into
// custody, positive amounts are payouts and must be the last write of an
// operation.
func pay(ctx context.Context, tx repository.Tx, account domain.Account, saleID *int64, amount int64, typ domain.TransactionType, now int64) error {
	entry := &domain.LedgerTransaction{
		Account:   account,
		SaleID:    saleID,
		Amount:    amount,
		Type:      typ,
		CreatedAt: now,
	}
	if err := tx.Ledger().CreateTransaction(ctx, entry); err != nil {
		return fmt.Errorf("failed to record %s: %w", typ, err)
	}
	return nil
}

func requireOwner(caller, owner domain.Account) error {
	if caller != owner {
		return domain.ErrNotOwner
	}
	return nil
}

func saleRef(id int64) *int64 {
	return &id
}
