// Package assetledger holds share balances per sale and the single account
// allowed to mint them.
package assetledger

import (
	"context"
	"fmt"

	"carshare-ledger/internal/clock"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/events"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

// Ledger works inside the caller's transaction so that share movements commit
// or roll back together with the caller's own bookkeeping.
type Ledger struct {
	clock clock.Clock
}

func New(clk clock.Clock) *Ledger {
	return &Ledger{clock: clk}
}

// AuthorizedSeller returns the current minting account, or the zero account
// if none was ever set. Callers must read it per operation.
func (l *Ledger) AuthorizedSeller(ctx context.Context, tx repository.Tx) (domain.Account, error) {
	return tx.Shares().GetAuthorizedSeller(ctx)
}

// InitializeAuthorizedSeller sets the minting account once.
func (l *Ledger) InitializeAuthorizedSeller(ctx context.Context, tx repository.Tx, seller domain.Account) error {
	if seller.IsZero() {
		return domain.ErrLedgerAddrIsZero
	}
	current, err := tx.Shares().GetAuthorizedSeller(ctx)
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return domain.ErrLedgerAlreadyLinked
	}
	return tx.Shares().SetAuthorizedSeller(ctx, seller)
}

// SetAuthorizedSeller hands minting rights from caller to next. Only the
// current authorized seller may do this.
func (l *Ledger) SetAuthorizedSeller(ctx context.Context, tx repository.Tx, caller, next domain.Account) error {
	if next.IsZero() {
		return domain.ErrSellerAddrIsZero
	}
	current, err := l.requireSeller(ctx, tx, caller)
	if err != nil {
		return err
	}
	if err := tx.Shares().SetAuthorizedSeller(ctx, next); err != nil {
		return err
	}

	logger.Info("Authorized seller changed", "old", current, "new", next)
	return events.Record(ctx, tx.Events(), events.GlobalEvent(domain.EventAuthorizedSellerChanged, caller, l.clock.Now(), map[string]any{
		"old": string(current),
		"new": string(next),
	}))
}

func (l *Ledger) requireSeller(ctx context.Context, tx repository.Tx, caller domain.Account) (domain.Account, error) {
	current, err := tx.Shares().GetAuthorizedSeller(ctx)
	if err != nil {
		return "", err
	}
	if current.IsZero() {
		return "", domain.ErrLedgerNotLinked
	}
	if current != caller {
		return "", domain.ErrNotAuthorizedSeller
	}
	return current, nil
}

// Mint creates amount new shares of saleID for to.
func (l *Ledger) Mint(ctx context.Context, tx repository.Tx, caller, to domain.Account, saleID, amount int64) error {
	if _, err := l.requireSeller(ctx, tx, caller); err != nil {
		return err
	}
	if to.IsZero() {
		return domain.ErrTransferToZero
	}
	if amount <= 0 {
		return domain.ErrZeroAmount
	}

	balance, err := tx.Shares().BalanceOf(ctx, to, saleID)
	if err != nil {
		return err
	}
	newBalance, err := domain.AddAmount(balance, amount)
	if err != nil {
		return err
	}
	if err := tx.Shares().SetBalance(ctx, to, saleID, newBalance); err != nil {
		return err
	}
	return tx.Shares().SetMinter(ctx, saleID, caller)
}

func (l *Ledger) BalanceOf(ctx context.Context, tx repository.Tx, account domain.Account, saleID int64) (int64, error) {
	return tx.Shares().BalanceOf(ctx, account, saleID)
}

func (l *Ledger) TotalSupply(ctx context.Context, tx repository.Tx, saleID int64) (int64, error) {
	return tx.Shares().TotalSupply(ctx, saleID)
}

// Transfer moves shares from one account to another. operator must be from
// itself or approved for all of from's shares.
func (l *Ledger) Transfer(ctx context.Context, tx repository.Tx, operator, from, to domain.Account, saleID, amount int64) error {
	if to.IsZero() {
		return domain.ErrTransferToZero
	}
	if amount < 0 {
		return domain.ErrNegativeAmount
	}
	if operator != from {
		approved, err := tx.Shares().IsApprovedForAll(ctx, from, operator)
		if err != nil {
			return err
		}
		if !approved {
			return domain.ErrNotApproved
		}
	}

	fromBalance, err := tx.Shares().BalanceOf(ctx, from, saleID)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return domain.ErrInsufficientBalance
	}
	if from == to || amount == 0 {
		return nil
	}

	toBalance, err := tx.Shares().BalanceOf(ctx, to, saleID)
	if err != nil {
		return err
	}
	newTo, err := domain.AddAmount(toBalance, amount)
	if err != nil {
		return err
	}
	if err := tx.Shares().SetBalance(ctx, from, saleID, fromBalance-amount); err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if err := tx.Shares().SetBalance(ctx, to, saleID, newTo); err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}

func (l *Ledger) SetApprovalForAll(ctx context.Context, tx repository.Tx, owner, operator domain.Account, approved bool) error {
	if owner == operator {
		return domain.ErrSelfApproval
	}
	if operator.IsZero() {
		return domain.ErrTransferToZero
	}
	return tx.Shares().SetApprovalForAll(ctx, owner, operator, approved)
}

func (l *Ledger) IsApprovedForAll(ctx context.Context, tx repository.Tx, owner, operator domain.Account) (bool, error) {
	return tx.Shares().IsApprovedForAll(ctx, owner, operator)
}

// SetURI is allowed for the account that minted saleID, which keeps working
// after minting rights move on. A sale nobody minted yet falls back to the
// current authorized seller.
func (l *Ledger) SetURI(ctx context.Context, tx repository.Tx, caller domain.Account, saleID int64, uri string) error {
	minter, err := tx.Shares().GetMinter(ctx, saleID)
	if err != nil {
		return err
	}
	if minter.IsZero() {
		if _, err := l.requireSeller(ctx, tx, caller); err != nil {
			return err
		}
	} else if minter != caller {
		return domain.ErrNotAuthorizedSeller
	}
	return tx.Shares().SetURI(ctx, saleID, uri)
}

func (l *Ledger) URI(ctx context.Context, tx repository.Tx, saleID int64) (string, error) {
	return tx.Shares().GetURI(ctx, saleID)
}
