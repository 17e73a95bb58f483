package service

import (
	"context"

	"carshare-ledger/internal/assetledger"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type shareService struct {
	store  repository.Store
	ledger *assetledger.Ledger
}

func NewShareService(store repository.Store, ledger *assetledger.Ledger) ShareService {
	return &shareService{store: store, ledger: ledger}
}

func (s *shareService) SetApprovalForAll(ctx context.Context, owner, operator domain.Account, approved bool) error {
	logger.EnterMethod("shareService.SetApprovalForAll", "owner", owner, "operator", operator, "approved", approved)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return s.ledger.SetApprovalForAll(ctx, tx, owner, operator, approved)
	})
	if err != nil {
		logExit("shareService.SetApprovalForAll", err, "owner", owner)
		return err
	}
	logger.ExitMethod("shareService.SetApprovalForAll", "owner", owner)
	return nil
}

func (s *shareService) BalanceOf(ctx context.Context, account domain.Account, saleID int64) (int64, error) {
	var balance int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance, err = s.ledger.BalanceOf(ctx, tx, account, saleID)
		return err
	})
	return balance, err
}

func (s *shareService) TotalSupply(ctx context.Context, saleID int64) (int64, error) {
	var total int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		total, err = s.ledger.TotalSupply(ctx, tx, saleID)
		return err
	})
	return total, err
}

func (s *shareService) URI(ctx context.Context, saleID int64) (string, error) {
	var uri string
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		uri, err = s.ledger.URI(ctx, tx, saleID)
		return err
	})
	return uri, err
}

func (s *shareService) AuthorizedSeller(ctx context.Context) (domain.Account, error) {
	var seller domain.Account
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		seller, err = s.ledger.AuthorizedSeller(ctx, tx)
		return err
	})
	return seller, err
}
