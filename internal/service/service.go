package service

import (
	"context"

	"carshare-ledger/internal/domain"
)

// SaleService runs the share sale lifecycle. caller is the authenticated
// account submitting the operation; payment is the amount it sends along.
type SaleService interface {
	LinkAssetLedger(ctx context.Context, caller domain.Account) error
	StartNewSale(ctx context.Context, caller domain.Account, params domain.SaleParams) error
	StartNewSales(ctx context.Context, caller domain.Account, params []domain.SaleParams) error
	Invest(ctx context.Context, caller domain.Account, saleID, amount, payment int64) error
	FinalizeSale(ctx context.Context, caller domain.Account, saleID int64) (domain.SaleStatus, error)
	WithdrawInvestedFunds(ctx context.Context, caller domain.Account, saleID int64) (int64, error)
	GetRefund(ctx context.Context, caller domain.Account, saleID int64) (int64, error)
	SweepFunds(ctx context.Context, caller domain.Account, saleID int64) (int64, error)
	UpdateURI(ctx context.Context, caller domain.Account, saleID int64, uri string) error
	UpgradeAuthorizedSeller(ctx context.Context, caller, next domain.Account) error

	GetSaleInfo(ctx context.Context, saleID int64) (*domain.Sale, error)
	GetContribution(ctx context.Context, saleID int64, account domain.Account) (int64, error)
	ListSales(ctx context.Context, statuses ...domain.SaleStatus) ([]domain.Sale, error)
	RefundWindowEnd(sale *domain.Sale) int64
	Account() domain.Account
}

// RewardsService distributes rental revenue to investors who locked shares.
type RewardsService interface {
	AddCar(ctx context.Context, caller domain.Account, saleID, rentPricePerDay int64) error
	GetAllCars(ctx context.Context) ([]int64, error)
	GetCar(ctx context.Context, saleID int64) (*domain.Car, error)
	Lock(ctx context.Context, caller domain.Account, saleID, amount int64) error
	Unlock(ctx context.Context, caller domain.Account, saleID, amount int64) error
	RentCar(ctx context.Context, caller domain.Account, saleID, days, payment int64) error
	ClaimReward(ctx context.Context, caller domain.Account, saleID int64) (int64, error)
	WithdrawReward(ctx context.Context, caller domain.Account, saleID int64) (int64, error)
	SweepAvailableFunds(ctx context.Context, caller domain.Account) (int64, error)

	GetWithdrawableReward(ctx context.Context, saleID int64, account domain.Account) (int64, error)
	GetRewardAccount(ctx context.Context, saleID int64, account domain.Account) (*domain.RewardAccount, error)
	GetRewardPool(ctx context.Context, saleID int64) (*domain.RewardPool, error)
	GetUnallocatedPool(ctx context.Context) (int64, error)
	CheckLockedTotals(ctx context.Context) ([]domain.LockedTotals, error)
	Account() domain.Account
}

// ShareService exposes the asset ledger calls an investor makes directly.
type ShareService interface {
	SetApprovalForAll(ctx context.Context, owner, operator domain.Account, approved bool) error
	BalanceOf(ctx context.Context, account domain.Account, saleID int64) (int64, error)
	TotalSupply(ctx context.Context, saleID int64) (int64, error)
	URI(ctx context.Context, saleID int64) (string, error)
	AuthorizedSeller(ctx context.Context) (domain.Account, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, account domain.Account) (int64, error)
	GetTransactions(ctx context.Context, account domain.Account, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
	GetLedgerSummary(ctx context.Context, account domain.Account) (*domain.LedgerSummary, error)
	ListEvents(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error)
}
