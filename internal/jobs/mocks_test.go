package jobs

import (
	"context"

	"github.com/stretchr/testify/mock"

	"carshare-ledger/internal/domain"
)

// MockSaleService
type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) LinkAssetLedger(ctx context.Context, caller domain.Account) error {
	return m.Called(ctx, caller).Error(0)
}
func (m *MockSaleService) StartNewSale(ctx context.Context, caller domain.Account, params domain.SaleParams) error {
	return m.Called(ctx, caller, params).Error(0)
}
func (m *MockSaleService) StartNewSales(ctx context.Context, caller domain.Account, params []domain.SaleParams) error {
	return m.Called(ctx, caller, params).Error(0)
}
func (m *MockSaleService) Invest(ctx context.Context, caller domain.Account, saleID, amount, payment int64) error {
	return m.Called(ctx, caller, saleID, amount, payment).Error(0)
}
func (m *MockSaleService) FinalizeSale(ctx context.Context, caller domain.Account, saleID int64) (domain.SaleStatus, error) {
	args := m.Called(ctx, caller, saleID)
	return args.Get(0).(domain.SaleStatus), args.Error(1)
}
func (m *MockSaleService) WithdrawInvestedFunds(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	args := m.Called(ctx, caller, saleID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSaleService) GetRefund(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	args := m.Called(ctx, caller, saleID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSaleService) SweepFunds(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	args := m.Called(ctx, caller, saleID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSaleService) UpdateURI(ctx context.Context, caller domain.Account, saleID int64, uri string) error {
	return m.Called(ctx, caller, saleID, uri).Error(0)
}
func (m *MockSaleService) UpgradeAuthorizedSeller(ctx context.Context, caller, next domain.Account) error {
	return m.Called(ctx, caller, next).Error(0)
}
func (m *MockSaleService) GetSaleInfo(ctx context.Context, saleID int64) (*domain.Sale, error) {
	args := m.Called(ctx, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sale), args.Error(1)
}
func (m *MockSaleService) GetContribution(ctx context.Context, saleID int64, account domain.Account) (int64, error) {
	args := m.Called(ctx, saleID, account)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSaleService) ListSales(ctx context.Context, statuses ...domain.SaleStatus) ([]domain.Sale, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sale), args.Error(1)
}
func (m *MockSaleService) RefundWindowEnd(sale *domain.Sale) int64 {
	return m.Called(sale).Get(0).(int64)
}
func (m *MockSaleService) Account() domain.Account {
	return m.Called().Get(0).(domain.Account)
}

// MockRewardsService
type MockRewardsService struct {
	mock.Mock
}

func (m *MockRewardsService) AddCar(ctx context.Context, caller domain.Account, saleID, rentPricePerDay int64) error {
	return m.Called(ctx, caller, saleID, rentPricePerDay).Error(0)
}
func (m *MockRewardsService) GetAllCars(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockRewardsService) GetCar(ctx context.Context, saleID int64) (*domain.Car, error) {
	args := m.Called(ctx, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}
func (m *MockRewardsService) Lock(ctx context.Context, caller domain.Account, saleID, amount int64) error {
	return m.Called(ctx, caller, saleID, amount).Error(0)
}
func (m *MockRewardsService) Unlock(ctx context.Context, caller domain.Account, saleID, amount int64) error {
	return m.Called(ctx, caller, saleID, amount).Error(0)
}
func (m *MockRewardsService) RentCar(ctx context.Context, caller domain.Account, saleID, days, payment int64) error {
	return m.Called(ctx, caller, saleID, days, payment).Error(0)
}
func (m *MockRewardsService) ClaimReward(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	args := m.Called(ctx, caller, saleID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRewardsService) WithdrawReward(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	args := m.Called(ctx, caller, saleID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRewardsService) SweepAvailableFunds(ctx context.Context, caller domain.Account) (int64, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRewardsService) GetWithdrawableReward(ctx context.Context, saleID int64, account domain.Account) (int64, error) {
	args := m.Called(ctx, saleID, account)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRewardsService) GetRewardAccount(ctx context.Context, saleID int64, account domain.Account) (*domain.RewardAccount, error) {
	args := m.Called(ctx, saleID, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RewardAccount), args.Error(1)
}
func (m *MockRewardsService) GetRewardPool(ctx context.Context, saleID int64) (*domain.RewardPool, error) {
	args := m.Called(ctx, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RewardPool), args.Error(1)
}
func (m *MockRewardsService) GetUnallocatedPool(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRewardsService) CheckLockedTotals(ctx context.Context) ([]domain.LockedTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LockedTotals), args.Error(1)
}
func (m *MockRewardsService) Account() domain.Account {
	return m.Called().Get(0).(domain.Account)
}

// MockFlusher
type MockFlusher struct {
	mock.Mock
}

func (m *MockFlusher) Flush(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
