package service

import (
	"context"
	"errors"

	"carshare-ledger/internal/assetledger"
	"carshare-ledger/internal/clock"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/events"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type RewardsConfig struct {
	Owner domain.Account
	// Custody holds locked shares and rental revenue. Investors approve it as
	// an operator before locking.
	Custody domain.Account
}

type rewardsService struct {
	store   repository.Store
	ledger  *assetledger.Ledger
	clock   clock.Clock
	relay   *events.Relay
	owner   domain.Account
	custody domain.Account
}

func NewRewardsService(
	store repository.Store,
	ledger *assetledger.Ledger,
	clk clock.Clock,
	relay *events.Relay,
	cfg RewardsConfig,
) RewardsService {
	return &rewardsService{
		store:   store,
		ledger:  ledger,
		clock:   clk,
		relay:   relay,
		owner:   cfg.Owner,
		custody: cfg.Custody,
	}
}

func (s *rewardsService) Account() domain.Account {
	return s.custody
}

func (s *rewardsService) mutate(ctx context.Context, method string, fn func(ctx context.Context, tx repository.Tx, now int64) error, args ...any) error {
	logger.EnterMethod(method, args...)
	now := s.clock.Now()
	if err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, tx, now)
	}); err != nil {
		logExit(method, err, args...)
		return err
	}
	s.relay.Notify(ctx)
	logger.ExitMethod(method, args...)
	return nil
}

// settle moves the reward accrued since the account's last settlement into
// claimable and brings its debt index up to date. It returns the amount moved.
func settle(acc *domain.RewardAccount, pool *domain.RewardPool) (int64, error) {
	pending, err := domain.MulAmount(acc.LockedBalance, pool.RewardIndex-acc.RewardDebtIndex)
	if err != nil {
		return 0, err
	}
	claimable, err := domain.AddAmount(acc.Claimable, pending)
	if err != nil {
		return 0, err
	}
	acc.Claimable = claimable
	acc.RewardDebtIndex = pool.RewardIndex
	return pending, nil
}

func (s *rewardsService) loadCar(ctx context.Context, tx repository.Tx, saleID int64) (*domain.Car, error) {
	car, err := tx.Cars().Get(ctx, saleID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrWrongCarID
	}
	return car, err
}

func (s *rewardsService) AddCar(ctx context.Context, caller domain.Account, saleID, rentPricePerDay int64) error {
	return s.mutate(ctx, "rewardsService.AddCar", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if !sale.Status.IsBought() {
			return domain.ErrNotBoughtYet
		}
		if rentPricePerDay <= 0 {
			return domain.ErrRentPriceTooLow
		}
		if _, err := tx.Cars().Get(ctx, saleID); err == nil {
			return domain.ErrCarAlreadyAdded
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := tx.Cars().Create(ctx, &domain.Car{SaleID: saleID, RentPricePerDay: rentPricePerDay}); err != nil {
			return err
		}
		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventNewCarAdded, saleID, caller, now, map[string]any{
			"rent_price_per_day": rentPricePerDay,
		}))
	}, "saleID", saleID, "rentPricePerDay", rentPricePerDay)
}

func (s *rewardsService) GetAllCars(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cars, err := tx.Cars().List(ctx)
		if err != nil {
			return err
		}
		ids = make([]int64, 0, len(cars))
		for _, c := range cars {
			ids = append(ids, c.SaleID)
		}
		return nil
	})
	return ids, err
}

func (s *rewardsService) GetCar(ctx context.Context, saleID int64) (*domain.Car, error) {
	var car *domain.Car
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		car, err = s.loadCar(ctx, tx, saleID)
		return err
	})
	return car, err
}

func (s *rewardsService) Lock(ctx context.Context, caller domain.Account, saleID, amount int64) error {
	return s.mutate(ctx, "rewardsService.Lock", func(ctx context.Context, tx repository.Tx, now int64) error {
		if _, err := s.loadCar(ctx, tx, saleID); err != nil {
			return err
		}
		held, err := s.ledger.BalanceOf(ctx, tx, caller, saleID)
		if err != nil {
			return err
		}
		if held == 0 {
			return domain.ErrNotInvestor
		}
		if amount <= 0 {
			return domain.ErrZeroAmount
		}

		acc, pool, err := s.position(ctx, tx, saleID, caller)
		if err != nil {
			return err
		}
		if _, err := settle(acc, pool); err != nil {
			return err
		}
		if acc.LockedBalance, err = domain.AddAmount(acc.LockedBalance, amount); err != nil {
			return err
		}
		if pool.TotalLocked, err = domain.AddAmount(pool.TotalLocked, amount); err != nil {
			return err
		}
		if err := s.savePosition(ctx, tx, acc, pool); err != nil {
			return err
		}

		if err := events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventInvestorLockedTokens, saleID, caller, now, map[string]any{
			"amount":     amount,
			"new_locked": acc.LockedBalance,
		})); err != nil {
			return err
		}
		return s.ledger.Transfer(ctx, tx, s.custody, caller, s.custody, saleID, amount)
	}, "saleID", saleID, "caller", caller, "amount", amount)
}

func (s *rewardsService) Unlock(ctx context.Context, caller domain.Account, saleID, amount int64) error {
	return s.mutate(ctx, "rewardsService.Unlock", func(ctx context.Context, tx repository.Tx, now int64) error {
		acc, pool, err := s.position(ctx, tx, saleID, caller)
		if err != nil {
			return err
		}
		if acc.LockedBalance == 0 {
			return domain.ErrNoLockedTokens
		}
		if amount > acc.LockedBalance {
			return domain.ErrTooManyLockedTokens
		}
		if amount <= 0 {
			return domain.ErrZeroAmount
		}

		if _, err := settle(acc, pool); err != nil {
			return err
		}
		acc.LockedBalance -= amount
		pool.TotalLocked -= amount
		if err := s.savePosition(ctx, tx, acc, pool); err != nil {
			return err
		}

		if err := events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventInvestorUnlockedTokens, saleID, caller, now, map[string]any{
			"amount":     amount,
			"new_locked": acc.LockedBalance,
		})); err != nil {
			return err
		}
		return s.ledger.Transfer(ctx, tx, s.custody, s.custody, caller, saleID, amount)
	}, "saleID", saleID, "caller", caller, "amount", amount)
}

func (s *rewardsService) RentCar(ctx context.Context, caller domain.Account, saleID, days, payment int64) error {
	return s.mutate(ctx, "rewardsService.RentCar", func(ctx context.Context, tx repository.Tx, now int64) error {
		car, err := s.loadCar(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if days <= 0 {
			return domain.ErrZeroDaysRental
		}
		expected, err := domain.MulAmount(days, car.RentPricePerDay)
		if err != nil {
			return err
		}
		if payment != expected {
			return &domain.WrongPaymentError{Sent: payment, Expected: expected}
		}
		if car.IsRented(now) {
			return domain.ErrCarIsRented
		}

		duration, err := domain.MulAmount(days, domain.SecondsPerDay)
		if err != nil {
			return err
		}
		if car.RentedUntil, err = domain.AddAmount(now, duration); err != nil {
			return err
		}
		car.CurrentRenter = caller
		if err := tx.Cars().Update(ctx, car); err != nil {
			return err
		}

		if err := s.accrue(ctx, tx, saleID, payment); err != nil {
			return err
		}
		if err := pay(ctx, tx, caller, saleRef(saleID), -payment, domain.TransactionTypeRentPayment, now); err != nil {
			return err
		}
		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventCarWasRented, saleID, caller, now, map[string]any{
			"days":   days,
			"renter": string(caller),
		}))
	}, "saleID", saleID, "caller", caller, "days", days, "payment", payment)
}

// accrue spreads a rental payment over the shares locked for the sale. The
// division remainder stays in custody as dust. With nothing locked the whole
// payment goes to the unallocated pool.
func (s *rewardsService) accrue(ctx context.Context, tx repository.Tx, saleID, payment int64) error {
	pool, err := tx.Rewards().GetPool(ctx, saleID)
	if err != nil {
		return err
	}
	if pool.TotalLocked == 0 {
		unallocated, err := tx.Rewards().GetUnallocated(ctx)
		if err != nil {
			return err
		}
		total, err := domain.AddAmount(unallocated, payment)
		if err != nil {
			return err
		}
		return tx.Rewards().SetUnallocated(ctx, total)
	}

	index, err := domain.AddAmount(pool.RewardIndex, payment/pool.TotalLocked)
	if err != nil {
		return err
	}
	dust, err := domain.AddAmount(pool.Dust, payment%pool.TotalLocked)
	if err != nil {
		return err
	}
	pool.RewardIndex, pool.Dust = index, dust
	return tx.Rewards().SavePool(ctx, pool)
}

func (s *rewardsService) ClaimReward(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	var claimable int64
	err := s.mutate(ctx, "rewardsService.ClaimReward", func(ctx context.Context, tx repository.Tx, now int64) error {
		acc, pool, err := s.position(ctx, tx, saleID, caller)
		if err != nil {
			return err
		}
		pending, err := settle(acc, pool)
		if err != nil {
			return err
		}
		if pending == 0 {
			return domain.ErrNoClaimableReward
		}
		if err := tx.Rewards().SaveAccount(ctx, acc); err != nil {
			return err
		}
		claimable = acc.Claimable

		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventUpdatedInvestorClaimableReward, saleID, caller, now, map[string]any{
			"claimable": acc.Claimable,
		}))
	}, "saleID", saleID, "caller", caller)
	return claimable, err
}

func (s *rewardsService) WithdrawReward(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	var amount int64
	err := s.mutate(ctx, "rewardsService.WithdrawReward", func(ctx context.Context, tx repository.Tx, now int64) error {
		acc, err := tx.Rewards().GetAccount(ctx, saleID, caller)
		if err != nil {
			return err
		}
		if acc.Claimable == 0 {
			return domain.ErrNoWithdrawable
		}

		amount = acc.Claimable
		acc.Claimable = 0
		if err := tx.Rewards().SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventInvestorWithdrawedReward, saleID, caller, now, map[string]any{
			"amount": amount,
		})); err != nil {
			return err
		}
		return pay(ctx, tx, caller, saleRef(saleID), amount, domain.TransactionTypeRewardWithdrawal, now)
	}, "saleID", saleID, "caller", caller)
	return amount, err
}

func (s *rewardsService) SweepAvailableFunds(ctx context.Context, caller domain.Account) (int64, error) {
	var amount int64
	err := s.mutate(ctx, "rewardsService.SweepAvailableFunds", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		unallocated, err := tx.Rewards().GetUnallocated(ctx)
		if err != nil {
			return err
		}
		if unallocated == 0 {
			return domain.ErrNothingToSweep
		}

		amount = unallocated
		if err := tx.Rewards().SetUnallocated(ctx, 0); err != nil {
			return err
		}
		if err := events.Record(ctx, tx.Events(), events.GlobalEvent(domain.EventUnallocatedFundsSwept, caller, now, map[string]any{
			"amount": amount,
		})); err != nil {
			return err
		}
		return pay(ctx, tx, s.owner, nil, amount, domain.TransactionTypePoolSweep, now)
	})
	return amount, err
}

func (s *rewardsService) GetWithdrawableReward(ctx context.Context, saleID int64, account domain.Account) (int64, error) {
	acc, err := s.GetRewardAccount(ctx, saleID, account)
	if err != nil {
		return 0, err
	}
	return acc.Claimable, nil
}

func (s *rewardsService) GetRewardAccount(ctx context.Context, saleID int64, account domain.Account) (*domain.RewardAccount, error) {
	var acc *domain.RewardAccount
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		acc, err = tx.Rewards().GetAccount(ctx, saleID, account)
		return err
	})
	return acc, err
}

func (s *rewardsService) GetRewardPool(ctx context.Context, saleID int64) (*domain.RewardPool, error) {
	var pool *domain.RewardPool
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pool, err = tx.Rewards().GetPool(ctx, saleID)
		return err
	})
	return pool, err
}

// CheckLockedTotals returns the registered cars whose locked totals disagree.
func (s *rewardsService) CheckLockedTotals(ctx context.Context) ([]domain.LockedTotals, error) {
	var bad []domain.LockedTotals
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cars, err := tx.Cars().List(ctx)
		if err != nil {
			return err
		}
		for _, c := range cars {
			pool, err := tx.Rewards().GetPool(ctx, c.SaleID)
			if err != nil {
				return err
			}
			sum, err := tx.Rewards().SumLocked(ctx, c.SaleID)
			if err != nil {
				return err
			}
			custody, err := s.ledger.BalanceOf(ctx, tx, s.custody, c.SaleID)
			if err != nil {
				return err
			}
			totals := domain.LockedTotals{SaleID: c.SaleID, TotalLocked: pool.TotalLocked, SumLocked: sum, CustodyBalance: custody}
			if !totals.Consistent() {
				bad = append(bad, totals)
			}
		}
		return nil
	})
	return bad, err
}

func (s *rewardsService) GetUnallocatedPool(ctx context.Context) (int64, error) {
	var amount int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		amount, err = tx.Rewards().GetUnallocated(ctx)
		return err
	})
	return amount, err
}

func (s *rewardsService) position(ctx context.Context, tx repository.Tx, saleID int64, account domain.Account) (*domain.RewardAccount, *domain.RewardPool, error) {
	acc, err := tx.Rewards().GetAccount(ctx, saleID, account)
	if err != nil {
		return nil, nil, err
	}
	pool, err := tx.Rewards().GetPool(ctx, saleID)
	if err != nil {
		return nil, nil, err
	}
	return acc, pool, nil
}

func (s *rewardsService) savePosition(ctx context.Context, tx repository.Tx, acc *domain.RewardAccount, pool *domain.RewardPool) error {
	if err := tx.Rewards().SaveAccount(ctx, acc); err != nil {
		return err
	}
	return tx.Rewards().SavePool(ctx, pool)
}
