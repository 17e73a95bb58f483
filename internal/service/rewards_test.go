package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/repository"
)

const (
	carSale   int64 = 9
	rentPrice int64 = 100
)

// rewardsFixture reproduces the usual starting point: sale 9 of ten shares,
// alice holds 3 and bob 7, and a car renting at 100 per day is registered.
func rewardsFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.soldSale(t, carSale, 10, 10, 3)
	require.NoError(t, f.rewards.AddCar(f.ctx, owner, carSale, rentPrice))
	return f
}

func (f *fixture) approve(t *testing.T, who domain.Account) {
	t.Helper()
	require.NoError(t, f.shares.SetApprovalForAll(f.ctx, who, custody, true))
}

func (f *fixture) withdrawable(t *testing.T, who domain.Account) int64 {
	t.Helper()
	w, err := f.rewards.GetWithdrawableReward(f.ctx, carSale, who)
	require.NoError(t, err)
	return w
}

func (f *fixture) pool(t *testing.T) *domain.RewardPool {
	t.Helper()
	p, err := f.rewards.GetRewardPool(f.ctx, carSale)
	require.NoError(t, err)
	return p
}

func TestAddCar(t *testing.T) {
	f := newFixture(t)
	f.startSale(t, 1, 10, 10)

	assert.ErrorIs(t, f.rewards.AddCar(f.ctx, owner, 1, 100), domain.ErrNotBoughtYet)
	assert.ErrorIs(t, f.rewards.AddCar(f.ctx, owner, 404, 100), domain.ErrNotBoughtYet)

	f.soldSale(t, 2, 10, 10, 5)
	assert.ErrorIs(t, f.rewards.AddCar(f.ctx, alice, 2, 100), domain.ErrNotOwner)
	assert.ErrorIs(t, f.rewards.AddCar(f.ctx, owner, 2, 0), domain.ErrRentPriceTooLow)

	require.NoError(t, f.rewards.AddCar(f.ctx, owner, 2, 100))
	ev := f.lastEvent(t)
	assert.Equal(t, domain.EventNewCarAdded, ev.Name)
	assert.Equal(t, int64(2), *ev.SaleID)
	assert.Equal(t, int64(100), ev.Attributes["rent_price_per_day"])

	assert.ErrorIs(t, f.rewards.AddCar(f.ctx, owner, 2, 100), domain.ErrCarAlreadyAdded)

	car, err := f.rewards.GetCar(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), car.RentedUntil)
}

func TestAddCar_AfterOwnerWithdrawal(t *testing.T) {
	f := newFixture(t)
	f.soldSale(t, 3, 10, 10, 5)
	_, err := f.sales.WithdrawInvestedFunds(f.ctx, owner, 3)
	require.NoError(t, err)

	require.NoError(t, f.rewards.AddCar(f.ctx, owner, 3, 50))
}

func TestGetAllCars_InsertionOrder(t *testing.T) {
	f := newFixture(t)
	for _, id := range []int64{5, 4} {
		f.startSale(t, id, 10, 10)
		f.invest(t, alice, id, 10, 10)
	}
	f.clock.Set(f.deadline() + 1)
	for _, id := range []int64{5, 4} {
		_, err := f.sales.FinalizeSale(f.ctx, owner, id)
		require.NoError(t, err)
	}

	require.NoError(t, f.rewards.AddCar(f.ctx, owner, 5, 100))
	require.NoError(t, f.rewards.AddCar(f.ctx, owner, 4, 100))

	ids, err := f.rewards.GetAllCars(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, ids)
}

func TestLockUnlock(t *testing.T) {
	f := rewardsFixture(t)

	t.Run("Not investor", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Lock(f.ctx, renter, carSale, 10), domain.ErrNotInvestor)
	})

	t.Run("Wrong car", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Lock(f.ctx, bob, 10, 10), domain.ErrWrongCarID)
	})

	t.Run("Zero amount", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Lock(f.ctx, bob, carSale, 0), domain.ErrZeroAmount)
	})

	t.Run("Custody not approved", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Lock(f.ctx, bob, carSale, 7), domain.ErrNotApproved)
	})

	t.Run("More than held", func(t *testing.T) {
		f.approve(t, bob)
		assert.ErrorIs(t, f.rewards.Lock(f.ctx, bob, carSale, 10), domain.ErrInsufficientBalance)
		acc, err := f.rewards.GetRewardAccount(f.ctx, carSale, bob)
		require.NoError(t, err)
		assert.Equal(t, int64(0), acc.LockedBalance)
	})

	t.Run("Lock", func(t *testing.T) {
		require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 7))
		ev := f.lastEvent(t)
		assert.Equal(t, domain.EventInvestorLockedTokens, ev.Name)
		assert.Equal(t, bob, ev.Account)
		assert.Equal(t, int64(7), ev.Attributes["amount"])
		assert.Equal(t, int64(7), ev.Attributes["new_locked"])

		assert.Equal(t, int64(0), f.balance(t, bob, carSale))
		assert.Equal(t, int64(7), f.balance(t, custody, carSale))
		assert.Equal(t, int64(7), f.pool(t).TotalLocked)
	})

	t.Run("No locked tokens", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Unlock(f.ctx, alice, carSale, 10), domain.ErrNoLockedTokens)
	})

	t.Run("Unlock too many", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Unlock(f.ctx, bob, carSale, 10), domain.ErrTooManyLockedTokens)
	})

	t.Run("Unlock zero", func(t *testing.T) {
		assert.ErrorIs(t, f.rewards.Unlock(f.ctx, bob, carSale, 0), domain.ErrZeroAmount)
	})

	t.Run("Unlock", func(t *testing.T) {
		require.NoError(t, f.rewards.Unlock(f.ctx, bob, carSale, 3))
		ev := f.lastEvent(t)
		assert.Equal(t, domain.EventInvestorUnlockedTokens, ev.Name)
		assert.Equal(t, int64(3), ev.Attributes["amount"])
		assert.Equal(t, int64(4), ev.Attributes["new_locked"])
		assert.Equal(t, int64(3), f.balance(t, bob, carSale))
	})

	sum, total := f.lockedSum(t, carSale)
	assert.Equal(t, total, sum)
}

func TestRentCar(t *testing.T) {
	f := rewardsFixture(t)

	assert.ErrorIs(t, f.rewards.RentCar(f.ctx, renter, 10, 1, rentPrice), domain.ErrWrongCarID)
	assert.ErrorIs(t, f.rewards.RentCar(f.ctx, renter, carSale, 0, 0), domain.ErrZeroDaysRental)

	err := f.rewards.RentCar(f.ctx, renter, carSale, 1, 10)
	var wrong *domain.WrongPaymentError
	require.True(t, errors.As(err, &wrong))
	assert.Equal(t, int64(10), wrong.Sent)
	assert.Equal(t, int64(100), wrong.Expected)

	require.NoError(t, f.rewards.RentCar(f.ctx, renter, carSale, 2, 2*rentPrice))
	ev := f.lastEvent(t)
	assert.Equal(t, domain.EventCarWasRented, ev.Name)
	assert.Equal(t, int64(2), ev.Attributes["days"])
	assert.Equal(t, string(renter), ev.Attributes["renter"])

	car, err := f.rewards.GetCar(f.ctx, carSale)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now()+2*domain.SecondsPerDay, car.RentedUntil)
	assert.Equal(t, renter, car.CurrentRenter)
	assert.Equal(t, int64(-200), f.funds(t, renter))

	assert.ErrorIs(t, f.rewards.RentCar(f.ctx, alice, carSale, 1, rentPrice), domain.ErrCarIsRented)

	// Free again exactly at rentedUntil.
	f.clock.Set(car.RentedUntil)
	require.NoError(t, f.rewards.RentCar(f.ctx, alice, carSale, 1, rentPrice))
}

// A sole locker with four shares earns the whole rental, claims it once and
// withdraws it once.
func TestScenario_ClaimAndWithdraw(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, bob)
	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 7))
	require.NoError(t, f.rewards.Unlock(f.ctx, bob, carSale, 3))
	require.NoError(t, f.rewards.RentCar(f.ctx, renter, carSale, 1, rentPrice))

	assert.Equal(t, int64(25), f.pool(t).RewardIndex)
	assert.Equal(t, int64(0), f.withdrawable(t, bob))

	claimable, err := f.rewards.ClaimReward(f.ctx, bob, carSale)
	require.NoError(t, err)
	assert.Equal(t, int64(100), claimable)
	ev := f.lastEvent(t)
	assert.Equal(t, domain.EventUpdatedInvestorClaimableReward, ev.Name)
	assert.Equal(t, int64(100), ev.Attributes["claimable"])

	_, err = f.rewards.ClaimReward(f.ctx, bob, carSale)
	assert.ErrorIs(t, err, domain.ErrNoClaimableReward)
	assert.Equal(t, int64(100), f.withdrawable(t, bob))

	before := f.funds(t, bob)
	amount, err := f.rewards.WithdrawReward(f.ctx, bob, carSale)
	require.NoError(t, err)
	assert.Equal(t, int64(100), amount)
	assert.Equal(t, before+100, f.funds(t, bob))
	assert.Equal(t, domain.EventInvestorWithdrawedReward, f.lastEvent(t).Name)
	assert.Equal(t, int64(0), f.withdrawable(t, bob))

	_, err = f.rewards.WithdrawReward(f.ctx, bob, carSale)
	assert.ErrorIs(t, err, domain.ErrNoWithdrawable)
	_, err = f.rewards.ClaimReward(f.ctx, bob, carSale)
	assert.ErrorIs(t, err, domain.ErrNoClaimableReward)
}

func TestUnallocatedPool(t *testing.T) {
	f := rewardsFixture(t)

	_, err := f.rewards.SweepAvailableFunds(f.ctx, owner)
	assert.ErrorIs(t, err, domain.ErrNothingToSweep)

	require.NoError(t, f.rewards.RentCar(f.ctx, renter, carSale, 1, rentPrice))
	pooled, err := f.rewards.GetUnallocatedPool(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pooled)
	assert.Equal(t, int64(0), f.pool(t).RewardIndex)

	_, err = f.rewards.SweepAvailableFunds(f.ctx, alice)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	ownerBefore := f.funds(t, owner)
	amount, err := f.rewards.SweepAvailableFunds(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(100), amount)
	assert.Equal(t, ownerBefore+100, f.funds(t, owner))

	ev := f.lastEvent(t)
	assert.Equal(t, domain.EventUnallocatedFundsSwept, ev.Name)
	assert.Nil(t, ev.SaleID)

	_, err = f.rewards.SweepAvailableFunds(f.ctx, owner)
	assert.ErrorIs(t, err, domain.ErrNothingToSweep)
}

// Locking more after a rental must not earn the rental's reward on the new
// shares.
func TestScenario_DilutionSafety(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, bob)
	f.approve(t, alice)
	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 4))
	require.NoError(t, f.rewards.Lock(f.ctx, alice, carSale, 3))
	require.NoError(t, f.rewards.RentCar(f.ctx, renter, carSale, 1, rentPrice))

	pool := f.pool(t)
	assert.Equal(t, int64(14), pool.RewardIndex)
	assert.Equal(t, int64(2), pool.Dust)

	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 3))
	assert.Equal(t, int64(7), f.lastEvent(t).Attributes["new_locked"])
	assert.Equal(t, int64(14*4), f.withdrawable(t, bob))

	_, err := f.rewards.ClaimReward(f.ctx, bob, carSale)
	assert.ErrorIs(t, err, domain.ErrNoClaimableReward)

	assert.Equal(t, int64(0), f.withdrawable(t, alice))
	claimable, err := f.rewards.ClaimReward(f.ctx, alice, carSale)
	require.NoError(t, err)
	assert.Equal(t, int64(14*3), claimable)

	sum, total := f.lockedSum(t, carSale)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, total, sum)
}

func TestLockUnlock_RoundTrip(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, alice)

	accBefore, err := f.rewards.GetRewardAccount(f.ctx, carSale, alice)
	require.NoError(t, err)
	held := f.balance(t, alice, carSale)

	require.NoError(t, f.rewards.Lock(f.ctx, alice, carSale, 2))
	require.NoError(t, f.rewards.Unlock(f.ctx, alice, carSale, 2))

	accAfter, err := f.rewards.GetRewardAccount(f.ctx, carSale, alice)
	require.NoError(t, err)
	assert.Equal(t, accBefore.LockedBalance, accAfter.LockedBalance)
	assert.Equal(t, accBefore.Claimable, accAfter.Claimable)
	assert.Equal(t, held, f.balance(t, alice, carSale))
	assert.Equal(t, int64(0), f.balance(t, custody, carSale))
}

func TestRewardIndex_NonDecreasing(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, bob)
	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 7))

	last := f.pool(t).RewardIndex
	for i := 0; i < 3; i++ {
		require.NoError(t, f.rewards.RentCar(f.ctx, renter, carSale, 1, rentPrice))
		f.clock.Advance(domain.SecondsPerDay)
		if i == 1 {
			require.NoError(t, f.rewards.Unlock(f.ctx, bob, carSale, 6))
		}
		idx := f.pool(t).RewardIndex
		assert.GreaterOrEqual(t, idx, last)
		last = idx
	}
	// 100/7 twice, then 100/1.
	assert.Equal(t, int64(14+14+100), last)
}

// tamperPool rewrites the stored pool for carSale outside any operation.
func (f *fixture) tamperPool(t *testing.T, fn func(*domain.RewardPool)) {
	t.Helper()
	require.NoError(t, f.store.RunInTx(f.ctx, func(ctx context.Context, tx repository.Tx) error {
		pool, err := tx.Rewards().GetPool(ctx, carSale)
		if err != nil {
			return err
		}
		fn(pool)
		return tx.Rewards().SavePool(ctx, pool)
	}))
}

func TestRentCar_RewardIndexOverflow(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, bob)
	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 1))
	f.tamperPool(t, func(p *domain.RewardPool) { p.RewardIndex = math.MaxInt64 - 50 })
	eventsBefore := len(f.events(t))

	err := f.rewards.RentCar(f.ctx, renter, carSale, 1, rentPrice)
	assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)
	assert.Equal(t, int64(math.MaxInt64-50), f.pool(t).RewardIndex)
	assert.Len(t, f.events(t), eventsBefore)

	car, err := f.rewards.GetCar(f.ctx, carSale)
	require.NoError(t, err)
	assert.Equal(t, int64(0), car.RentedUntil)
}

func TestRentCar_DustOverflow(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, bob)
	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 7))
	f.tamperPool(t, func(p *domain.RewardPool) { p.Dust = math.MaxInt64 })

	// 100 over 7 locked leaves a remainder of 2.
	err := f.rewards.RentCar(f.ctx, renter, carSale, 1, rentPrice)
	assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)
	assert.Equal(t, int64(0), f.pool(t).RewardIndex)
}

func TestCheckLockedTotals(t *testing.T) {
	f := rewardsFixture(t)
	f.approve(t, bob)
	f.approve(t, alice)
	require.NoError(t, f.rewards.Lock(f.ctx, bob, carSale, 4))
	require.NoError(t, f.rewards.Lock(f.ctx, alice, carSale, 3))

	bad, err := f.rewards.CheckLockedTotals(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, bad)

	f.tamperPool(t, func(p *domain.RewardPool) { p.TotalLocked = 6 })
	bad, err = f.rewards.CheckLockedTotals(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.LockedTotals{
		{SaleID: carSale, TotalLocked: 6, SumLocked: 7, CustodyBalance: 7},
	}, bad)
}
