package memory

import (
	"context"

	"carshare-ledger/internal/domain"
)

type rewardRepository struct {
	st *state
}

func (r *rewardRepository) GetAccount(ctx context.Context, saleID int64, account domain.Account) (*domain.RewardAccount, error) {
	acc, ok := r.st.rewardAccounts[saleAccountKey{saleID, account}]
	if !ok {
		return &domain.RewardAccount{SaleID: saleID, Account: account}, nil
	}
	return &acc, nil
}

func (r *rewardRepository) SaveAccount(ctx context.Context, acc *domain.RewardAccount) error {
	r.st.rewardAccounts[saleAccountKey{acc.SaleID, acc.Account}] = *acc
	return nil
}

func (r *rewardRepository) SumLocked(ctx context.Context, saleID int64) (int64, error) {
	var sum int64
	for key, acc := range r.st.rewardAccounts {
		if key.saleID == saleID {
			sum += acc.LockedBalance
		}
	}
	return sum, nil
}

func (r *rewardRepository) GetPool(ctx context.Context, saleID int64) (*domain.RewardPool, error) {
	pool, ok := r.st.pools[saleID]
	if !ok {
		return &domain.RewardPool{SaleID: saleID}, nil
	}
	return &pool, nil
}

func (r *rewardRepository) SavePool(ctx context.Context, pool *domain.RewardPool) error {
	r.st.pools[pool.SaleID] = *pool
	return nil
}

func (r *rewardRepository) GetUnallocated(ctx context.Context) (int64, error) {
	return r.st.unallocated, nil
}

func (r *rewardRepository) SetUnallocated(ctx context.Context, amount int64) error {
	r.st.unallocated = amount
	return nil
}
