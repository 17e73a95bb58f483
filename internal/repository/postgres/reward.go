package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type rewardRepository struct {
	db DBTX
}

func NewRewardRepository(db DBTX) repository.RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) GetAccount(ctx context.Context, saleID int64, account domain.Account) (*domain.RewardAccount, error) {
	acc := &domain.RewardAccount{SaleID: saleID, Account: account}
	query := `SELECT locked_balance, reward_debt_index, claimable FROM reward_accounts WHERE sale_id = $1 AND account = $2`
	err := r.db.QueryRowContext(ctx, query, saleID, string(account)).Scan(&acc.LockedBalance, &acc.RewardDebtIndex, &acc.Claimable)
	if errors.Is(err, sql.ErrNoRows) {
		return acc, nil
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *rewardRepository) SaveAccount(ctx context.Context, acc *domain.RewardAccount) error {
	query := `INSERT INTO reward_accounts (sale_id, account, locked_balance, reward_debt_index, claimable)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (sale_id, account) DO UPDATE SET
	              locked_balance = EXCLUDED.locked_balance,
	              reward_debt_index = EXCLUDED.reward_debt_index,
	              claimable = EXCLUDED.claimable`
	logger.DatabaseCall("UPSERT", "reward_accounts", "saleID", acc.SaleID, "account", acc.Account)
	_, err := r.db.ExecContext(ctx, query, acc.SaleID, string(acc.Account), acc.LockedBalance, acc.RewardDebtIndex, acc.Claimable)
	logger.DatabaseResult("UPSERT", 1, err, "saleID", acc.SaleID)
	return err
}

func (r *rewardRepository) SumLocked(ctx context.Context, saleID int64) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(locked_balance), 0) FROM reward_accounts WHERE sale_id = $1`
	err := r.db.QueryRowContext(ctx, query, saleID).Scan(&sum)
	return sum, err
}

func (r *rewardRepository) GetPool(ctx context.Context, saleID int64) (*domain.RewardPool, error) {
	pool := &domain.RewardPool{SaleID: saleID}
	query := `SELECT reward_index, total_locked, dust FROM reward_pools WHERE sale_id = $1`
	err := r.db.QueryRowContext(ctx, query, saleID).Scan(&pool.RewardIndex, &pool.TotalLocked, &pool.Dust)
	if errors.Is(err, sql.ErrNoRows) {
		return pool, nil
	}
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (r *rewardRepository) SavePool(ctx context.Context, pool *domain.RewardPool) error {
	query := `INSERT INTO reward_pools (sale_id, reward_index, total_locked, dust) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (sale_id) DO UPDATE SET
	              reward_index = EXCLUDED.reward_index,
	              total_locked = EXCLUDED.total_locked,
	              dust = EXCLUDED.dust`
	_, err := r.db.ExecContext(ctx, query, pool.SaleID, pool.RewardIndex, pool.TotalLocked, pool.Dust)
	return err
}

func (r *rewardRepository) GetUnallocated(ctx context.Context) (int64, error) {
	var amount int64
	err := r.db.QueryRowContext(ctx, `SELECT amount FROM unallocated_pool WHERE id = 1`).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (r *rewardRepository) SetUnallocated(ctx context.Context, amount int64) error {
	query := `INSERT INTO unallocated_pool (id, amount) VALUES (1, $1)
	          ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount`
	_, err := r.db.ExecContext(ctx, query, amount)
	return err
}
