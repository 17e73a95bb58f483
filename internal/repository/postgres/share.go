package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type shareRepository struct {
	db DBTX
}

func NewShareRepository(db DBTX) repository.ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) BalanceOf(ctx context.Context, account domain.Account, saleID int64) (int64, error) {
	var amount int64
	query := `SELECT amount FROM share_balances WHERE sale_id = $1 AND account = $2`
	err := r.db.QueryRowContext(ctx, query, saleID, string(account)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

// SetBalance removes the row when amount is zero so TotalSupply only sees
// holders.
func (r *shareRepository) SetBalance(ctx context.Context, account domain.Account, saleID int64, amount int64) error {
	logger.DatabaseCall("UPSERT", "share_balances", "saleID", saleID, "account", account, "amount", amount)
	var err error
	if amount == 0 {
		_, err = r.db.ExecContext(ctx, `DELETE FROM share_balances WHERE sale_id = $1 AND account = $2`, saleID, string(account))
	} else {
		query := `INSERT INTO share_balances (sale_id, account, amount) VALUES ($1, $2, $3)
		          ON CONFLICT (sale_id, account) DO UPDATE SET amount = EXCLUDED.amount`
		_, err = r.db.ExecContext(ctx, query, saleID, string(account), amount)
	}
	logger.DatabaseResult("UPSERT", 1, err, "saleID", saleID)
	return err
}

func (r *shareRepository) TotalSupply(ctx context.Context, saleID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM share_balances WHERE sale_id = $1`, saleID).Scan(&total)
	return total, err
}

func (r *shareRepository) IsApprovedForAll(ctx context.Context, owner, operator domain.Account) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM share_approvals WHERE owner = $1 AND operator = $2)`
	err := r.db.QueryRowContext(ctx, query, string(owner), string(operator)).Scan(&exists)
	return exists, err
}

func (r *shareRepository) SetApprovalForAll(ctx context.Context, owner, operator domain.Account, approved bool) error {
	var err error
	if approved {
		_, err = r.db.ExecContext(ctx, `INSERT INTO share_approvals (owner, operator) VALUES ($1, $2) ON CONFLICT DO NOTHING`, string(owner), string(operator))
	} else {
		_, err = r.db.ExecContext(ctx, `DELETE FROM share_approvals WHERE owner = $1 AND operator = $2`, string(owner), string(operator))
	}
	return err
}

func (r *shareRepository) GetAuthorizedSeller(ctx context.Context) (domain.Account, error) {
	var seller string
	err := r.db.QueryRowContext(ctx, `SELECT authorized_seller FROM share_settings WHERE id = 1`).Scan(&seller)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ZeroAccount, nil
	}
	return domain.Account(seller), err
}

func (r *shareRepository) SetAuthorizedSeller(ctx context.Context, seller domain.Account) error {
	query := `INSERT INTO share_settings (id, authorized_seller) VALUES (1, $1)
	          ON CONFLICT (id) DO UPDATE SET authorized_seller = EXCLUDED.authorized_seller`
	logger.DatabaseCall("UPSERT", "share_settings", "seller", seller)
	_, err := r.db.ExecContext(ctx, query, string(seller))
	logger.DatabaseResult("UPSERT", 1, err)
	return err
}

func (r *shareRepository) GetURI(ctx context.Context, saleID int64) (string, error) {
	var uri string
	err := r.db.QueryRowContext(ctx, `SELECT uri FROM share_uris WHERE sale_id = $1`, saleID).Scan(&uri)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return uri, err
}

func (r *shareRepository) SetURI(ctx context.Context, saleID int64, uri string) error {
	query := `INSERT INTO share_uris (sale_id, uri) VALUES ($1, $2)
	          ON CONFLICT (sale_id) DO UPDATE SET uri = EXCLUDED.uri`
	_, err := r.db.ExecContext(ctx, query, saleID, uri)
	return err
}

func (r *shareRepository) GetMinter(ctx context.Context, saleID int64) (domain.Account, error) {
	var minter string
	err := r.db.QueryRowContext(ctx, `SELECT minter FROM share_minters WHERE sale_id = $1`, saleID).Scan(&minter)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return domain.Account(minter), err
}

func (r *shareRepository) SetMinter(ctx context.Context, saleID int64, minter domain.Account) error {
	query := `INSERT INTO share_minters (sale_id, minter) VALUES ($1, $2)
	          ON CONFLICT (sale_id) DO UPDATE SET minter = EXCLUDED.minter`
	_, err := r.db.ExecContext(ctx, query, saleID, string(minter))
	return err
}
