package postgres

import (
	"context"
	"database/sql"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	query := `INSERT INTO ledger_transactions (account, sale_id, amount, type, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	logger.DatabaseCall("INSERT", "ledger_transactions", "account", tx.Account, "amount", tx.Amount, "type", tx.Type)
	err := r.db.QueryRowContext(ctx, query, string(tx.Account), nullSaleID(tx.SaleID), tx.Amount, string(tx.Type), tx.CreatedAt).Scan(&tx.ID)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)
	return err
}

func (r *ledgerRepository) GetBalance(ctx context.Context, account domain.Account) (int64, error) {
	var balance int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions WHERE account = $1`
	err := r.db.QueryRowContext(ctx, query, string(account)).Scan(&balance)
	return balance, err
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, account domain.Account, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	query := `SELECT id, account, sale_id, amount, type, created_at
	          FROM ledger_transactions WHERE account = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, string(account), pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.LedgerTransaction
	for rows.Next() {
		var tx domain.LedgerTransaction
		var acc, typ string
		var saleID sql.NullInt64
		if err := rows.Scan(&tx.ID, &acc, &saleID, &tx.Amount, &typ, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		tx.Account = domain.Account(acc)
		tx.Type = domain.TransactionType(typ)
		if saleID.Valid {
			id := saleID.Int64
			tx.SaleID = &id
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM ledger_transactions WHERE account = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, string(account)).Scan(&count); err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (r *ledgerRepository) GetSummary(ctx context.Context, account domain.Account) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{
		Account: account,
		ByType:  make(map[domain.TransactionType]int64),
	}

	query := `SELECT COALESCE(SUM(amount), 0),
	                 COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0),
	                 COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0)
	          FROM ledger_transactions WHERE account = $1`
	if err := r.db.QueryRowContext(ctx, query, string(account)).Scan(&summary.Balance, &summary.Paid, &summary.Received); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, SUM(amount)
		FROM ledger_transactions
		WHERE account = $1
		GROUP BY type`, string(account))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var total int64
		if err := rows.Scan(&typ, &total); err != nil {
			return nil, err
		}
		summary.ByType[domain.TransactionType(typ)] = total
	}
	return summary, rows.Err()
}

func nullSaleID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
