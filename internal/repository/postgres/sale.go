package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type saleRepository struct {
	db DBTX
}

func NewSaleRepository(db DBTX) repository.SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, status, tokens_total, tokens_owned_by_users, deadline, price_per_token, metadata_uri, collected`

func scanSale(row interface{ Scan(dest ...any) error }) (*domain.Sale, error) {
	var s domain.Sale
	var status int
	if err := row.Scan(&s.ID, &status, &s.TokensTotal, &s.TokensOwnedByUsers, &s.Deadline, &s.PricePerToken, &s.MetadataURI, &s.Collected); err != nil {
		return nil, err
	}
	s.Status = domain.SaleStatus(status)
	return &s, nil
}

func (r *saleRepository) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	logger.DatabaseCall("SELECT", "sales", "saleID", id)
	sale, err := scanSale(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return sale, err
}

func (r *saleRepository) Create(ctx context.Context, s *domain.Sale) error {
	logger.EnterMethod("saleRepository.Create", "saleID", s.ID, "tokensTotal", s.TokensTotal)

	query := `INSERT INTO sales (` + saleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "sales", "saleID", s.ID)
	_, err := r.db.ExecContext(ctx, query, s.ID, int(s.Status), s.TokensTotal, s.TokensOwnedByUsers, s.Deadline, s.PricePerToken, s.MetadataURI, s.Collected)
	logger.DatabaseResult("INSERT", 1, err, "saleID", s.ID)

	if err != nil {
		logger.ExitMethodWithError("saleRepository.Create", err, "saleID", s.ID)
		return err
	}
	logger.ExitMethod("saleRepository.Create", "saleID", s.ID)
	return nil
}

func (r *saleRepository) Update(ctx context.Context, s *domain.Sale) error {
	query := `UPDATE sales SET status = $2, tokens_total = $3, tokens_owned_by_users = $4, deadline = $5,
	          price_per_token = $6, metadata_uri = $7, collected = $8 WHERE id = $1`
	logger.DatabaseCall("UPDATE", "sales", "saleID", s.ID, "status", s.Status)
	res, err := r.db.ExecContext(ctx, query, s.ID, int(s.Status), s.TokensTotal, s.TokensOwnedByUsers, s.Deadline, s.PricePerToken, s.MetadataURI, s.Collected)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "saleID", s.ID)
		return err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "saleID", s.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *saleRepository) ListByStatus(ctx context.Context, statuses ...domain.SaleStatus) ([]domain.Sale, error) {
	codes := make([]int64, len(statuses))
	for i, st := range statuses {
		codes[i] = int64(st)
	}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE status = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(codes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *s)
	}
	return sales, rows.Err()
}

func (r *saleRepository) GetContribution(ctx context.Context, saleID int64, account domain.Account) (int64, error) {
	var tokens int64
	query := `SELECT tokens FROM sale_contributions WHERE sale_id = $1 AND account = $2`
	err := r.db.QueryRowContext(ctx, query, saleID, string(account)).Scan(&tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return tokens, err
}

func (r *saleRepository) SetContribution(ctx context.Context, saleID int64, account domain.Account, tokens int64) error {
	query := `INSERT INTO sale_contributions (sale_id, account, tokens) VALUES ($1, $2, $3)
	          ON CONFLICT (sale_id, account) DO UPDATE SET tokens = EXCLUDED.tokens`
	_, err := r.db.ExecContext(ctx, query, saleID, string(account), tokens)
	return err
}
