package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type carRepository struct {
	db DBTX
}

func NewCarRepository(db DBTX) repository.CarRepository {
	return &carRepository{db: db}
}

func (r *carRepository) Get(ctx context.Context, saleID int64) (*domain.Car, error) {
	var c domain.Car
	var renter string
	query := `SELECT sale_id, seq, rent_price_per_day, rented_until, current_renter FROM cars WHERE sale_id = $1`
	err := r.db.QueryRowContext(ctx, query, saleID).Scan(&c.SaleID, &c.Seq, &c.RentPricePerDay, &c.RentedUntil, &renter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CurrentRenter = domain.Account(renter)
	return &c, nil
}

func (r *carRepository) Create(ctx context.Context, c *domain.Car) error {
	query := `INSERT INTO cars (sale_id, rent_price_per_day, rented_until, current_renter)
	          VALUES ($1, $2, $3, $4) RETURNING seq`
	logger.DatabaseCall("INSERT", "cars", "saleID", c.SaleID, "rentPricePerDay", c.RentPricePerDay)
	err := r.db.QueryRowContext(ctx, query, c.SaleID, c.RentPricePerDay, c.RentedUntil, string(c.CurrentRenter)).Scan(&c.Seq)
	logger.DatabaseResult("INSERT", 1, err, "saleID", c.SaleID)
	return err
}

func (r *carRepository) Update(ctx context.Context, c *domain.Car) error {
	query := `UPDATE cars SET rent_price_per_day = $2, rented_until = $3, current_renter = $4 WHERE sale_id = $1`
	res, err := r.db.ExecContext(ctx, query, c.SaleID, c.RentPricePerDay, c.RentedUntil, string(c.CurrentRenter))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns cars in the order they were added.
func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sale_id, seq, rent_price_per_day, rented_until, current_renter FROM cars ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []domain.Car
	for rows.Next() {
		var c domain.Car
		var renter string
		if err := rows.Scan(&c.SaleID, &c.Seq, &c.RentPricePerDay, &c.RentedUntil, &renter); err != nil {
			return nil, err
		}
		c.CurrentRenter = domain.Account(renter)
		cars = append(cars, c)
	}
	return cars, rows.Err()
}
