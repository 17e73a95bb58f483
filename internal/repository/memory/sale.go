package memory

import (
	"context"
	"slices"
	"sort"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/repository"
)

type saleRepository struct {
	st *state
}

func (r *saleRepository) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, ok := r.st.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sale, nil
}

func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	r.st.sales[sale.ID] = *sale
	return nil
}

func (r *saleRepository) Update(ctx context.Context, sale *domain.Sale) error {
	if _, ok := r.st.sales[sale.ID]; !ok {
		return repository.ErrNotFound
	}
	r.st.sales[sale.ID] = *sale
	return nil
}

func (r *saleRepository) ListByStatus(ctx context.Context, statuses ...domain.SaleStatus) ([]domain.Sale, error) {
	var sales []domain.Sale
	for _, sale := range r.st.sales {
		if slices.Contains(statuses, sale.Status) {
			sales = append(sales, sale)
		}
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
	return sales, nil
}

func (r *saleRepository) GetContribution(ctx context.Context, saleID int64, account domain.Account) (int64, error) {
	return r.st.contributions[saleAccountKey{saleID, account}], nil
}

func (r *saleRepository) SetContribution(ctx context.Context, saleID int64, account domain.Account, tokens int64) error {
	r.st.contributions[saleAccountKey{saleID, account}] = tokens
	return nil
}
