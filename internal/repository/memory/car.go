package memory

import (
	"context"
	"sort"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/repository"
)

type carRepository struct {
	st *state
}

func (r *carRepository) Get(ctx context.Context, saleID int64) (*domain.Car, error) {
	car, ok := r.st.cars[saleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &car, nil
}

func (r *carRepository) Create(ctx context.Context, car *domain.Car) error {
	r.st.carSeq++
	car.Seq = r.st.carSeq
	r.st.cars[car.SaleID] = *car
	return nil
}

func (r *carRepository) Update(ctx context.Context, car *domain.Car) error {
	if _, ok := r.st.cars[car.SaleID]; !ok {
		return repository.ErrNotFound
	}
	r.st.cars[car.SaleID] = *car
	return nil
}

func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	cars := make([]domain.Car, 0, len(r.st.cars))
	for _, car := range r.st.cars {
		cars = append(cars, car)
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].Seq < cars[j].Seq })
	return cars, nil
}
