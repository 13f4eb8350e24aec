package inmemory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
)

// ErrSaleNotFound is returned when reading before the record was seeded.
var ErrSaleNotFound = errors.New("sale record not found")

type saleRepositoryImpl struct {
	locker *sync.Mutex
	sale   *domain.Sale
}

// NewSaleRepositoryImpl returns a new inmemory SaleRepository
// implementation. Meant for tests and dry-run deployments.
func NewSaleRepositoryImpl() domain.SaleRepository {
	return &saleRepositoryImpl{locker: &sync.Mutex{}}
}

func (r *saleRepositoryImpl) GetOrCreateSale(
	_ context.Context, seed *domain.Sale,
) (*domain.Sale, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.sale == nil {
		r.sale = copySale(seed)
	}
	return copySale(r.sale), nil
}

func (r *saleRepositoryImpl) GetSale(_ context.Context) (*domain.Sale, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.sale == nil {
		return nil, ErrSaleNotFound
	}
	return copySale(r.sale), nil
}

func (r *saleRepositoryImpl) UpdateSale(
	_ context.Context,
	updateFn func(s *domain.Sale) (*domain.Sale, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.sale == nil {
		return ErrSaleNotFound
	}

	updatedSale, err := updateFn(copySale(r.sale))
	if err != nil {
		return err
	}

	r.sale = updatedSale
	return nil
}

// copySale deep-copies the record through its JSON form, the same encoding
// the persistent store uses.
func copySale(sale *domain.Sale) *domain.Sale {
	buf, _ := json.Marshal(sale)
	copied := &domain.Sale{}
	json.Unmarshal(buf, copied)
	return copied
}
