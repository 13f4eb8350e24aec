package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
)

// saleKey is the fixed key of the single record this daemon guards.
const saleKey = "sale"

type saleRepositoryImpl struct {
	db *DbManager
}

// NewSaleRepositoryImpl returns a badger-backed SaleRepository.
func NewSaleRepositoryImpl(db *DbManager) domain.SaleRepository {
	return saleRepositoryImpl{db: db}
}

func (r saleRepositoryImpl) GetOrCreateSale(
	_ context.Context, seed *domain.Sale,
) (*domain.Sale, error) {
	var sale domain.Sale
	err := r.db.Store.Get(saleKey, &sale)
	if err == nil {
		return &sale, nil
	}
	if !errors.Is(err, badgerhold.ErrNotFound) {
		return nil, err
	}

	if err := r.db.Store.Insert(saleKey, seed); err != nil {
		if !errors.Is(err, badgerhold.ErrKeyExists) {
			return nil, err
		}
		// lost a race with another opener, read what won
		if err := r.db.Store.Get(saleKey, &sale); err != nil {
			return nil, err
		}
		return &sale, nil
	}
	return seed, nil
}

func (r saleRepositoryImpl) GetSale(_ context.Context) (*domain.Sale, error) {
	var sale domain.Sale
	if err := r.db.Store.Get(saleKey, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r saleRepositoryImpl) UpdateSale(
	_ context.Context,
	updateFn func(s *domain.Sale) (*domain.Sale, error),
) error {
	var sale domain.Sale
	if err := r.db.Store.Get(saleKey, &sale); err != nil {
		return err
	}

	updatedSale, err := updateFn(&sale)
	if err != nil {
		return err
	}

	return r.db.Store.Update(saleKey, updatedSale)
}
