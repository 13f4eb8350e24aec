package domain

import "context"

// SaleRepository is the abstraction for any kind of database intended to
// persist the one sale record this daemon guards.
type SaleRepository interface {
	// GetOrCreateSale returns the stored sale record, or persists and
	// returns the given seed if none exists yet.
	GetOrCreateSale(ctx context.Context, seed *Sale) (*Sale, error)
	// GetSale returns the stored sale record.
	GetSale(ctx context.Context) (*Sale, error)
	// UpdateSale allows to commit multiple changes to the sale record in a
	// transactional way. If updateFn returns an error nothing is persisted.
	UpdateSale(
		ctx context.Context,
		updateFn func(s *Sale) (*Sale, error),
	) error
}
