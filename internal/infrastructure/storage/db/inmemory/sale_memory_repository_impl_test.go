package inmemory

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

func TestGetOrCreateSale(t *testing.T) {
	repo := NewSaleRepositoryImpl()
	ctx := context.Background()

	_, err := repo.GetSale(ctx)
	require.EqualError(t, err, ErrSaleNotFound.Error())

	seed := newTestSale()
	sale, err := repo.GetOrCreateSale(ctx, seed)
	require.NoError(t, err)
	require.Equal(t, seed.NftAddress, sale.NftAddress)

	// seeding again returns the existing record untouched
	other := newTestSale()
	sale, err = repo.GetOrCreateSale(ctx, other)
	require.NoError(t, err)
	require.Equal(t, seed.NftAddress, sale.NftAddress)
}

func TestUpdateSale(t *testing.T) {
	repo := NewSaleRepositoryImpl()
	ctx := context.Background()

	_, err := repo.GetOrCreateSale(ctx, newTestSale())
	require.NoError(t, err)

	err = repo.UpdateSale(ctx, func(s *domain.Sale) (*domain.Sale, error) {
		s.Initialized = true
		return s, nil
	})
	require.NoError(t, err)

	sale, err := repo.GetSale(ctx)
	require.NoError(t, err)
	require.True(t, sale.Initialized)
}

func TestUpdateSaleRollsBackOnError(t *testing.T) {
	repo := NewSaleRepositoryImpl()
	ctx := context.Background()

	_, err := repo.GetOrCreateSale(ctx, newTestSale())
	require.NoError(t, err)

	expectedErr := errors.New("rejected")
	err = repo.UpdateSale(ctx, func(s *domain.Sale) (*domain.Sale, error) {
		s.Completed = true
		return nil, expectedErr
	})
	require.EqualError(t, err, expectedErr.Error())

	sale, err := repo.GetSale(ctx)
	require.NoError(t, err)
	require.False(t, sale.Completed)
}

func newTestSale() *domain.Sale {
	return domain.NewSale(domain.SaleConfig{
		CreatedAt:             1660000000,
		MarketplaceAddress:    randomAddress(),
		NftAddress:            randomAddress(),
		FullPrice:             1000,
		MarketplaceFeeAddress: randomAddress(),
		MarketplaceFee:        100,
		RoyaltyAddress:        randomAddress(),
		RoyaltyAmount:         50,
		PublicKey:             make([]byte, 32),
	})
}

func randomAddress() tonaddr.Address {
	var addr tonaddr.Address
	rand.Read(addr.Hash[:])
	return addr
}
