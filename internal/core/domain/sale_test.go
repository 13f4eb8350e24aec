package domain_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

const (
	nano = uint64(1_000_000_000)

	fullPrice      = 1 * nano
	marketplaceFee = 2 * nano / 10
	royaltyAmount  = 3 * nano / 10

	jettonFullPrice = 10 * nano
	jettonFee       = 1 * nano
	jettonRoyalty   = 1 * nano
)

var (
	marketplaceAddr = randomAddress()
	nftAddr         = randomAddress()
	feeAddr         = randomAddress()
	royaltyAddr     = randomAddress()
	sellerAddr      = randomAddress()
	buyerAddr       = randomAddress()
	jettonWallet    = randomAddress()
)

func TestSaleInitialize(t *testing.T) {
	sale, key := newSaleUninitialized()
	signature := signDeploy(sale, key)
	jettonPrices := newJettonPrices()

	err := sale.Initialize(signature, jettonPrices)
	require.NoError(t, err)
	require.True(t, sale.Initialized)
	require.False(t, sale.Completed)
	require.Nil(t, sale.NftOwnerAddress)
	require.Equal(t, jettonPrices, sale.JettonPrices)
	require.True(t, sale.IsAwaitingAsset())

	err = sale.Initialize(signature, nil)
	require.EqualError(t, err, domain.ErrSaleAlreadyInitialized.Error())
}

func TestFailingSaleInitialize(t *testing.T) {
	t.Run("bad_signature", func(t *testing.T) {
		sale, _ := newSaleUninitialized()
		otherKey := newSigningKey()

		err := sale.Initialize(signDeploy(sale, otherKey), newJettonPrices())
		require.EqualError(t, err, domain.ErrBadSignature.Error())
		require.Equal(t, 902, domain.ExitCode(err))
		require.False(t, sale.Initialized)
		require.Nil(t, sale.JettonPrices)
	})

	t.Run("invalid_jetton_terms", func(t *testing.T) {
		sale, key := newSaleUninitialized()
		badPrices := map[tonaddr.Address]domain.JettonPrice{
			jettonWallet: {FullPrice: 10, MarketplaceFee: 6, RoyaltyAmount: 5},
		}

		err := sale.Initialize(signDeploy(sale, key), badPrices)
		require.EqualError(t, err, domain.ErrInvalidPriceTerms.Error())
		require.False(t, sale.Initialized)
	})
}

func TestAssignNftOwner(t *testing.T) {
	sale := newSaleAwaitingAsset(t)

	assigned := sale.AssignNftOwner(sellerAddr)
	require.True(t, assigned)
	require.True(t, sale.IsActive())
	require.Equal(t, sellerAddr, *sale.NftOwnerAddress)

	// repeated notifications after the first are no-ops
	other := randomAddress()
	assigned = sale.AssignNftOwner(other)
	require.False(t, assigned)
	require.Equal(t, sellerAddr, *sale.NftOwnerAddress)
}

func TestAssignNftOwnerBeforeInitialize(t *testing.T) {
	sale, _ := newSaleUninitialized()

	assigned := sale.AssignNftOwner(sellerAddr)
	require.False(t, assigned)
	require.Nil(t, sale.NftOwnerAddress)
}

func TestSettleNative(t *testing.T) {
	sale := newSaleActive(t)
	value := fullPrice + fullPrice/2 // buyer sends 1.5

	intents, err := sale.SettleNative(buyerAddr, value)
	require.NoError(t, err)
	require.True(t, sale.IsCompleted())

	require.Equal(t, marketplaceFee, amountTo(intents, feeAddr))
	require.Equal(t, royaltyAmount, amountTo(intents, royaltyAddr))
	require.Equal(t, fullPrice-marketplaceFee-royaltyAmount, amountTo(intents, sellerAddr))
	require.Equal(t, value-fullPrice, amountTo(intents, buyerAddr))
	require.Equal(t, value, totalAmount(intents))
	requireNftGoesTo(t, intents, buyerAddr)
}

func TestSettleNativeExactPrice(t *testing.T) {
	sale := newSaleActive(t)

	intents, err := sale.SettleNative(buyerAddr, fullPrice)
	require.NoError(t, err)
	require.Equal(t, uint64(0), amountTo(intents, buyerAddr))
	require.Equal(t, fullPrice, totalAmount(intents))
	requireNftGoesTo(t, intents, buyerAddr)
}

func TestFailingSettleNative(t *testing.T) {
	tests := []struct {
		name          string
		sale          *domain.Sale
		value         uint64
		expectedError error
		exitCode      int
	}{
		{
			name:          "not_initialized",
			sale:          newSaleNotInitialized(),
			value:         fullPrice,
			expectedError: domain.ErrSaleNotInitialized,
			exitCode:      500,
		},
		{
			name:          "awaiting_asset",
			sale:          newSaleAwaitingAsset(t),
			value:         fullPrice,
			expectedError: domain.ErrSaleNotReady,
			exitCode:      500,
		},
		{
			name:          "already_completed",
			sale:          newSaleCompleted(t),
			value:         fullPrice,
			expectedError: domain.ErrSaleCompleted,
			exitCode:      404,
		},
		{
			name:          "zero_price",
			sale:          newSaleActiveZeroPrice(t),
			value:         100 * nano,
			expectedError: domain.ErrZeroPrice,
			exitCode:      451,
		},
		{
			name:          "insufficient_value",
			sale:          newSaleActive(t),
			value:         fullPrice - 1,
			expectedError: domain.ErrInsufficientValue,
			exitCode:      450,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			wasCompleted := tt.sale.Completed

			intents, err := tt.sale.SettleNative(buyerAddr, tt.value)
			require.EqualError(t, err, tt.expectedError.Error())
			require.Equal(t, tt.exitCode, domain.ExitCode(err))
			require.Nil(t, intents)
			require.Equal(t, wasCompleted, tt.sale.Completed)
		})
	}
}

func TestSettleJettons(t *testing.T) {
	sale := newSaleActive(t)
	sender := randomAddress()
	amount := jettonFullPrice + 2*nano // forwards 12

	intents, settled := sale.SettleJettons(jettonWallet, amount, sender)
	require.True(t, settled)
	require.True(t, sale.IsCompleted())

	require.Equal(t, jettonFee, amountTo(intents, feeAddr))
	require.Equal(t, jettonRoyalty, amountTo(intents, royaltyAddr))
	require.Equal(t, jettonFullPrice-jettonFee-jettonRoyalty, amountTo(intents, sellerAddr))
	require.Equal(t, amount-jettonFullPrice, amountTo(intents, sender))
	require.Equal(t, amount, totalAmount(intents))
	requireNftGoesTo(t, intents, sender)

	for _, intent := range intents {
		if intent.Kind == domain.TransferJettons {
			require.Equal(t, jettonWallet, intent.SourceWallet)
		}
	}
}

func TestSettleJettonsReturned(t *testing.T) {
	tests := []struct {
		name         string
		sale         *domain.Sale
		sourceWallet tonaddr.Address
		amount       uint64
	}{
		{
			name:         "unknown_wallet",
			sale:         newSaleActive(t),
			sourceWallet: randomAddress(),
			amount:       jettonFullPrice,
		},
		{
			name:         "below_price",
			sale:         newSaleActive(t),
			sourceWallet: jettonWallet,
			amount:       jettonFullPrice - nano, // forwards 9 of 10
		},
		{
			name:         "awaiting_asset",
			sale:         newSaleAwaitingAsset(t),
			sourceWallet: jettonWallet,
			amount:       jettonFullPrice,
		},
		{
			name:         "already_completed",
			sale:         newSaleCompleted(t),
			sourceWallet: jettonWallet,
			amount:       jettonFullPrice,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			sender := randomAddress()
			wasCompleted := tt.sale.Completed

			intents, settled := tt.sale.SettleJettons(tt.sourceWallet, tt.amount, sender)
			require.False(t, settled)
			require.Equal(t, wasCompleted, tt.sale.Completed)

			// the whole forwarded amount goes back to the sender unconsumed
			require.Len(t, intents, 1)
			require.Equal(t, domain.TransferJettons, intents[0].Kind)
			require.Equal(t, sender, intents[0].To)
			require.Equal(t, tt.amount, intents[0].Amount)
			require.Equal(t, tt.sourceWallet, intents[0].SourceWallet)
		})
	}
}

func TestCancel(t *testing.T) {
	sale := newSaleActive(t)

	intents, err := sale.Cancel(sellerAddr)
	require.NoError(t, err)
	require.True(t, sale.IsCompleted())

	// the nft goes back to the seller, no payment is moved
	require.Len(t, intents, 1)
	require.Equal(t, domain.TransferNft, intents[0].Kind)
	require.Equal(t, sellerAddr, intents[0].To)
}

func TestFailingCancel(t *testing.T) {
	sale := newSaleActive(t)

	intents, err := sale.Cancel(buyerAddr)
	require.EqualError(t, err, domain.ErrNotOwner.Error())
	require.Equal(t, 403, domain.ExitCode(err))
	require.Nil(t, intents)
	require.False(t, sale.IsCompleted())
}

func TestCancelNoop(t *testing.T) {
	tests := []struct {
		name string
		sale *domain.Sale
	}{
		{
			name: "not_initialized",
			sale: newSaleNotInitialized(),
		},
		{
			name: "awaiting_asset",
			sale: newSaleAwaitingAsset(t),
		},
		{
			name: "already_completed",
			sale: newSaleCompleted(t),
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			wasCompleted := tt.sale.Completed

			intents, err := tt.sale.Cancel(sellerAddr)
			require.NoError(t, err)
			require.Nil(t, intents)
			require.Equal(t, wasCompleted, tt.sale.Completed)
		})
	}
}

func TestChangePrice(t *testing.T) {
	sale := newSaleActive(t)
	newPrice := 2 * nano
	newWallet := randomAddress()
	newPrices := map[tonaddr.Address]domain.JettonPrice{
		newWallet: {FullPrice: 20 * nano, MarketplaceFee: 2 * nano, RoyaltyAmount: 2 * nano},
	}

	err := sale.ChangePrice(sellerAddr, &newPrice, nil)
	require.NoError(t, err)
	require.Equal(t, newPrice, sale.FullPrice)
	require.Contains(t, sale.JettonPrices, jettonWallet)

	err = sale.ChangePrice(sellerAddr, nil, newPrices)
	require.NoError(t, err)
	require.Equal(t, newPrice, sale.FullPrice)
	require.Equal(t, newPrices, sale.JettonPrices)
	require.NotContains(t, sale.JettonPrices, jettonWallet)
}

func TestFailingChangePrice(t *testing.T) {
	newPrice := 2 * nano

	tests := []struct {
		name          string
		sale          *domain.Sale
		requester     tonaddr.Address
		newPrice      *uint64
		expectedError error
	}{
		{
			name:          "not_initialized",
			sale:          newSaleNotInitialized(),
			requester:     sellerAddr,
			newPrice:      &newPrice,
			expectedError: domain.ErrSaleNotInitialized,
		},
		{
			name:          "awaiting_asset",
			sale:          newSaleAwaitingAsset(t),
			requester:     sellerAddr,
			newPrice:      &newPrice,
			expectedError: domain.ErrSaleNotReady,
		},
		{
			name:          "already_completed",
			sale:          newSaleCompleted(t),
			requester:     sellerAddr,
			newPrice:      &newPrice,
			expectedError: domain.ErrSaleCompleted,
		},
		{
			name:          "not_owner",
			sale:          newSaleActive(t),
			requester:     buyerAddr,
			newPrice:      &newPrice,
			expectedError: domain.ErrNotOwner,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			oldPrice := tt.sale.FullPrice

			err := tt.sale.ChangePrice(tt.requester, tt.newPrice, nil)
			require.EqualError(t, err, tt.expectedError.Error())
			require.Equal(t, oldPrice, tt.sale.FullPrice)
		})
	}
}

func TestChangePriceInvalidTerms(t *testing.T) {
	sale := newSaleActive(t)
	// price below the fixed fee + royalty terms
	newPrice := marketplaceFee + royaltyAmount - 1

	err := sale.ChangePrice(sellerAddr, &newPrice, nil)
	require.EqualError(t, err, domain.ErrInvalidPriceTerms.Error())
	require.Equal(t, fullPrice, sale.FullPrice)

	badPrices := map[tonaddr.Address]domain.JettonPrice{
		randomAddress(): {FullPrice: 0, MarketplaceFee: 0, RoyaltyAmount: 0},
	}
	err = sale.ChangePrice(sellerAddr, nil, badPrices)
	require.EqualError(t, err, domain.ErrInvalidPriceTerms.Error())
	require.Contains(t, sale.JettonPrices, jettonWallet)
}

func TestSettleAfterCancelIsRejected(t *testing.T) {
	sale := newSaleActive(t)

	_, err := sale.Cancel(sellerAddr)
	require.NoError(t, err)

	_, err = sale.SettleNative(buyerAddr, fullPrice)
	require.EqualError(t, err, domain.ErrSaleCompleted.Error())

	intents, settled := sale.SettleJettons(jettonWallet, jettonFullPrice, buyerAddr)
	require.False(t, settled)
	require.Len(t, intents, 1)
	require.Equal(t, jettonFullPrice, intents[0].Amount)
}

func newSigningKey() ed25519.PrivateKey {
	_, key, _ := ed25519.GenerateKey(rand.Reader)
	return key
}

func newSaleConfig(pubkey ed25519.PublicKey) domain.SaleConfig {
	return domain.SaleConfig{
		CreatedAt:             time.Now().Unix(),
		MarketplaceAddress:    marketplaceAddr,
		NftAddress:            nftAddr,
		FullPrice:             fullPrice,
		MarketplaceFeeAddress: feeAddr,
		MarketplaceFee:        marketplaceFee,
		RoyaltyAddress:        royaltyAddr,
		RoyaltyAmount:         royaltyAmount,
		PublicKey:             pubkey,
	}
}

func newJettonPrices() map[tonaddr.Address]domain.JettonPrice {
	return map[tonaddr.Address]domain.JettonPrice{
		jettonWallet: {
			FullPrice:      jettonFullPrice,
			MarketplaceFee: jettonFee,
			RoyaltyAmount:  jettonRoyalty,
		},
	}
}

func newSaleUninitialized() (*domain.Sale, ed25519.PrivateKey) {
	key := newSigningKey()
	return domain.NewSale(newSaleConfig(key.Public().(ed25519.PublicKey))), key
}

func newSaleNotInitialized() *domain.Sale {
	sale, _ := newSaleUninitialized()
	return sale
}

func newSaleAwaitingAsset(t *testing.T) *domain.Sale {
	sale, key := newSaleUninitialized()
	require.NoError(t, sale.Initialize(signDeploy(sale, key), newJettonPrices()))
	return sale
}

func newSaleActive(t *testing.T) *domain.Sale {
	sale := newSaleAwaitingAsset(t)
	require.True(t, sale.AssignNftOwner(sellerAddr))
	return sale
}

func newSaleActiveZeroPrice(t *testing.T) *domain.Sale {
	key := newSigningKey()
	config := newSaleConfig(key.Public().(ed25519.PublicKey))
	config.FullPrice = 0
	sale := domain.NewSale(config)
	require.NoError(t, sale.Initialize(
		ed25519.Sign(key, config.Digest()), newJettonPrices(),
	))
	require.True(t, sale.AssignNftOwner(sellerAddr))
	return sale
}

func newSaleCompleted(t *testing.T) *domain.Sale {
	sale := newSaleActive(t)
	_, err := sale.SettleNative(buyerAddr, fullPrice)
	require.NoError(t, err)
	return sale
}

func signDeploy(sale *domain.Sale, key ed25519.PrivateKey) []byte {
	config := domain.SaleConfig{
		CreatedAt:             sale.CreatedAt,
		MarketplaceAddress:    sale.MarketplaceAddress,
		NftAddress:            sale.NftAddress,
		FullPrice:             sale.FullPrice,
		MarketplaceFeeAddress: sale.MarketplaceFeeAddress,
		MarketplaceFee:        sale.MarketplaceFee,
		RoyaltyAddress:        sale.RoyaltyAddress,
		RoyaltyAmount:         sale.RoyaltyAmount,
		PublicKey:             sale.PublicKey,
	}
	return ed25519.Sign(key, config.Digest())
}

func randomAddress() tonaddr.Address {
	buf := make([]byte, 32)
	rand.Read(buf)
	return tonaddr.MustParse(fmt.Sprintf("0:%s", hex.EncodeToString(buf)))
}

func amountTo(intents []domain.TransferIntent, to tonaddr.Address) uint64 {
	total := uint64(0)
	for _, intent := range intents {
		if intent.Kind != domain.TransferNft && intent.To == to {
			total += intent.Amount
		}
	}
	return total
}

func totalAmount(intents []domain.TransferIntent) uint64 {
	total := uint64(0)
	for _, intent := range intents {
		total += intent.Amount
	}
	return total
}

func requireNftGoesTo(t *testing.T, intents []domain.TransferIntent, to tonaddr.Address) {
	for _, intent := range intents {
		if intent.Kind == domain.TransferNft {
			require.Equal(t, to, intent.To)
			return
		}
	}
	t.Fatal("no nft transfer intent found")
}
