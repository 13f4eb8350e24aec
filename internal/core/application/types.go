package application

import (
	"encoding/hex"

	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

// JettonPriceData is the wire form of one jetton price table entry.
type JettonPriceData struct {
	FullPrice      uint64 `json:"full_price"`
	MarketplaceFee uint64 `json:"marketplace_fee"`
	RoyaltyAmount  uint64 `json:"royalty_amount"`
}

// SaleData is the full sale record snapshot served by the query interface.
// Field layout mirrors the on-chain get_sale_data method.
type SaleData struct {
	SaleType              uint32                              `json:"sale_type"`
	IsComplete            bool                                `json:"is_complete"`
	CreatedAt             int64                               `json:"created_at"`
	MarketplaceAddress    tonaddr.Address                     `json:"marketplace_address"`
	NftAddress            tonaddr.Address                     `json:"nft_address"`
	NftOwnerAddress       *tonaddr.Address                    `json:"nft_owner_address,omitempty"`
	FullPrice             uint64                              `json:"full_price"`
	JettonPrices          map[tonaddr.Address]JettonPriceData `json:"jetton_prices,omitempty"`
	MarketplaceFeeAddress tonaddr.Address                     `json:"marketplace_fee_address"`
	MarketplaceFee        uint64                              `json:"marketplace_fee"`
	RoyaltyAddress        tonaddr.Address                     `json:"royalty_address"`
	RoyaltyAmount         uint64                              `json:"royalty_amount"`
	PublicKey             string                              `json:"public_key"`
}

func saleDataFromDomain(sale *domain.Sale) *SaleData {
	var jettonPrices map[tonaddr.Address]JettonPriceData
	if len(sale.JettonPrices) > 0 {
		jettonPrices = make(map[tonaddr.Address]JettonPriceData, len(sale.JettonPrices))
		for wallet, entry := range sale.JettonPrices {
			jettonPrices[wallet] = JettonPriceData{
				FullPrice:      entry.FullPrice,
				MarketplaceFee: entry.MarketplaceFee,
				RoyaltyAmount:  entry.RoyaltyAmount,
			}
		}
	}

	return &SaleData{
		SaleType:              domain.SaleType,
		IsComplete:            sale.Completed,
		CreatedAt:             sale.CreatedAt,
		MarketplaceAddress:    sale.MarketplaceAddress,
		NftAddress:            sale.NftAddress,
		NftOwnerAddress:       sale.NftOwnerAddress,
		FullPrice:             sale.FullPrice,
		JettonPrices:          jettonPrices,
		MarketplaceFeeAddress: sale.MarketplaceFeeAddress,
		MarketplaceFee:        sale.MarketplaceFee,
		RoyaltyAddress:        sale.RoyaltyAddress,
		RoyaltyAmount:         sale.RoyaltyAmount,
		PublicKey:             hex.EncodeToString(sale.PublicKey),
	}
}

func jettonPricesToDomain(
	prices map[tonaddr.Address]JettonPriceData,
) map[tonaddr.Address]domain.JettonPrice {
	if prices == nil {
		return nil
	}
	converted := make(map[tonaddr.Address]domain.JettonPrice, len(prices))
	for wallet, entry := range prices {
		converted[wallet] = domain.JettonPrice{
			FullPrice:      entry.FullPrice,
			MarketplaceFee: entry.MarketplaceFee,
			RoyaltyAmount:  entry.RoyaltyAmount,
		}
	}
	return converted
}
