package domain

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

// JettonPrice is the registered terms of one accepted jetton denomination,
// keyed in the price table by the sale's wallet address for that jetton.
type JettonPrice struct {
	FullPrice      uint64
	MarketplaceFee uint64
	RoyaltyAmount  uint64
}

// SaleConfig holds the deploy-time parameters of a sale. They are fixed at
// record creation and covered by the deploy signature; only the prices may
// change later, through an owner-authorized update.
type SaleConfig struct {
	CreatedAt             int64
	MarketplaceAddress    tonaddr.Address
	NftAddress            tonaddr.Address
	FullPrice             uint64
	MarketplaceFeeAddress tonaddr.Address
	MarketplaceFee        uint64
	RoyaltyAddress        tonaddr.Address
	RoyaltyAmount         uint64
	PublicKey             []byte
}

// Digest returns the canonical SHA-256 digest of the deploy parameters, the
// message the deploy signature must cover.
func (c SaleConfig) Digest() []byte {
	h := sha256.New()
	writeUint(h, uint64(c.CreatedAt))
	h.Write([]byte(c.MarketplaceAddress.String()))
	h.Write([]byte(c.NftAddress.String()))
	writeUint(h, c.FullPrice)
	h.Write([]byte(c.MarketplaceFeeAddress.String()))
	writeUint(h, c.MarketplaceFee)
	h.Write([]byte(c.RoyaltyAddress.String()))
	writeUint(h, c.RoyaltyAmount)
	h.Write(c.PublicKey)
	return h.Sum(nil)
}

func writeUint(w io.Writer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

// Sale is the single record owning all state of one fixed-price nft sale.
// It is created zeroed-but-configured at deploy, activated by the verified
// deploy message and the nft ownership transfer, and terminal once Completed.
type Sale struct {
	Initialized           bool
	Completed             bool
	CreatedAt             int64
	MarketplaceAddress    tonaddr.Address
	NftAddress            tonaddr.Address
	NftOwnerAddress       *tonaddr.Address
	FullPrice             uint64
	JettonPrices          map[tonaddr.Address]JettonPrice
	MarketplaceFeeAddress tonaddr.Address
	MarketplaceFee        uint64
	RoyaltyAddress        tonaddr.Address
	RoyaltyAmount         uint64
	PublicKey             []byte
}

// NewSale returns the not-yet-initialized sale record for the given deploy
// parameters.
func NewSale(config SaleConfig) *Sale {
	return &Sale{
		CreatedAt:             config.CreatedAt,
		MarketplaceAddress:    config.MarketplaceAddress,
		NftAddress:            config.NftAddress,
		FullPrice:             config.FullPrice,
		MarketplaceFeeAddress: config.MarketplaceFeeAddress,
		MarketplaceFee:        config.MarketplaceFee,
		RoyaltyAddress:        config.RoyaltyAddress,
		RoyaltyAmount:         config.RoyaltyAmount,
		PublicKey:             config.PublicKey,
	}
}

// IsAwaitingAsset returns whether the sale is initialized but has not yet
// received the nft.
func (s *Sale) IsAwaitingAsset() bool {
	return s.Initialized && !s.Completed && s.NftOwnerAddress == nil
}

// IsActive returns whether the sale can settle: initialized, nft in custody
// and not completed.
func (s *Sale) IsActive() bool {
	return s.Initialized && !s.Completed && s.NftOwnerAddress != nil
}

// IsCompleted returns whether the sale reached its terminal state.
func (s *Sale) IsCompleted() bool {
	return s.Completed
}

// config rebuilds the signed deploy parameters from the record.
func (s *Sale) config() SaleConfig {
	return SaleConfig{
		CreatedAt:             s.CreatedAt,
		MarketplaceAddress:    s.MarketplaceAddress,
		NftAddress:            s.NftAddress,
		FullPrice:             s.FullPrice,
		MarketplaceFeeAddress: s.MarketplaceFeeAddress,
		MarketplaceFee:        s.MarketplaceFee,
		RoyaltyAddress:        s.RoyaltyAddress,
		RoyaltyAmount:         s.RoyaltyAmount,
		PublicKey:             s.PublicKey,
	}
}

// Initialize verifies the deploy signature over the canonical digest of the
// deploy parameters and, on success, installs the optional initial jetton
// price table and activates the record. Nothing is mutated on failure.
func (s *Sale) Initialize(
	signature []byte, jettonPrices map[tonaddr.Address]JettonPrice,
) error {
	if s.Initialized {
		return ErrSaleAlreadyInitialized
	}

	if len(s.PublicKey) != ed25519.PublicKeySize ||
		!ed25519.Verify(s.PublicKey, s.config().Digest(), signature) {
		return ErrBadSignature
	}

	if s.FullPrice > 0 &&
		!validPriceTerms(s.FullPrice, s.MarketplaceFee, s.RoyaltyAmount) {
		return ErrInvalidPriceTerms
	}
	if err := validateJettonPrices(jettonPrices); err != nil {
		return err
	}

	s.JettonPrices = copyJettonPrices(jettonPrices)
	s.Initialized = true
	return nil
}

// AssignNftOwner records the previous holder of the nft as the seller and
// brings the sale from AwaitingAsset to Active. It is satisfied exactly
// once; any later notification is a no-op. Callers must have checked that
// the notification comes from the guarded nft contract.
func (s *Sale) AssignNftOwner(prevOwner tonaddr.Address) bool {
	if !s.IsAwaitingAsset() {
		return false
	}

	s.NftOwnerAddress = &prevOwner
	return true
}

// SettleNative settles the sale in native coins. On success the sale is
// Completed and the returned intents move the nft to the buyer and
// distribute fee, royalty, seller remainder and excess refund, summing up
// exactly to the attached value.
func (s *Sale) SettleNative(
	buyer tonaddr.Address, value uint64,
) ([]TransferIntent, error) {
	if !s.Initialized {
		return nil, ErrSaleNotInitialized
	}
	if s.Completed {
		return nil, ErrSaleCompleted
	}
	if s.NftOwnerAddress == nil {
		return nil, ErrSaleNotReady
	}
	if s.FullPrice == 0 {
		return nil, ErrZeroPrice
	}
	if value < s.FullPrice {
		return nil, ErrInsufficientValue
	}

	split := SplitPayment(value, s.FullPrice, s.MarketplaceFee, s.RoyaltyAmount)
	seller := *s.NftOwnerAddress

	intents := make([]TransferIntent, 0, 5)
	if split.Fee > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferNative, To: s.MarketplaceFeeAddress, Amount: split.Fee,
		})
	}
	if split.Royalty > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferNative, To: s.RoyaltyAddress, Amount: split.Royalty,
		})
	}
	if split.Remainder > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferNative, To: seller, Amount: split.Remainder,
		})
	}
	if split.Refund > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferNative, To: buyer, Amount: split.Refund,
		})
	}
	intents = append(intents, TransferIntent{Kind: TransferNft, To: buyer})

	s.Completed = true
	return intents, nil
}

// SettleJettons settles the sale in the denomination identified by the
// sale's jetton wallet the funds arrived on. Payments that cannot be applied
// are never an error: whenever the wallet is unknown, the sale is not
// active, or the forwarded amount is below the registered price, the whole
// amount is returned to the sender unconsumed and the record is untouched.
// The returned bool reports whether settlement happened.
func (s *Sale) SettleJettons(
	sourceWallet tonaddr.Address, amount uint64, sender tonaddr.Address,
) ([]TransferIntent, bool) {
	entry, known := s.JettonPrices[sourceWallet]
	if !known || !s.IsActive() || amount < entry.FullPrice {
		return []TransferIntent{{
			Kind:         TransferJettons,
			To:           sender,
			Amount:       amount,
			SourceWallet: sourceWallet,
		}}, false
	}

	split := SplitPayment(
		amount, entry.FullPrice, entry.MarketplaceFee, entry.RoyaltyAmount,
	)
	seller := *s.NftOwnerAddress

	intents := make([]TransferIntent, 0, 5)
	if split.Fee > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferJettons, To: s.MarketplaceFeeAddress,
			Amount: split.Fee, SourceWallet: sourceWallet,
		})
	}
	if split.Royalty > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferJettons, To: s.RoyaltyAddress,
			Amount: split.Royalty, SourceWallet: sourceWallet,
		})
	}
	if split.Remainder > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferJettons, To: seller,
			Amount: split.Remainder, SourceWallet: sourceWallet,
		})
	}
	if split.Refund > 0 {
		intents = append(intents, TransferIntent{
			Kind: TransferJettons, To: sender,
			Amount: split.Refund, SourceWallet: sourceWallet,
		})
	}
	intents = append(intents, TransferIntent{Kind: TransferNft, To: sender})

	s.Completed = true
	return intents, true
}

// Cancel returns the nft to the seller and completes the sale without
// moving any payment. Only the seller may cancel an active sale; in any
// other state cancelling is an idempotent no-op.
func (s *Sale) Cancel(requester tonaddr.Address) ([]TransferIntent, error) {
	if !s.IsActive() {
		return nil, nil
	}

	seller := *s.NftOwnerAddress
	if requester != seller {
		return nil, ErrNotOwner
	}

	s.Completed = true
	return []TransferIntent{{Kind: TransferNft, To: seller}}, nil
}

// ChangePrice overwrites the native price and/or the jetton price table.
// Omitted (nil) fields are left unchanged. Only the seller may update an
// active sale, and the new terms must keep fee plus royalty within the
// price; nothing is mutated on rejection.
func (s *Sale) ChangePrice(
	requester tonaddr.Address,
	newFullPrice *uint64,
	newJettonPrices map[tonaddr.Address]JettonPrice,
) error {
	if !s.Initialized {
		return ErrSaleNotInitialized
	}
	if s.Completed {
		return ErrSaleCompleted
	}
	if s.NftOwnerAddress == nil {
		return ErrSaleNotReady
	}
	if requester != *s.NftOwnerAddress {
		return ErrNotOwner
	}

	if newFullPrice != nil && *newFullPrice > 0 &&
		!validPriceTerms(*newFullPrice, s.MarketplaceFee, s.RoyaltyAmount) {
		return ErrInvalidPriceTerms
	}
	if newJettonPrices != nil {
		if err := validateJettonPrices(newJettonPrices); err != nil {
			return err
		}
	}

	if newFullPrice != nil {
		s.FullPrice = *newFullPrice
	}
	if newJettonPrices != nil {
		s.JettonPrices = copyJettonPrices(newJettonPrices)
	}
	return nil
}

func validateJettonPrices(prices map[tonaddr.Address]JettonPrice) error {
	for _, entry := range prices {
		if entry.FullPrice == 0 ||
			!validPriceTerms(entry.FullPrice, entry.MarketplaceFee, entry.RoyaltyAmount) {
			return ErrInvalidPriceTerms
		}
	}
	return nil
}

func copyJettonPrices(
	prices map[tonaddr.Address]JettonPrice,
) map[tonaddr.Address]JettonPrice {
	if prices == nil {
		return nil
	}
	copied := make(map[tonaddr.Address]JettonPrice, len(prices))
	for wallet, entry := range prices {
		copied[wallet] = entry
	}
	return copied
}
