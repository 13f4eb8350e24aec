package application

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/internal/core/ports"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

// SaleService is the settlement engine entry point. Every method applies
// one inbound contract message to the sale record: it either performs a
// full transition (record update plus outbound transfers) or leaves the
// record untouched and reports why.
type SaleService interface {
	// InitSale applies the deploy message.
	InitSale(
		ctx context.Context,
		signature []byte,
		jettonPrices map[tonaddr.Address]JettonPriceData,
	) error
	// UpdatePrices applies a price-change message from the seller. Nil
	// fields are left unchanged.
	UpdatePrices(
		ctx context.Context,
		requester tonaddr.Address,
		newFullPrice *uint64,
		jettonPrices map[tonaddr.Address]JettonPriceData,
	) error
	// RegisterNftTransfer applies an ownership-assigned notification.
	// Notifications not sourced from the guarded nft contract carry no
	// custody semantics and are dropped; the returned bool reports whether
	// the seller was recorded.
	RegisterNftTransfer(
		ctx context.Context, sender, prevOwner tonaddr.Address,
	) (bool, error)
	// BuyWithNative applies a buy message with attached native value.
	BuyWithNative(
		ctx context.Context, queryID uint64, buyer tonaddr.Address, value uint64,
	) error
	// RegisterJettonTransfer applies a jetton transfer notification from
	// one of the sale's jetton wallets. Payments that cannot be applied are
	// returned to the sender in full; the bool reports whether the sale
	// settled.
	RegisterJettonTransfer(
		ctx context.Context,
		queryID uint64,
		sourceWallet tonaddr.Address,
		amount uint64,
		sender tonaddr.Address,
	) (bool, error)
	// CancelSale applies a cancel message.
	CancelSale(ctx context.Context, queryID uint64, requester tonaddr.Address) error
	// GetSaleData returns the full sale record snapshot. It never mutates
	// and succeeds in any state.
	GetSaleData(ctx context.Context) (*SaleData, error)
	// IsInitialized reports whether the deploy message has been processed.
	IsInitialized(ctx context.Context) (bool, error)
}

type saleService struct {
	saleRepository domain.SaleRepository
	transferSender ports.TransferSender
}

// NewSaleService returns a SaleService backed by the given repository and
// transfer sender.
func NewSaleService(
	saleRepository domain.SaleRepository,
	transferSender ports.TransferSender,
) SaleService {
	return &saleService{
		saleRepository: saleRepository,
		transferSender: transferSender,
	}
}

func (s *saleService) InitSale(
	ctx context.Context,
	signature []byte,
	jettonPrices map[tonaddr.Address]JettonPriceData,
) error {
	return s.saleRepository.UpdateSale(
		ctx,
		func(sale *domain.Sale) (*domain.Sale, error) {
			if err := sale.Initialize(
				signature, jettonPricesToDomain(jettonPrices),
			); err != nil {
				return nil, err
			}
			return sale, nil
		},
	)
}

func (s *saleService) UpdatePrices(
	ctx context.Context,
	requester tonaddr.Address,
	newFullPrice *uint64,
	jettonPrices map[tonaddr.Address]JettonPriceData,
) error {
	return s.saleRepository.UpdateSale(
		ctx,
		func(sale *domain.Sale) (*domain.Sale, error) {
			if err := sale.ChangePrice(
				requester, newFullPrice, jettonPricesToDomain(jettonPrices),
			); err != nil {
				return nil, err
			}
			return sale, nil
		},
	)
}

func (s *saleService) RegisterNftTransfer(
	ctx context.Context, sender, prevOwner tonaddr.Address,
) (bool, error) {
	var assigned bool
	if err := s.saleRepository.UpdateSale(
		ctx,
		func(sale *domain.Sale) (*domain.Sale, error) {
			if sender != sale.NftAddress {
				// not a custody event for the guarded nft
				return sale, nil
			}
			assigned = sale.AssignNftOwner(prevOwner)
			return sale, nil
		},
	); err != nil {
		return false, err
	}
	return assigned, nil
}

func (s *saleService) BuyWithNative(
	ctx context.Context, queryID uint64, buyer tonaddr.Address, value uint64,
) error {
	var intents []domain.TransferIntent
	if err := s.saleRepository.UpdateSale(
		ctx,
		func(sale *domain.Sale) (*domain.Sale, error) {
			var err error
			intents, err = sale.SettleNative(buyer, value)
			if err != nil {
				return nil, err
			}
			return sale, nil
		},
	); err != nil {
		return err
	}

	s.submitTransfers(ctx, queryID, intents)
	return nil
}

func (s *saleService) RegisterJettonTransfer(
	ctx context.Context,
	queryID uint64,
	sourceWallet tonaddr.Address,
	amount uint64,
	sender tonaddr.Address,
) (bool, error) {
	var (
		intents []domain.TransferIntent
		settled bool
	)
	if err := s.saleRepository.UpdateSale(
		ctx,
		func(sale *domain.Sale) (*domain.Sale, error) {
			intents, settled = sale.SettleJettons(sourceWallet, amount, sender)
			return sale, nil
		},
	); err != nil {
		return false, err
	}

	s.submitTransfers(ctx, queryID, intents)
	return settled, nil
}

func (s *saleService) CancelSale(
	ctx context.Context, queryID uint64, requester tonaddr.Address,
) error {
	var intents []domain.TransferIntent
	if err := s.saleRepository.UpdateSale(
		ctx,
		func(sale *domain.Sale) (*domain.Sale, error) {
			var err error
			intents, err = sale.Cancel(requester)
			if err != nil {
				return nil, err
			}
			return sale, nil
		},
	); err != nil {
		return err
	}

	s.submitTransfers(ctx, queryID, intents)
	return nil
}

func (s *saleService) GetSaleData(ctx context.Context) (*SaleData, error) {
	sale, err := s.saleRepository.GetSale(ctx)
	if err != nil {
		return nil, err
	}
	return saleDataFromDomain(sale), nil
}

func (s *saleService) IsInitialized(ctx context.Context) (bool, error) {
	sale, err := s.saleRepository.GetSale(ctx)
	if err != nil {
		return false, err
	}
	return sale.Initialized, nil
}

// submitTransfers hands the outbound instructions to the gateway. The
// record update is already committed at this point; the gateway dedupes
// retried submissions by their idempotency ids, so a failure here is
// logged and left to the sender's retry policy.
func (s *saleService) submitTransfers(
	ctx context.Context, queryID uint64, intents []domain.TransferIntent,
) {
	if len(intents) == 0 {
		return
	}
	if err := s.transferSender.SendTransfers(ctx, queryID, intents); err != nil {
		log.WithError(err).Warnf(
			"failed to submit %d outbound transfer(s) for query %d",
			len(intents), queryID,
		)
	}
}
