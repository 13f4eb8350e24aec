package application

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/internal/core/ports"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

// ChainListener defines the needed methods to start and stop the
// consumption of the sale contract's inbound message feed.
type ChainListener interface {
	ObserveChain()
	StopObserveChain()
}

type chainListener struct {
	saleService SaleService
	chainSource ports.ChainSource
}

// NewChainListener returns a ChainListener dispatching the given source's
// messages to the settlement engine.
func NewChainListener(
	saleService SaleService, chainSource ports.ChainSource,
) ChainListener {
	return &chainListener{
		saleService: saleService,
		chainSource: chainSource,
	}
}

func (l *chainListener) ObserveChain() {
	go l.chainSource.Start()
	go l.handleChainMessages()
}

func (l *chainListener) StopObserveChain() {
	l.chainSource.Stop()
}

// handleChainMessages consumes the feed on a single goroutine so that
// every message is processed to completion before the next one, matching
// the strictly serialized execution model of the on-chain contract.
func (l *chainListener) handleChainMessages() {
	for msg := range l.chainSource.GetMessageChannel() {
		l.handleMessage(msg)
	}
}

// setupBody is the payload shared by deploy and price-change messages; the
// two are told apart by whether the sale is already initialized.
type setupBody struct {
	Signature    []byte                              `json:"signature,omitempty"`
	NewFullPrice *uint64                             `json:"new_full_price,omitempty"`
	JettonPrices map[tonaddr.Address]JettonPriceData `json:"jetton_prices,omitempty"`
}

type ownershipAssignedBody struct {
	PrevOwner tonaddr.Address `json:"prev_owner"`
}

type transferNotificationBody struct {
	Amount uint64          `json:"amount"`
	Sender tonaddr.Address `json:"sender"`
}

func (l *chainListener) handleMessage(msg ports.InboundMessage) {
	ctx := context.Background()

	from, err := tonaddr.Parse(msg.From)
	if err != nil {
		log.WithError(err).Warnf("dropping message with malformed sender %q", msg.From)
		messagesTotal.WithLabelValues(opLabel(msg.Op), outcomeIgnored).Inc()
		return
	}

	switch msg.Op {
	case domain.OpDeploy:
		l.handleSetup(ctx, msg, from)
	case domain.OpOwnershipAssigned:
		l.handleOwnershipAssigned(ctx, msg, from)
	case domain.OpBuy:
		l.handleBuy(ctx, msg, from)
	case domain.OpTransferNotification:
		l.handleTransferNotification(ctx, msg, from)
	case domain.OpCancel:
		l.handleCancel(ctx, msg, from)
	default:
		log.Debugf("ignoring message with unknown op %#x from %s", msg.Op, from)
		messagesTotal.WithLabelValues(opLabel(msg.Op), outcomeIgnored).Inc()
	}
}

func (l *chainListener) handleSetup(
	ctx context.Context, msg ports.InboundMessage, from tonaddr.Address,
) {
	var body setupBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		l.rejectMalformed(msg, err)
		return
	}

	// safe to check-then-act: this goroutine is the only writer
	initialized, err := l.saleService.IsInitialized(ctx)
	if err != nil {
		log.WithError(err).Error("failed to read sale record")
		return
	}

	if !initialized {
		if err := l.saleService.InitSale(ctx, body.Signature, body.JettonPrices); err != nil {
			l.reject("deploy", msg, err)
			return
		}
		log.Infof("sale initialized, awaiting nft (query %d)", msg.QueryID)
		messagesTotal.WithLabelValues("deploy", outcomeApplied).Inc()
		return
	}

	if err := l.saleService.UpdatePrices(
		ctx, from, body.NewFullPrice, body.JettonPrices,
	); err != nil {
		l.reject("change_price", msg, err)
		return
	}
	log.Infof("prices updated by %s (query %d)", from, msg.QueryID)
	messagesTotal.WithLabelValues("change_price", outcomeApplied).Inc()
}

func (l *chainListener) handleOwnershipAssigned(
	ctx context.Context, msg ports.InboundMessage, from tonaddr.Address,
) {
	var body ownershipAssignedBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		l.rejectMalformed(msg, err)
		return
	}

	assigned, err := l.saleService.RegisterNftTransfer(ctx, from, body.PrevOwner)
	if err != nil {
		log.WithError(err).Error("failed to update sale record")
		return
	}
	if !assigned {
		log.Debugf("ignoring ownership notification from %s", from)
		messagesTotal.WithLabelValues("ownership_assigned", outcomeIgnored).Inc()
		return
	}
	log.Infof("nft received, sale is active, seller is %s", body.PrevOwner)
	messagesTotal.WithLabelValues("ownership_assigned", outcomeApplied).Inc()
}

func (l *chainListener) handleBuy(
	ctx context.Context, msg ports.InboundMessage, from tonaddr.Address,
) {
	if err := l.saleService.BuyWithNative(ctx, msg.QueryID, from, msg.Value); err != nil {
		l.reject("buy", msg, err)
		return
	}
	log.Infof("sale settled: nft sold to %s for %d (query %d)", from, msg.Value, msg.QueryID)
	messagesTotal.WithLabelValues("buy", outcomeApplied).Inc()
}

func (l *chainListener) handleTransferNotification(
	ctx context.Context, msg ports.InboundMessage, from tonaddr.Address,
) {
	var body transferNotificationBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		l.rejectMalformed(msg, err)
		return
	}

	settled, err := l.saleService.RegisterJettonTransfer(
		ctx, msg.QueryID, from, body.Amount, body.Sender,
	)
	if err != nil {
		log.WithError(err).Error("failed to update sale record")
		return
	}
	if !settled {
		log.Infof(
			"returning %d jettons to %s via wallet %s (query %d)",
			body.Amount, body.Sender, from, msg.QueryID,
		)
		messagesTotal.WithLabelValues("transfer_notification", outcomeReturned).Inc()
		return
	}
	log.Infof(
		"sale settled: nft sold to %s for %d jettons (query %d)",
		body.Sender, body.Amount, msg.QueryID,
	)
	messagesTotal.WithLabelValues("transfer_notification", outcomeApplied).Inc()
}

func (l *chainListener) handleCancel(
	ctx context.Context, msg ports.InboundMessage, from tonaddr.Address,
) {
	if err := l.saleService.CancelSale(ctx, msg.QueryID, from); err != nil {
		l.reject("cancel", msg, err)
		return
	}
	log.Infof("cancel processed for %s (query %d)", from, msg.QueryID)
	messagesTotal.WithLabelValues("cancel", outcomeApplied).Inc()
}

func (l *chainListener) reject(op string, msg ports.InboundMessage, err error) {
	log.WithError(err).Warnf(
		"%s rejected with exit code %d (query %d)",
		op, domain.ExitCode(err), msg.QueryID,
	)
	messagesTotal.WithLabelValues(op, outcomeRejected).Inc()
}

func (l *chainListener) rejectMalformed(msg ports.InboundMessage, err error) {
	log.WithError(err).Warnf("dropping malformed body for op %#x", msg.Op)
	messagesTotal.WithLabelValues(opLabel(msg.Op), outcomeIgnored).Inc()
}

func opLabel(op uint32) string {
	switch op {
	case domain.OpBuy:
		return "buy"
	case domain.OpCancel:
		return "cancel"
	case domain.OpDeploy:
		return "deploy"
	case domain.OpOwnershipAssigned:
		return "ownership_assigned"
	case domain.OpTransferNotification:
		return "transfer_notification"
	default:
		return "unknown"
	}
}
