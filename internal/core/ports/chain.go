package ports

import (
	"context"
	"encoding/json"

	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
)

// InboundMessage is the envelope the chain gateway delivers for every
// message addressed to the sale contract. Body is op-specific and decoded
// by the listener.
type InboundMessage struct {
	Op      uint32          `json:"op"`
	QueryID uint64          `json:"query_id"`
	From    string          `json:"from"`
	Value   uint64          `json:"value"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// ChainSource feeds the daemon with the inbound messages of the guarded
// sale contract. Messages are emitted on a single channel in delivery
// order; the listener consumes them one at a time.
type ChainSource interface {
	Start()
	Stop()
	GetMessageChannel() chan InboundMessage
}

// TransferSender submits outbound value and asset transfers to the chain
// gateway. Implementations must be safe to retry: every submission carries
// a client-generated idempotency id.
type TransferSender interface {
	SendTransfers(
		ctx context.Context, queryID uint64, intents []domain.TransferIntent,
	) error
}
