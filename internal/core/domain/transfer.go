package domain

import "github.com/tonmarket-network/sale-daemon/pkg/tonaddr"

// TransferKind discriminates the outbound effects a settlement step emits.
type TransferKind int

const (
	// TransferNative moves native coins to a destination.
	TransferNative TransferKind = iota
	// TransferJettons moves jettons through the sale's wallet for that
	// denomination.
	TransferJettons
	// TransferNft hands the guarded nft over to a new owner.
	TransferNft
)

func (k TransferKind) String() string {
	switch k {
	case TransferNative:
		return "native"
	case TransferJettons:
		return "jettons"
	case TransferNft:
		return "nft"
	default:
		return "unknown"
	}
}

// TransferIntent is an outbound transfer instruction produced by a state
// transition. Intents are emitted only by transitions that also mutate the
// sale record, so applying the record update and submitting the intents
// together settles the sale exactly once.
type TransferIntent struct {
	Kind   TransferKind
	To     tonaddr.Address
	Amount uint64
	// SourceWallet is the sale's jetton wallet the funds move through.
	// Set for jetton transfers only.
	SourceWallet tonaddr.Address
}
