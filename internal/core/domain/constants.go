package domain

// SaleType is the magic returned by the sale-data query to identify this
// kind of contract ("FIXJ": fixed price, jettons accepted).
const SaleType = 0x4649584a

// Operation codes of the inbound contract messages. OpDeploy and
// OpChangePrice share the same code: the first op-5 message initializes the
// sale, every later one is a price update.
const (
	OpBuy         uint32 = 0
	OpCancel      uint32 = 3
	OpDeploy      uint32 = 5
	OpChangePrice uint32 = 5

	OpOwnershipAssigned    uint32 = 0x05138d91
	OpTransferNotification uint32 = 0x7362d09c
)
