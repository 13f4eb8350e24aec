package domain

import "errors"

var (
	// ErrSaleAlreadyInitialized is thrown when an op-5 message with a signature
	// reaches a sale that already processed its deploy message.
	ErrSaleAlreadyInitialized = errors.New("sale is already initialized")
	// ErrSaleNotInitialized is thrown when any operational message reaches the
	// sale before a verified deploy message.
	ErrSaleNotInitialized = errors.New("sale is not initialized")
	// ErrBadSignature is thrown when the deploy signature does not verify
	// against the sale public key.
	ErrBadSignature = errors.New("deploy signature does not verify")
	// ErrSaleNotReady is thrown when a settlement is attempted before the nft
	// has been transferred to the sale.
	ErrSaleNotReady = errors.New("nft has not been received yet")
	// ErrSaleCompleted is thrown when an operational message reaches a sale
	// that already settled or was cancelled.
	ErrSaleCompleted = errors.New("sale is already completed")
	// ErrZeroPrice is thrown when buying with native coins while the native
	// price is unset.
	ErrZeroPrice = errors.New("native price is zero, sale accepts jettons only")
	// ErrInsufficientValue is thrown when the value attached to a buy message
	// is below the full price.
	ErrInsufficientValue = errors.New("attached value is below the full price")
	// ErrNotOwner is thrown when cancel or price-change requests come from
	// anybody but the nft owner.
	ErrNotOwner = errors.New("sender is not the nft owner")
	// ErrInvalidPriceTerms is thrown when marketplace fee plus royalty exceed
	// the price they apply to.
	ErrInvalidPriceTerms = errors.New("fee and royalty exceed the full price")
)

// ExitCode maps a domain error to the numeric exit code the on-chain
// contract reports for the same condition. Unknown errors map to 0.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, ErrBadSignature):
		return 902
	case errors.Is(err, ErrSaleNotInitialized), errors.Is(err, ErrSaleNotReady):
		return 500
	case errors.Is(err, ErrSaleCompleted):
		return 404
	case errors.Is(err, ErrZeroPrice):
		return 451
	case errors.Is(err, ErrInsufficientValue):
		return 450
	case errors.Is(err, ErrNotOwner):
		return 403
	case errors.Is(err, ErrInvalidPriceTerms):
		return 406
	case errors.Is(err, ErrSaleAlreadyInitialized):
		return 405
	default:
		return 0
	}
}
