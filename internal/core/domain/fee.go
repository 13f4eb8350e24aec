package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Split is the outcome of applying a denomination's registered terms to a
// gross payment.
type Split struct {
	Fee       uint64
	Royalty   uint64
	Remainder uint64
	Refund    uint64
}

// SplitPayment divides a gross payment by the registered terms of a
// denomination. The gross amount is clamped to exactly the price for the
// split: fee and royalty are fixed amounts, the remainder goes to the
// seller, and everything above the price is refunded separately rather than
// folded into the remainder. Callers must guarantee gross >= price and
// fee + royalty <= price, which the price registry enforces on every write.
func SplitPayment(gross, price, fee, royalty uint64) Split {
	grossDecimal := fromUint(gross)
	priceDecimal := fromUint(price)
	feeDecimal := fromUint(fee)
	royaltyDecimal := fromUint(royalty)

	remainder := priceDecimal.Sub(feeDecimal).Sub(royaltyDecimal)
	refund := grossDecimal.Sub(priceDecimal)

	return Split{
		Fee:       fee,
		Royalty:   royalty,
		Remainder: remainder.BigInt().Uint64(),
		Refund:    refund.BigInt().Uint64(),
	}
}

func fromUint(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}

// validPriceTerms reports whether fee plus royalty fit within the price.
// Comparisons are arranged to be overflow-safe.
func validPriceTerms(price, fee, royalty uint64) bool {
	return royalty <= price && fee <= price-royalty
}
