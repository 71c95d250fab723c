package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiToEther converts a wei amount to its ether-denominated decimal value.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}

// FormatWei renders a wei amount as a human-readable ether string for
// display, e.g. "1.5 ETH".
func FormatWei(wei *big.Int) string {
	return WeiToEther(wei).String() + " ETH"
}
