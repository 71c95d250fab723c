package ethereum

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RawAuction is the 11-field tuple returned by AuctionHouse.getAuction,
// in contract declaration order. Values are chain-typed; interpretation
// (status decoding, end date) happens in the sync engine.
type RawAuction struct {
	ID            *big.Int
	NFTAddress    common.Address
	TokenID       *big.Int
	Seller        common.Address
	BidIncrement  *big.Int
	Duration      *big.Int
	StartedAt     *big.Int
	StartBlock    *big.Int
	Status        *big.Int
	HighestBid    *big.Int
	HighestBidder common.Address
}
