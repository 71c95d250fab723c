// Package domain defines the auction snapshot entity and the pure
// derived-state calculations performed on raw chain values.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Auction is an immutable snapshot of one on-chain auction. It is rebuilt
// wholesale on every sync cycle and never patched field by field.
type Auction struct {
	ID            uint64
	NFTAddress    common.Address
	TokenID       *big.Int
	Seller        common.Address
	BidIncrement  *big.Int // minimum raise over the highest bid, in wei
	Duration      uint64   // chain-native time units
	StartedAt     int64    // Unix seconds at creation
	StartBlock    uint64
	Status        Status
	HighestBid    *big.Int // wei
	HighestBidder common.Address

	// EndDate is derived from StartedAt and Duration, not stored on-chain.
	EndDate int64

	// Metadata is populated by detail fetches only; nil on list summaries.
	Metadata *NFTMetadata
}

// NFTMetadata is the off-chain description of the auctioned NFT, decoded
// from the content-addressed store.
type NFTMetadata struct {
	Name                string            `json:"name"`
	Creator             string            `json:"creator"`
	Description         string            `json:"description"`
	ResourceIdentifiers map[string]string `json:"resourceIdentifiers"`
}

// DefaultResource returns the content identifier of the primary display
// resource, or "" when the metadata carries none.
func (m *NFTMetadata) DefaultResource() string {
	if m == nil {
		return ""
	}
	return m.ResourceIdentifiers["default"]
}
