// Package ethereum provides read and write access to the auction house and
// curator contracts over JSON-RPC.
package ethereum

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMalformedTuple is returned when a contract call returns data that does
// not decode to the expected shape.
var ErrMalformedTuple = errors.New("malformed contract return tuple")

// ErrTransactionRejected is returned when the node refuses a submitted
// transaction.
var ErrTransactionRejected = errors.New("transaction rejected")

// Reader is the read-only view of the auction house and curator contracts.
// All calls are executed against an explicit block reference; block 0 means
// the node's latest block.
type Reader interface {
	// GetAuction retrieves the raw auction tuple for an auction id.
	GetAuction(ctx context.Context, id uint64, block uint64) (*RawAuction, error)

	// GetAuctionsCount retrieves the total number of auctions ever created.
	GetAuctionsCount(ctx context.Context, block uint64) (uint64, error)

	// GetBid retrieves the amount currently escrowed for an account on an
	// auction.
	GetBid(ctx context.Context, id uint64, account common.Address, block uint64) (*big.Int, error)

	// AssetData resolves a token id to its metadata content identifier via
	// the curator contract.
	AssetData(ctx context.Context, tokenID *big.Int, block uint64) (string, error)
}

// TxOpts carries the sender and optional value of a write call. Signing is
// delegated to the node; the engine only submits.
type TxOpts struct {
	From  common.Address
	Value *big.Int // nil for zero-value transactions
}

// Writer submits auction house transactions. A returned hash means the
// transaction was accepted for broadcast, not that it was mined.
type Writer interface {
	// Bid submits a value-bearing bid transaction for an auction.
	Bid(ctx context.Context, id uint64, opts TxOpts) (common.Hash, error)

	// WithdrawBalance requests withdrawal of the sender's escrowed balance.
	WithdrawBalance(ctx context.Context, id uint64, opts TxOpts) (common.Hash, error)
}
