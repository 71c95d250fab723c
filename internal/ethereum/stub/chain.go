// Package stub provides in-memory ethereum.Reader and ethereum.Writer
// implementations for testing.
package stub

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"nft-auction-sync/internal/ethereum"
)

// ErrNotFound is returned when an auction or asset is not in the stub store.
var ErrNotFound = errors.New("not found")

// SentTx records one submitted transaction.
type SentTx struct {
	Method string // "bid" or "withdrawBalance"
	ID     uint64
	From   common.Address
	Value  *big.Int
}

// Chain implements ethereum.Reader and ethereum.Writer backed by maps.
type Chain struct {
	mu sync.Mutex

	Auctions  map[uint64]*ethereum.RawAuction
	Bids      map[string]*big.Int // key: "<id>/<account>"
	AssetCIDs map[string]string   // key: token id decimal string
	Count     uint64

	// Sent accumulates submitted transactions in order.
	Sent []SentTx

	// Err, when set, fails every call. FailAuctionID fails only the fetch
	// of that auction id.
	Err           error
	FailAuctionID *uint64

	// Calls counts reads per method name.
	Calls map[string]int
}

// NewChain creates an empty stub chain.
func NewChain() *Chain {
	return &Chain{
		Auctions:  make(map[uint64]*ethereum.RawAuction),
		Bids:      make(map[string]*big.Int),
		AssetCIDs: make(map[string]string),
		Calls:     make(map[string]int),
	}
}

func bidKey(id uint64, account common.Address) string {
	return fmt.Sprintf("%d/%s", id, account.Hex())
}

// AddAuction stores a raw auction tuple and grows the count to cover its id.
func (c *Chain) AddAuction(raw *ethereum.RawAuction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := raw.ID.Uint64()
	c.Auctions[id] = raw
	if id+1 > c.Count {
		c.Count = id + 1
	}
}

// SetBid stores an escrowed bid amount for an account on an auction.
func (c *Chain) SetBid(id uint64, account common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Bids[bidKey(id, account)] = amount
}

// SetAssetCID stores the metadata content identifier for a token id.
func (c *Chain) SetAssetCID(tokenID *big.Int, cid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AssetCIDs[tokenID.String()] = cid
}

// GetAuction retrieves an auction tuple from the stub store.
func (c *Chain) GetAuction(_ context.Context, id uint64, _ uint64) (*ethereum.RawAuction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["getAuction"]++
	if c.Err != nil {
		return nil, c.Err
	}
	if c.FailAuctionID != nil && *c.FailAuctionID == id {
		return nil, fmt.Errorf("getAuction %d: boom", id)
	}
	raw, ok := c.Auctions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return raw, nil
}

// GetAuctionsCount returns the configured auction count.
func (c *Chain) GetAuctionsCount(_ context.Context, _ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["getAuctionsCount"]++
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Count, nil
}

// GetBid returns the escrowed amount for an account, zero when absent.
func (c *Chain) GetBid(_ context.Context, id uint64, account common.Address, _ uint64) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["getBid"]++
	if c.Err != nil {
		return nil, c.Err
	}
	if amount, ok := c.Bids[bidKey(id, account)]; ok {
		return amount, nil
	}
	return big.NewInt(0), nil
}

// AssetData returns the stored content identifier for a token id.
func (c *Chain) AssetData(_ context.Context, tokenID *big.Int, _ uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["assetData"]++
	if c.Err != nil {
		return "", c.Err
	}
	cid, ok := c.AssetCIDs[tokenID.String()]
	if !ok {
		return "", ErrNotFound
	}
	return cid, nil
}

// Bid records a bid transaction.
func (c *Chain) Bid(_ context.Context, id uint64, opts ethereum.TxOpts) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return common.Hash{}, c.Err
	}
	c.Sent = append(c.Sent, SentTx{Method: "bid", ID: id, From: opts.From, Value: opts.Value})
	return common.HexToHash(fmt.Sprintf("0x%064x", len(c.Sent))), nil
}

// WithdrawBalance records a withdrawal transaction.
func (c *Chain) WithdrawBalance(_ context.Context, id uint64, opts ethereum.TxOpts) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return common.Hash{}, c.Err
	}
	c.Sent = append(c.Sent, SentTx{Method: "withdrawBalance", ID: id, From: opts.From, Value: opts.Value})
	return common.HexToHash(fmt.Sprintf("0x%064x", len(c.Sent))), nil
}

// CallCount returns the number of reads recorded for one method name.
func (c *Chain) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

// SentTxs returns a copy of the submitted transactions.
func (c *Chain) SentTxs() []SentTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentTx, len(c.Sent))
	copy(out, c.Sent)
	return out
}
