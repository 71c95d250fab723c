package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract ABIs, reduced to the entry points the engine uses.
const (
	auctionHouseABI = `[
		{"inputs":[{"name":"_id","type":"uint256"}],"name":"getAuction","outputs":[{"name":"id","type":"uint256"},{"name":"nftAddress","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"seller","type":"address"},{"name":"bidIncrement","type":"uint256"},{"name":"duration","type":"uint256"},{"name":"startedAt","type":"uint256"},{"name":"startBlock","type":"uint256"},{"name":"status","type":"uint256"},{"name":"highestBid","type":"uint256"},{"name":"highestBidder","type":"address"}],"stateMutability":"view","type":"function"},
		{"inputs":[],"name":"getAuctionsCount","outputs":[{"name":"count","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"name":"_id","type":"uint256"},{"name":"bidder","type":"address"}],"name":"getBid","outputs":[{"name":"amount","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"name":"_id","type":"uint256"}],"name":"bid","outputs":[],"stateMutability":"payable","type":"function"},
		{"inputs":[{"name":"_id","type":"uint256"}],"name":"withdrawBalance","outputs":[],"stateMutability":"nonpayable","type":"function"}
	]`

	curatorABI = `[
		{"inputs":[{"name":"_tokenId","type":"uint256"}],"name":"assetData","outputs":[{"name":"data","type":"string"}],"stateMutability":"view","type":"function"}
	]`
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("ethereum: invalid embedded ABI: %v", err))
	}
	return parsed
}

var (
	houseABI  = mustParseABI(auctionHouseABI)
	assetsABI = mustParseABI(curatorABI)
)

// decodeRawAuction converts the unpacked getAuction return values into a
// RawAuction, validating arity and field types.
func decodeRawAuction(vals []interface{}) (*RawAuction, error) {
	if len(vals) != 11 {
		return nil, fmt.Errorf("%w: got %d values, want 11", ErrMalformedTuple, len(vals))
	}

	raw := &RawAuction{}
	ok := true
	raw.ID, ok = asBigInt(vals[0], ok)
	raw.NFTAddress, ok = asAddress(vals[1], ok)
	raw.TokenID, ok = asBigInt(vals[2], ok)
	raw.Seller, ok = asAddress(vals[3], ok)
	raw.BidIncrement, ok = asBigInt(vals[4], ok)
	raw.Duration, ok = asBigInt(vals[5], ok)
	raw.StartedAt, ok = asBigInt(vals[6], ok)
	raw.StartBlock, ok = asBigInt(vals[7], ok)
	raw.Status, ok = asBigInt(vals[8], ok)
	raw.HighestBid, ok = asBigInt(vals[9], ok)
	raw.HighestBidder, ok = asAddress(vals[10], ok)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected field types", ErrMalformedTuple)
	}
	return raw, nil
}

func asBigInt(v interface{}, ok bool) (*big.Int, bool) {
	if !ok {
		return nil, false
	}
	b, isBig := v.(*big.Int)
	return b, isBig && b != nil
}

func asAddress(v interface{}, ok bool) (common.Address, bool) {
	if !ok {
		return common.Address{}, false
	}
	a, isAddr := v.(common.Address)
	return a, isAddr
}
