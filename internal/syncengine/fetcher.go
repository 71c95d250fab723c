package syncengine

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"nft-auction-sync/internal/domain"
	"nft-auction-sync/internal/ethereum"
	"nft-auction-sync/internal/ipfs"
	"nft-auction-sync/internal/observability"
)

// ErrMetadataDecode is returned when a metadata blob is not the expected
// JSON document.
var ErrMetadataDecode = fmt.Errorf("metadata decode failure")

// Fetcher assembles complete auction snapshots from the chain reader and
// the metadata store.
type Fetcher struct {
	reader   ethereum.Reader
	resolver ipfs.Resolver
}

// NewFetcher creates a fetcher. resolver may be nil when no detail fetches
// will be performed.
func NewFetcher(reader ethereum.Reader, resolver ipfs.Resolver) *Fetcher {
	return &Fetcher{reader: reader, resolver: resolver}
}

// Summary fetches the raw tuple for one auction at a block and assembles a
// snapshot without metadata.
func (f *Fetcher) Summary(ctx context.Context, id uint64, block uint64) (*domain.Auction, error) {
	start := time.Now()
	raw, err := f.reader.GetAuction(ctx, id, block)
	observability.RecordFetchLatency("summary", time.Since(start).Seconds())
	if err != nil {
		return nil, errors.Wrapf(err, "fetch auction %d", id)
	}
	return assemble(raw)
}

// Detail fetches the raw tuple plus the NFT metadata: the curator resolves
// the token to a content identifier, the store returns the blob, and the
// blob decodes as JSON.
func (f *Fetcher) Detail(ctx context.Context, id uint64, block uint64) (*domain.Auction, error) {
	start := time.Now()
	defer func() {
		observability.RecordFetchLatency("detail", time.Since(start).Seconds())
	}()

	raw, err := f.reader.GetAuction(ctx, id, block)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch auction %d", id)
	}

	auction, err := assemble(raw)
	if err != nil {
		return nil, err
	}

	cid, err := f.reader.AssetData(ctx, raw.TokenID, block)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve asset data for token %s", raw.TokenID)
	}

	blob, err := f.resolver.Resolve(ctx, cid)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve metadata %s", cid)
	}

	meta := &domain.NFTMetadata{}
	if err := json.Unmarshal(blob, meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadataDecode, cid, err)
	}
	auction.Metadata = meta

	return auction, nil
}

// assemble converts a raw tuple into an immutable snapshot, decoding the
// status and deriving the end date.
func assemble(raw *ethereum.RawAuction) (*domain.Auction, error) {
	status, err := domain.StatusFromChain(raw.Status)
	if err != nil {
		return nil, err
	}

	if !uintish(raw.ID) || !uintish(raw.Duration) || !uintish(raw.StartBlock) {
		return nil, errors.Wrap(ethereum.ErrMalformedTuple, "out-of-range scalar field")
	}

	endDate, err := domain.EndDate(raw.StartedAt.String(), raw.Duration.Uint64())
	if err != nil {
		return nil, err
	}

	return &domain.Auction{
		ID:            raw.ID.Uint64(),
		NFTAddress:    raw.NFTAddress,
		TokenID:       raw.TokenID,
		Seller:        raw.Seller,
		BidIncrement:  raw.BidIncrement,
		Duration:      raw.Duration.Uint64(),
		StartedAt:     raw.StartedAt.Int64(),
		StartBlock:    raw.StartBlock.Uint64(),
		Status:        status,
		HighestBid:    raw.HighestBid,
		HighestBidder: raw.HighestBidder,
		EndDate:       endDate,
	}, nil
}

func uintish(v *big.Int) bool {
	return v != nil && v.IsUint64()
}
