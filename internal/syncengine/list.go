package syncengine

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nft-auction-sync/internal/blockwatch"
	"nft-auction-sync/internal/domain"
	"nft-auction-sync/internal/ethereum"
	"nft-auction-sync/internal/observability"
)

// ListState is the published auction list. Auctions are ordered by
// ascending id; the slice is rebuilt wholesale per publication.
type ListState struct {
	Auctions []*domain.Auction
	Count    uint64
	Block    uint64
}

// ListOptions configures a ListSynchronizer.
type ListOptions struct {
	Fetcher *Fetcher
	Reader  ethereum.Reader
	Ready   *ReadyGate
	Blocks  *blockwatch.Subject

	// OnUpdate, when set, receives every published list.
	OnUpdate func(ListState)

	Logger *zap.Logger
}

// ListSynchronizer keeps the full auction list in sync: every new block
// re-fetches the auction count, and a changed count fans out one summary
// fetch per auction id. The list publishes all-or-nothing; a failed fetch
// retains the previous list.
type ListSynchronizer struct {
	opts ListOptions

	mu        sync.RWMutex
	state     ListState
	lastCount *uint64

	inFlight atomic.Bool
	disposed atomic.Bool
	ctx      context.Context
	gate     *BlockGate
}

// StartList opens the block gate and begins synchronizing.
func StartList(ctx context.Context, opts ListOptions) *ListSynchronizer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &ListSynchronizer{
		opts: opts,
		ctx:  ctx,
	}
	s.gate = OpenBlockGate(opts.Ready, opts.Blocks, s.trigger)
	return s
}

// State returns the latest published list.
func (s *ListSynchronizer) State() ListState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispose stops future triggers. In-flight fetches are not aborted; their
// results are discarded.
func (s *ListSynchronizer) Dispose() {
	s.disposed.Store(true)
	s.gate.Dispose()
}

func (s *ListSynchronizer) trigger(block uint64) {
	if s.disposed.Load() {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		observability.RecordTriggerDropped("list")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		s.runCycle(block)
	}()
}

// runCycle refreshes the count and, when it changed (including the first
// observation of zero), fans out the per-auction fetches.
func (s *ListSynchronizer) runCycle(block uint64) {
	count, err := s.opts.Reader.GetAuctionsCount(s.ctx, block)
	if err != nil {
		observability.RecordSyncCycle("list", "error")
		s.opts.Logger.Warn("auction count fetch failed",
			zap.Uint64("block", block), zap.Error(err))
		return
	}

	s.mu.Lock()
	unchanged := s.lastCount != nil && *s.lastCount == count
	s.lastCount = &count
	s.mu.Unlock()
	if unchanged {
		observability.RecordSyncCycle("list", "unchanged")
		return
	}

	if count == 0 {
		observability.RecordSyncCycle("list", "ok")
		s.publish(ListState{Auctions: []*domain.Auction{}, Count: 0, Block: block})
		return
	}

	auctions, err := s.fetchAll(count, block)
	if err != nil {
		observability.RecordSyncCycle("list", "error")
		s.opts.Logger.Warn("auction list fetch failed",
			zap.Uint64("block", block),
			zap.Uint64("count", count),
			zap.Error(err))
		// Allow the next block to retry the same count.
		s.mu.Lock()
		s.lastCount = nil
		s.mu.Unlock()
		return
	}

	observability.RecordSyncCycle("list", "ok")
	s.publish(ListState{Auctions: auctions, Count: count, Block: block})
}

// fetchAll issues count concurrent summary fetches for ids 0..count-1 and
// waits for the full set. Any failure aborts the batch; no partial list is
// ever returned. Result order is ascending id regardless of completion
// order.
func (s *ListSynchronizer) fetchAll(count uint64, block uint64) ([]*domain.Auction, error) {
	auctions := make([]*domain.Auction, count)

	g, ctx := errgroup.WithContext(s.ctx)
	for id := uint64(0); id < count; id++ {
		id := id
		g.Go(func() error {
			a, err := s.opts.Fetcher.Summary(ctx, id, block)
			if err != nil {
				return err
			}
			auctions[id] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return auctions, nil
}

// publish replaces the list atomically, unless the synchronizer was
// disposed while the cycle was in flight.
func (s *ListSynchronizer) publish(next ListState) {
	if s.disposed.Load() {
		return
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(next)
	}
}
