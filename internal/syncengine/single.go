package syncengine

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nft-auction-sync/internal/blockwatch"
	"nft-auction-sync/internal/domain"
	"nft-auction-sync/internal/ethereum"
	"nft-auction-sync/internal/observability"
)

// SingleState is the published state of one synchronized auction. It is
// replaced atomically per sync cycle.
type SingleState struct {
	Auction    *domain.Auction
	AccountBid *big.Int
	Loading    bool
	Block      uint64
}

// SingleOptions configures a SingleSynchronizer.
type SingleOptions struct {
	AuctionID uint64
	Fetcher   *Fetcher
	Reader    ethereum.Reader
	Ready     *ReadyGate
	Blocks    *blockwatch.Subject

	// Account is the active wallet account; nil means the escrowed bid is
	// reported as zero without a chain call.
	Account *common.Address

	// OnUpdate, when set, receives every published state.
	OnUpdate func(SingleState)

	Logger *zap.Logger
}

// SingleSynchronizer keeps one auction's snapshot and the current account's
// escrowed bid in sync with the chain, re-fetching on every new block.
type SingleSynchronizer struct {
	opts SingleOptions

	mu    sync.RWMutex
	state SingleState

	inFlight atomic.Bool
	disposed atomic.Bool
	ctx      context.Context
	gate     *BlockGate
}

// StartSingle opens the block gate and begins synchronizing. The first
// cycle runs as soon as the ready gate resolves.
func StartSingle(ctx context.Context, opts SingleOptions) *SingleSynchronizer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &SingleSynchronizer{
		opts:  opts,
		state: SingleState{Loading: true, AccountBid: big.NewInt(0)},
		ctx:   ctx,
	}
	s.gate = OpenBlockGate(opts.Ready, opts.Blocks, s.trigger)
	return s
}

// State returns the latest published state.
func (s *SingleSynchronizer) State() SingleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispose stops future triggers. In-flight fetches are not aborted; their
// results are discarded.
func (s *SingleSynchronizer) Dispose() {
	s.disposed.Store(true)
	s.gate.Dispose()
}

// trigger starts one cycle per block notification. A trigger that arrives
// while a cycle is still running is dropped; the next block re-triggers.
func (s *SingleSynchronizer) trigger(block uint64) {
	if s.disposed.Load() {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		observability.RecordTriggerDropped("single")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		s.runCycle(block)
	}()
}

// runCycle fetches the auction detail and the account's escrowed bid for
// one block. Both fetches run concurrently and the cycle settles only when
// both finish. On failure the previous snapshot is retained.
func (s *SingleSynchronizer) runCycle(block uint64) {
	s.publish(func(st *SingleState) {
		st.Loading = true
	})

	var (
		auction    *domain.Auction
		accountBid = big.NewInt(0)
	)

	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		a, err := s.opts.Fetcher.Detail(ctx, s.opts.AuctionID, block)
		if err != nil {
			return err
		}
		auction = a
		return nil
	})
	g.Go(func() error {
		if s.opts.Account == nil {
			return nil
		}
		bid, err := s.opts.Reader.GetBid(ctx, s.opts.AuctionID, *s.opts.Account, block)
		if err != nil {
			return err
		}
		accountBid = bid
		return nil
	})

	if err := g.Wait(); err != nil {
		observability.RecordSyncCycle("single", "error")
		s.opts.Logger.Warn("auction sync cycle failed",
			zap.Uint64("auction_id", s.opts.AuctionID),
			zap.Uint64("block", block),
			zap.Error(err))
		s.publish(func(st *SingleState) {
			st.Loading = false
		})
		return
	}

	observability.RecordSyncCycle("single", "ok")
	s.publish(func(st *SingleState) {
		st.Auction = auction
		st.AccountBid = accountBid
		st.Loading = false
		st.Block = block
	})
}

// publish replaces the state atomically, unless the synchronizer was
// disposed while the cycle was in flight.
func (s *SingleSynchronizer) publish(mutate func(*SingleState)) {
	if s.disposed.Load() {
		return
	}

	s.mu.Lock()
	next := s.state
	mutate(&next)
	s.state = next
	s.mu.Unlock()

	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(next)
	}
}
