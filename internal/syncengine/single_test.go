package syncengine

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nft-auction-sync/internal/blockwatch"
	"nft-auction-sync/internal/ethereum"
	"nft-auction-sync/internal/ethereum/stub"
)

// stateRecorder collects published states in order.
type stateRecorder struct {
	mu     sync.Mutex
	states []SingleState
	pub    chan SingleState
}

func newStateRecorder() *stateRecorder {
	return &stateRecorder{pub: make(chan SingleState, 32)}
}

func (r *stateRecorder) onUpdate(st SingleState) {
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
	r.pub <- st
}

func (r *stateRecorder) waitSettled(t *testing.T) SingleState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-r.pub:
			if !st.Loading {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for a settled state")
		}
	}
}

func (r *stateRecorder) snapshot() []SingleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SingleState, len(r.states))
	copy(out, r.states)
	return out
}

func singleHarness(chain *stub.Chain, account *common.Address) (*SingleSynchronizer, *stateRecorder, *blockwatch.Subject) {
	ready := NewReadyGate()
	ready.Resolve()
	blocks := blockwatch.NewSubject()
	rec := newStateRecorder()

	s := StartSingle(context.Background(), SingleOptions{
		AuctionID: 1,
		Fetcher:   NewFetcher(chain, &memResolver{blobs: map[string][]byte{"QmMeta": []byte(`{"name":"x"}`)}}),
		Reader:    chain,
		Ready:     ready,
		Blocks:    blocks,
		Account:   account,
		OnUpdate:  rec.onUpdate,
	})
	return s, rec, blocks
}

func TestSingleSyncSettlesWithAuctionAndBid(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(1))
	chain.SetAssetCID(big.NewInt(7), "QmMeta")
	account := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	chain.SetBid(1, account, big.NewInt(5000))

	s, rec, _ := singleHarness(chain, &account)
	defer s.Dispose()

	st := rec.waitSettled(t)
	if st.Auction == nil {
		t.Fatal("settled state has nil auction")
	}
	if st.Auction.ID != 1 {
		t.Errorf("auction ID = %d, want 1", st.Auction.ID)
	}
	if st.Auction.Metadata == nil {
		t.Error("settled state missing metadata")
	}
	if st.AccountBid.Cmp(big.NewInt(5000)) != 0 {
		t.Errorf("AccountBid = %s, want 5000", st.AccountBid)
	}
}

func TestSingleSyncNilAccountSkipsBidFetch(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(1))
	chain.SetAssetCID(big.NewInt(7), "QmMeta")

	s, rec, _ := singleHarness(chain, nil)
	defer s.Dispose()

	st := rec.waitSettled(t)
	if st.AccountBid.Sign() != 0 {
		t.Errorf("AccountBid = %s, want 0", st.AccountBid)
	}
	if chain.CallCount("getBid") != 0 {
		t.Errorf("getBid called %d times with no account", chain.CallCount("getBid"))
	}
}

func TestSingleSyncLoadingTransitions(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(1))
	chain.SetAssetCID(big.NewInt(7), "QmMeta")

	s, rec, _ := singleHarness(chain, nil)
	defer s.Dispose()

	rec.waitSettled(t)

	states := rec.snapshot()
	if len(states) < 2 {
		t.Fatalf("published %d states, want loading then settled", len(states))
	}
	if !states[0].Loading {
		t.Error("first published state is not loading")
	}
	if states[len(states)-1].Loading {
		t.Error("last published state is still loading")
	}
}

func TestSingleSyncFailureRetainsSnapshot(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(1))
	chain.SetAssetCID(big.NewInt(7), "QmMeta")

	s, rec, blocks := singleHarness(chain, nil)
	defer s.Dispose()

	first := rec.waitSettled(t)
	if first.Auction == nil {
		t.Fatal("first cycle did not settle with an auction")
	}

	failID := uint64(1)
	chain.FailAuctionID = &failID
	blocks.Set(20)

	second := rec.waitSettled(t)
	if second.Auction == nil {
		t.Fatal("failed cycle cleared the previous snapshot")
	}
	if second.Auction.ID != first.Auction.ID {
		t.Errorf("snapshot changed across failed cycle: %d vs %d",
			second.Auction.ID, first.Auction.ID)
	}
	if second.Block != first.Block {
		t.Errorf("failed cycle advanced Block to %d", second.Block)
	}
}

func TestSingleSyncRefetchesOnNewBlock(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(1))
	chain.SetAssetCID(big.NewInt(7), "QmMeta")

	s, rec, blocks := singleHarness(chain, nil)
	defer s.Dispose()

	rec.waitSettled(t)

	blocks.Set(30)
	st := rec.waitSettled(t)
	if st.Block != 30 {
		t.Errorf("Block = %d, want 30", st.Block)
	}
}

// slowChain blocks GetAuction until released, to hold a cycle in flight.
type slowChain struct {
	*stub.Chain
	entered chan struct{}
	release chan struct{}
}

func (c *slowChain) GetAuction(ctx context.Context, id uint64, block uint64) (*ethereum.RawAuction, error) {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	<-c.release
	return c.Chain.GetAuction(ctx, id, block)
}

func TestSingleSyncDropsTriggerWhileCycleInFlight(t *testing.T) {
	inner := stub.NewChain()
	inner.AddAuction(rawAuction(1))
	inner.SetAssetCID(big.NewInt(7), "QmMeta")
	chain := &slowChain{
		Chain:   inner,
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}

	ready := NewReadyGate()
	ready.Resolve()
	blocks := blockwatch.NewSubject()
	rec := newStateRecorder()

	s := StartSingle(context.Background(), SingleOptions{
		AuctionID: 1,
		Fetcher:   NewFetcher(chain, &memResolver{blobs: map[string][]byte{"QmMeta": []byte(`{"name":"x"}`)}}),
		Reader:    chain,
		Ready:     ready,
		Blocks:    blocks,
		OnUpdate:  rec.onUpdate,
	})
	defer s.Dispose()

	select {
	case <-chain.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle never reached the chain")
	}

	// This trigger arrives while the first cycle is blocked and must be
	// dropped, not queued.
	blocks.Set(5)
	time.Sleep(50 * time.Millisecond)

	close(chain.release)
	first := rec.waitSettled(t)
	if first.Auction == nil {
		t.Fatal("held cycle did not publish its result")
	}

	// Let the released cycle clear its in-flight flag before re-triggering.
	time.Sleep(20 * time.Millisecond)
	blocks.Set(6)
	second := rec.waitSettled(t)
	if second.Block != 6 {
		t.Errorf("Block = %d, want 6", second.Block)
	}
	if got := inner.CallCount("getAuction"); got != 2 {
		t.Errorf("issued %d auction fetches, want 2 (trigger at block 5 dropped)", got)
	}
}

func TestSingleSyncNoPublishAfterDispose(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(1))
	chain.SetAssetCID(big.NewInt(7), "QmMeta")

	s, rec, blocks := singleHarness(chain, nil)
	rec.waitSettled(t)

	s.Dispose()
	before := len(rec.snapshot())

	blocks.Set(40)
	time.Sleep(50 * time.Millisecond)

	if after := len(rec.snapshot()); after != before {
		t.Errorf("published %d states after dispose, want %d", after, before)
	}
}
