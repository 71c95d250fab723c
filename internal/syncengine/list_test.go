package syncengine

import (
	"context"
	"sync"
	"testing"
	"time"

	"nft-auction-sync/internal/blockwatch"
	"nft-auction-sync/internal/ethereum/stub"
)

type listRecorder struct {
	mu     sync.Mutex
	states []ListState
	pub    chan ListState
}

func newListRecorder() *listRecorder {
	return &listRecorder{pub: make(chan ListState, 32)}
}

func (r *listRecorder) onUpdate(st ListState) {
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
	r.pub <- st
}

func (r *listRecorder) wait(t *testing.T) ListState {
	t.Helper()
	select {
	case st := <-r.pub:
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a list publication")
		return ListState{}
	}
}

func listHarness(chain *stub.Chain) (*ListSynchronizer, *listRecorder, *blockwatch.Subject) {
	ready := NewReadyGate()
	ready.Resolve()
	blocks := blockwatch.NewSubject()
	rec := newListRecorder()

	s := StartList(context.Background(), ListOptions{
		Fetcher:  NewFetcher(chain, nil),
		Reader:   chain,
		Ready:    ready,
		Blocks:   blocks,
		OnUpdate: rec.onUpdate,
	})
	return s, rec, blocks
}

// waitCycles blocks until the synchronizer has completed n count fetches.
func waitCycles(t *testing.T, chain *stub.Chain, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if chain.CallCount("getAuctionsCount") >= n {
			// Give the fan-out a moment to finish after the count fetch.
			time.Sleep(20 * time.Millisecond)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d count fetches", n)
}

func TestListSyncFansOutPerAuction(t *testing.T) {
	chain := stub.NewChain()
	for id := uint64(0); id < 3; id++ {
		chain.AddAuction(rawAuction(id))
	}

	s, rec, _ := listHarness(chain)
	defer s.Dispose()

	st := rec.wait(t)
	if st.Count != 3 {
		t.Fatalf("Count = %d, want 3", st.Count)
	}
	if len(st.Auctions) != 3 {
		t.Fatalf("published %d auctions, want 3", len(st.Auctions))
	}
	for i, a := range st.Auctions {
		if a.ID != uint64(i) {
			t.Errorf("Auctions[%d].ID = %d, want ascending ids", i, a.ID)
		}
	}
	if got := chain.CallCount("getAuction"); got != 3 {
		t.Errorf("issued %d auction fetches, want exactly 3", got)
	}
}

func TestListSyncZeroCountPublishesEmptyList(t *testing.T) {
	chain := stub.NewChain()

	s, rec, _ := listHarness(chain)
	defer s.Dispose()

	st := rec.wait(t)
	if st.Count != 0 {
		t.Errorf("Count = %d, want 0", st.Count)
	}
	if st.Auctions == nil || len(st.Auctions) != 0 {
		t.Errorf("Auctions = %v, want empty non-nil slice", st.Auctions)
	}
	if got := chain.CallCount("getAuction"); got != 0 {
		t.Errorf("issued %d auction fetches for an empty list, want 0", got)
	}
}

func TestListSyncUnchangedCountSkipsFanOut(t *testing.T) {
	chain := stub.NewChain()
	for id := uint64(0); id < 2; id++ {
		chain.AddAuction(rawAuction(id))
	}

	s, rec, blocks := listHarness(chain)
	defer s.Dispose()

	rec.wait(t)

	blocks.Set(50)
	waitCycles(t, chain, 2)

	if got := chain.CallCount("getAuction"); got != 2 {
		t.Errorf("issued %d auction fetches across two cycles, want 2", got)
	}
	if st := s.State(); len(st.Auctions) != 2 {
		t.Errorf("list shrank to %d auctions", len(st.Auctions))
	}
}

func TestListSyncGrowingCountRepublishes(t *testing.T) {
	chain := stub.NewChain()
	chain.AddAuction(rawAuction(0))

	s, rec, blocks := listHarness(chain)
	defer s.Dispose()

	first := rec.wait(t)
	if first.Count != 1 {
		t.Fatalf("first Count = %d, want 1", first.Count)
	}

	chain.AddAuction(rawAuction(1))
	blocks.Set(60)

	second := rec.wait(t)
	if second.Count != 2 {
		t.Fatalf("second Count = %d, want 2", second.Count)
	}
	if len(second.Auctions) != 2 {
		t.Errorf("republished %d auctions, want 2", len(second.Auctions))
	}
}

func TestListSyncMidBatchFailureRetainsPreviousList(t *testing.T) {
	chain := stub.NewChain()
	for id := uint64(0); id < 2; id++ {
		chain.AddAuction(rawAuction(id))
	}

	s, rec, blocks := listHarness(chain)
	defer s.Dispose()

	first := rec.wait(t)
	if len(first.Auctions) != 2 {
		t.Fatalf("first publication has %d auctions, want 2", len(first.Auctions))
	}

	chain.AddAuction(rawAuction(2))
	failID := uint64(2)
	chain.FailAuctionID = &failID
	blocks.Set(70)
	waitCycles(t, chain, 2)

	st := s.State()
	if st.Count != 2 || len(st.Auctions) != 2 {
		t.Errorf("failed batch replaced the list: count=%d len=%d, want previous list of 2",
			st.Count, len(st.Auctions))
	}
}
