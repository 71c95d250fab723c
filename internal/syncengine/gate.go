// Package syncengine implements the block-driven auction synchronization
// core: readiness gating, per-auction and list sync cycles, and watcher
// lifecycle management.
package syncengine

import (
	"sync"

	"nft-auction-sync/internal/blockwatch"
)

// ReadyGate is a one-shot readiness future. It starts unresolved, resolves
// exactly once, and is never re-armed.
type ReadyGate struct {
	once sync.Once
	ch   chan struct{}
}

// NewReadyGate creates an unresolved gate.
func NewReadyGate() *ReadyGate {
	return &ReadyGate{ch: make(chan struct{})}
}

// Resolve marks the gate ready. Resolving more than once is a no-op.
func (g *ReadyGate) Resolve() {
	g.once.Do(func() { close(g.ch) })
}

// Done returns a channel closed once the gate resolves.
func (g *ReadyGate) Done() <-chan struct{} {
	return g.ch
}

// Ready reports whether the gate has resolved.
func (g *ReadyGate) Ready() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}

// BlockGate composes a ReadyGate with a block subscription: it waits for
// readiness, then invokes fn once immediately and again for every distinct
// block value, until disposed. Disposal is idempotent and stops the gate
// even while it is still waiting on readiness.
type BlockGate struct {
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// OpenBlockGate starts the gate. fn receives the block number that
// triggered it; on the immediate arming invocation, before any block has
// been observed, it receives 0 (which readers treat as "latest").
func OpenBlockGate(ready *ReadyGate, blocks *blockwatch.Subject, fn func(block uint64)) *BlockGate {
	g := &BlockGate{stop: make(chan struct{})}
	g.wg.Add(1)
	go g.run(ready, blocks, fn)
	return g
}

func (g *BlockGate) run(ready *ReadyGate, blocks *blockwatch.Subject, fn func(block uint64)) {
	defer g.wg.Done()

	select {
	case <-ready.Done():
	case <-g.stop:
		return
	}

	sub := blocks.Subscribe()
	defer sub.Unsubscribe()

	// Arming invocation. A seeded subject delivers its current value on
	// subscription; consume it here so it does not fire a second time.
	select {
	case block, ok := <-sub.C:
		if !ok {
			return
		}
		fn(block)
	default:
		fn(0)
	}

	for {
		select {
		case <-g.stop:
			return
		case block, ok := <-sub.C:
			if !ok {
				return
			}
			select {
			case <-g.stop:
				return
			default:
			}
			fn(block)
		}
	}
}

// Dispose stops the gate and waits for its goroutine to exit. After Dispose
// returns, fn is never invoked again. Safe to call more than once.
func (g *BlockGate) Dispose() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.wg.Wait()
}
