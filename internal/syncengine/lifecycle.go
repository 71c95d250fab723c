package syncengine

import "sync"

// Disposer releases one watcher registration. Implementations must be
// idempotent.
type Disposer interface {
	Dispose()
}

// DisposerFunc adapts a function to the Disposer interface.
type DisposerFunc func()

// Dispose invokes the function.
func (f DisposerFunc) Dispose() { f() }

// Lifecycle collects every watcher created during a view's lifetime and
// tears them all down exactly once. Disposal handles are never shared
// between components; each registered Disposer owns its own subscription.
type Lifecycle struct {
	mu        sync.Mutex
	disposers []Disposer
	disposed  bool
}

// NewLifecycle creates an empty lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Add registers a disposer. Registering against an already-disposed
// lifecycle disposes immediately.
func (l *Lifecycle) Add(d Disposer) {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		d.Dispose()
		return
	}
	l.disposers = append(l.disposers, d)
	l.mu.Unlock()
}

// Dispose tears down all registered watchers in reverse registration
// order. Safe to call more than once.
func (l *Lifecycle) Dispose() {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return
	}
	l.disposed = true
	disposers := l.disposers
	l.disposers = nil
	l.mu.Unlock()

	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i].Dispose()
	}
}
