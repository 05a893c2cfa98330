// Package tabs tracks per-tab query lifecycle state. Each tab carries a
// generation counter so a slow query that was superseded by a newer one
// cannot clobber the newer query's cancellation handle on completion.
package tabs

import (
	"context"
	"sync"
)

type tabState struct {
	connName   string
	generation uint64
	cancel     context.CancelFunc
}

// Registry holds the state of all open tabs. All methods are safe for
// concurrent use; the internal lock is never held across I/O.
type Registry struct {
	mu   sync.Mutex
	tabs map[string]*tabState
}

func NewRegistry() *Registry {
	return &Registry{tabs: make(map[string]*tabState)}
}

func (r *Registry) get(tabID string) *tabState {
	t, ok := r.tabs[tabID]
	if !ok {
		t = &tabState{}
		r.tabs[tabID] = t
	}
	return t
}

// StartQuery begins a new query on the tab: it bumps the generation,
// installs a fresh cancellation handle (cancelling any previous one) and
// returns the derived context plus the generation the caller must pass to
// FinishQuery.
func (r *Registry) StartQuery(parent context.Context, tabID string) (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.get(tabID)
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.generation++
	t.cancel = cancel
	return ctx, t.generation
}

// FinishQuery clears the tab's cancellation handle, but only if generation
// still matches the tab's current generation. A stale completion from a
// superseded query is a no-op.
func (r *Registry) FinishQuery(tabID string, generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tabs[tabID]
	if !ok || t.generation != generation {
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// CancelCurrent cancels the tab's in-flight query, if any, without touching
// the generation. An explicit user cancel must not look like a reconnect.
func (r *Registry) CancelCurrent(tabID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tabs[tabID]
	if !ok || t.cancel == nil {
		return false
	}
	t.cancel()
	t.cancel = nil
	return true
}

// SwapConnection points the tab at a different named connection. Any
// in-flight query is cancelled and the generation is bumped so its
// completion handler becomes stale.
func (r *Registry) SwapConnection(tabID, connName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.get(tabID)
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.generation++
	t.connName = connName
}

// ConnectionName returns the named connection the tab is bound to.
func (r *Registry) ConnectionName(tabID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tabs[tabID]
	if !ok || t.connName == "" {
		return "", false
	}
	return t.connName, true
}

// CloseTab cancels any in-flight query and forgets the tab.
func (r *Registry) CloseTab(tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tabs[tabID]; ok {
		if t.cancel != nil {
			t.cancel()
		}
		delete(r.tabs, tabID)
	}
}
