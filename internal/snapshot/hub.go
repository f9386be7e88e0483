package snapshot

import (
	"context"
	"sync"
)

// Hub pools reconcilers by query context so every dashboard request
// for the same (restaurant, date) shares one live snapshot and one
// broker subscription.
type Hub struct {
	mu      sync.Mutex
	fetcher Fetcher
	source  Source
	views   map[Key]*Reconciler
}

// NewHub returns an empty hub.
func NewHub(fetcher Fetcher, source Source) *Hub {
	return &Hub{
		fetcher: fetcher,
		source:  source,
		views:   make(map[Key]*Reconciler),
	}
}

// Acquire returns the reconciler for a context, creating and loading
// it on first use.  An existing reconciler is returned as-is; callers
// wanting fresher data use Refresh explicitly.
func (h *Hub) Acquire(ctx context.Context, key Key) (*Reconciler, error) {
	h.mu.Lock()
	rec, ok := h.views[key]
	if !ok {
		rec = NewReconciler(h.fetcher, h.source)
		h.views[key] = rec
	}
	h.mu.Unlock()
	if !ok {
		if err := rec.Load(ctx, key); err != nil {
			h.Release(key)
			return nil, err
		}
	}
	return rec, nil
}

// Release tears down and forgets the reconciler for a context.  It is
// safe to call for unknown keys.
func (h *Hub) Release(key Key) {
	h.mu.Lock()
	rec, ok := h.views[key]
	delete(h.views, key)
	h.mu.Unlock()
	if ok {
		rec.Teardown()
	}
}

// Close tears down every pooled reconciler; used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	views := h.views
	h.views = make(map[Key]*Reconciler)
	h.mu.Unlock()
	for _, rec := range views {
		rec.Teardown()
	}
}
