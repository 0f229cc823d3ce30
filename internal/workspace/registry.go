package workspace

import (
	"sync"
	"time"

	"foozam/internal/logging"
)

const DefaultIdleTTL = 2 * time.Hour

// Registry creates workspaces on first use and forgets idle ones. Persisted
// client state lives in the kv store and survives eviction.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	items     map[string]*Workspace
	lastSweep time.Time
}

func NewRegistry(d Deps, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		deps:    d,
		idleTTL: idleTTL,
		now:     time.Now,
		items:   make(map[string]*Workspace),
	}
}

func (r *Registry) Get(id string) *Workspace {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) > r.idleTTL/4 {
		r.sweepLocked(now)
	}

	w, ok := r.items[id]
	if !ok {
		w = newWorkspace(id, r.deps, now)
		r.items[id] = w
		return w
	}
	w.touch(now)
	return w
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) sweepLocked(now time.Time) {
	r.lastSweep = now
	evicted := 0
	for id, w := range r.items {
		if w.idleSince(now) > r.idleTTL {
			w.Scan.Cancel()
			delete(r.items, id)
			evicted++
		}
	}
	if evicted > 0 {
		logging.Base().WithField("evicted", evicted).Debug("WORKSPACES_SWEPT")
	}
}
