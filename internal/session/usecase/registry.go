package usecase

import (
	"context"
	"sync"
	"time"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/logger"

	"go.uber.org/zap"
)

type registryEntry struct {
	store    *SessionStore
	lastSeen time.Time
	// refs counts holders from Acquire; held entries are never swept.
	refs int
}

// Registry hands out the SessionStore of each tab. A tab's store is created
// and initialized from tab storage on first use, so a tab whose store was
// swept or lost in a restart gets its session back on its next request.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*registryEntry
	deps   StoreDeps
	logger logger.Logger
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(deps StoreDeps) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	return &Registry{
		stores: make(map[string]*registryEntry),
		deps:   deps,
		logger: deps.Logger.WithComponent("session_registry"),
		now:    time.Now,
	}, nil
}

// ForTab returns the initialized store of tabID.
func (r *Registry) ForTab(ctx context.Context, tabID string) (*SessionStore, error) {
	store, release, err := r.Acquire(ctx, tabID)
	if err != nil {
		return nil, err
	}
	release()
	return store, nil
}

// Acquire returns the initialized store of tabID and keeps it from being
// swept until release is called. release is safe to call more than once.
func (r *Registry) Acquire(ctx context.Context, tabID string) (*SessionStore, func(), error) {
	if tabID == "" {
		return nil, nil, model.ErrTabIDRequired
	}

	r.mu.Lock()
	entry, ok := r.stores[tabID]
	if !ok {
		store, err := NewSessionStore(tabID, r.deps)
		if err != nil {
			r.mu.Unlock()
			return nil, nil, err
		}
		entry = &registryEntry{store: store}
		r.stores[tabID] = entry
		r.logger.Debug("Session store created", zap.String("tabID", tabID))
	}
	entry.lastSeen = r.now()
	entry.refs++
	store := entry.store
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			entry.refs--
			entry.lastSeen = r.now()
		})
	}

	if err := store.ensureInitialized(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return store, release, nil
}

// Forget drops the in-memory store of tabID. The persisted token is kept.
func (r *Registry) Forget(tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, tabID)
}

// Len returns the number of tab stores held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep forgets stores not used for longer than idle and returns how many
// were dropped. Stores still held through Acquire are kept.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for tabID, entry := range r.stores {
		if entry.refs == 0 && entry.lastSeen.Before(cutoff) {
			delete(r.stores, tabID)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle stores every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Debug("Idle session stores swept", zap.Int("count", n))
			}
		}
	}
}
