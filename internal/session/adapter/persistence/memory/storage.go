package memory

import (
	"context"
	"sync"
	"time"

	"melodiapp-web/internal/session/domain/model"
)

type item struct {
	value     string
	expiresAt time.Time
}

// Storage is an in-process TabStorage. Items expire ttl after their tab was
// last written or read, mirroring the sliding expiry of the redis driver.
type Storage struct {
	mu   sync.RWMutex
	tabs map[string]map[string]item
	ttl  time.Duration
	now  func() time.Time
}

// NewStorage creates an empty storage. A ttl of zero disables expiry.
func NewStorage(ttl time.Duration) *Storage {
	return &Storage{
		tabs: make(map[string]map[string]item),
		ttl:  ttl,
		now:  time.Now,
	}
}

// GetItem returns the value stored for key in tab.
func (s *Storage) GetItem(ctx context.Context, tabID, key string) (string, bool, error) {
	if tabID == "" {
		return "", false, model.ErrTabIDRequired
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.tabs[tabID]
	if !ok {
		return "", false, nil
	}
	it, ok := items[key]
	if !ok {
		return "", false, nil
	}
	now := s.now()
	if s.expired(it, now) {
		delete(items, key)
		if len(items) == 0 {
			delete(s.tabs, tabID)
		}
		return "", false, nil
	}
	s.touchLocked(items, now)
	return it.value, true, nil
}

// SetItem stores value under key in tab.
func (s *Storage) SetItem(ctx context.Context, tabID, key, value string) error {
	if tabID == "" {
		return model.ErrTabIDRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.tabs[tabID]
	if !ok {
		items = make(map[string]item)
		s.tabs[tabID] = items
	}
	items[key] = item{value: value}
	s.touchLocked(items, s.now())
	return nil
}

// RemoveItem deletes key from tab.
func (s *Storage) RemoveItem(ctx context.Context, tabID, key string) error {
	if tabID == "" {
		return model.ErrTabIDRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if items, ok := s.tabs[tabID]; ok {
		delete(items, key)
		if len(items) == 0 {
			delete(s.tabs, tabID)
		}
	}
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Sweep drops expired items and returns how many were removed.
func (s *Storage) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for tabID, items := range s.tabs {
		for key, it := range items {
			if s.expired(it, now) {
				delete(items, key)
				removed++
			}
		}
		if len(items) == 0 {
			delete(s.tabs, tabID)
		}
	}
	return removed
}

// Len returns the number of tabs holding at least one item.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tabs)
}

func (s *Storage) expired(it item, now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

// touchLocked slides the expiry of every item in the tab.
func (s *Storage) touchLocked(items map[string]item, now time.Time) {
	if s.ttl <= 0 {
		return
	}
	expiresAt := now.Add(s.ttl)
	for key, it := range items {
		it.expiresAt = expiresAt
		items[key] = it
	}
}
