package repository

import "context"

// TabStorage is the tab-scoped key/value storage the session store persists to.
// Every key lives inside one tab's namespace; tabs never see each other's items.
type TabStorage interface {
	// GetItem returns the value and true, or "" and false when the key is absent.
	GetItem(ctx context.Context, tabID, key string) (string, bool, error)
	SetItem(ctx context.Context, tabID, key, value string) error
	// RemoveItem deletes the key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, tabID, key string) error
	Ping(ctx context.Context) error
}
