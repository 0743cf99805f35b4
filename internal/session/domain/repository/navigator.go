package repository

import "context"

// Navigator sends a tab to another path outside of a guarded navigation,
// e.g. back to the root after the session was cleared.
type Navigator interface {
	Navigate(ctx context.Context, tabID, path string)
}
