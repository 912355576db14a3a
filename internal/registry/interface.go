package registry

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("presence entry not found")

// Registry mirrors local presence into a shared store so other instances
// can tell which node holds a user's connection.
type Registry interface {
	MarkOnline(ctx context.Context, userID int64) error
	MarkOffline(ctx context.Context, userID int64) error
	Lookup(ctx context.Context, userID int64) (string, error)
	// RunHeartbeat refreshes owned keys until ctx is done.
	RunHeartbeat(ctx context.Context) error
	Close() error
}
