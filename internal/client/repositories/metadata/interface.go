// Package metadata is the raw key/value layer of the client's local state
// cache. Typed stores in internal/client/state sit on top of it.
package metadata

import (
	"context"
)

// Repository persists opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	// SetIfAbsent stores value only when key is not present yet and reports
	// whether it did.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// CompareAndDelete removes key only while it still holds value and
	// reports whether this call removed it. Exactly one of several racing
	// callers wins.
	CompareAndDelete(ctx context.Context, key string, value []byte) (bool, error)
}
