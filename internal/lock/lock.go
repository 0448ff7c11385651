// Package lock provides expiring, exclusive per-key claims.
//
// A lock is acquired with a single create-if-absent-with-TTL operation, so two
// concurrent acquires of the same unexpired key cannot both succeed. Expiry
// bounds how long a crashed holder can block others.
package lock

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_locker.go -package=mocks -source=lock.go Locker

// Locker acquires and releases expiring exclusive locks
type Locker interface {
	// Acquire claims key for ttl. It returns the holder token and true on
	// success, or false when another unexpired holder exists.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// Release frees key if it is still held under token. Releasing a lock that
	// expired or was taken over is not an error; the boolean reports whether
	// this call removed it.
	Release(ctx context.Context, key, token string) (bool, error)

	// ForceRelease frees key regardless of the holder
	ForceRelease(ctx context.Context, key string) error
}

// ItemKey returns the lock key guarding the sync of a content item
func ItemKey(itemID string) string {
	return "content_sync_lock_" + itemID
}
