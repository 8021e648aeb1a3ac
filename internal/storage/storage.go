// Package storage defines the local persistence substrate mirrored by the
// in-memory stores. Implementations keep small keyed blobs across restarts
// and push a notification when another process changes a key.
package storage

import "context"

// Keys used by the session and cart stores.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyCart  = "cart"
)

// Event describes an externally observed change to a key.
type Event struct {
	Key     string
	Removed bool
}

// Store persists keyed blobs. Implementations may keep data in files,
// Redis, or any other durable system.
type Store interface {
	// Get retrieves the blob for the given key. It returns the data, a
	// boolean indicating whether the key was found, and an error if the
	// lookup itself failed. A missing or unreadable key is (nil, false, nil).
	Get(key string) ([]byte, bool, error)

	// Set stores the blob under the given key, overwriting any previous
	// value.
	Set(key string, data []byte) error

	// Delete removes the key. Deleting an absent key is a no-op.
	Delete(key string) error

	// Watch delivers changes made by other processes until ctx is done or
	// the returned stop function is called. Changes made through this
	// Store value are not reported.
	Watch(ctx context.Context) (<-chan Event, func(), error)
}
