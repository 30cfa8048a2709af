// Package kv provides the flat string-keyed on-device store the local
// persistence layer is built on. Values are opaque serialized text; the
// format of individual blobs is owned by the callers.
package kv

import "context"

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent;
	// absence is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
