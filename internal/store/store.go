package store

import "context"

// Store is a persistent string key/value space: the client's equivalent of
// browser local storage. Keys are independent; there is no structured envelope.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes all given keys in one atomic operation. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Keys lists stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
