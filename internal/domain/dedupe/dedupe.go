// Package dedupe tracks turn ids so client retries are applied at most once.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 50000

// Deduper records seen turn keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key so the turn can be retried. Used when a turn was
	// marked as seen but could not be applied.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper keeps the most recently recorded keys in an LRU. Once full,
// the oldest key is evicted and a retry of that turn would be applied again.
type inMemoryDeduper struct {
	maxSize int
	seen    *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize <= 0 {
		d.maxSize = defaultMaxSize
	}

	// lru.New only fails for a non-positive size.
	d.seen, _ = lru.New[string, struct{}](d.maxSize)

	return d
}

// Key scopes a client-supplied turn id to its session.
func Key(sessionID, turnID string) string {
	return sessionID + "/" + turnID
}

// SeenAndRecord atomically checks if key was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	seen, _ := d.seen.ContainsOrAdd(key, struct{}{})
	return seen
}

// Unrecord removes a key from the seen set.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.seen.Remove(key)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return int64(d.seen.Len())
}
