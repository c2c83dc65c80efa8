package repository

import "time"

// Option applies a configuration option to the LRUStore.
type Option func(*LRUStore)

// WithCapacity bounds the number of sessions kept. The least recently used
// session is evicted when the bound is reached.
func WithCapacity(n int) Option {
	return func(s *LRUStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithTTL sets how long a session may go without a write before it expires.
func WithTTL(ttl time.Duration) Option {
	return func(s *LRUStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired sessions are purged in the
// background.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *LRUStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LRUStore) {
		if now != nil {
			s.now = now
		}
	}
}
