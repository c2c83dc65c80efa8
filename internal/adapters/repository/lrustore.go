package repository

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/tracksense/internal/domain/model"
	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/pkg/metrics"
)

// In-memory Store bounded by an LRU, with idle expiry.
//
// Every write stamps the entry; an entry whose stamp is older than the TTL
// is treated as missing on read and purged by the background sweeper.

const (
	defaultCapacity      = 10000
	defaultTTL           = 2 * time.Hour
	defaultSweepInterval = time.Minute

	evictCapacity = "capacity"
	evictExpired  = "expired"
)

type entry struct {
	session  *model.Session
	storedAt time.Time
}

// LRUStore implements Store on top of hashicorp/golang-lru.
type LRUStore struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *entry]

	capacity      int
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewLRUStore constructs a session store and starts its sweeper, which runs
// until ctx is done or Close is called.
func NewLRUStore(ctx context.Context, opts ...Option) *LRUStore {
	s := &LRUStore{
		capacity:      defaultCapacity,
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	// lru.New only fails for a non-positive size.
	s.sessions, _ = lru.New[string, *entry](s.capacity)

	s.stopChan = make(chan struct{})
	s.startSweeper(ctx)

	return s
}

func (s *LRUStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Close stops the sweeper. Stored sessions stay readable.
func (s *LRUStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Sweep removes every expired session and returns how many were removed.
func (s *LRUStore) Sweep() int {
	start := time.Now()
	defer observe("sweep", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, id := range s.sessions.Keys() {
		e, ok := s.sessions.Peek(id)
		if ok && s.expired(e, now) {
			s.sessions.Remove(id)
			metrics.RecordSessionEvicted(evictExpired)
			removed++
		}
	}
	metrics.UpdateSessionsActive(s.sessions.Len())
	return removed
}

// Create implements Store.Create.
func (s *LRUStore) Create(_ context.Context, sess *model.Session) error {
	start := time.Now()
	defer observe("create", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(sess.ID); ok {
		return ErrExists
	}
	if evicted := s.sessions.Add(sess.ID, &entry{session: sess.Clone(), storedAt: s.now()}); evicted {
		metrics.RecordSessionEvicted(evictCapacity)
	}
	metrics.UpdateSessionsActive(s.sessions.Len())
	return nil
}

// Get implements Store.Get.
func (s *LRUStore) Get(_ context.Context, id string) (*model.Session, error) {
	start := time.Now()
	defer observe("get", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.session.Clone(), nil
}

// Update implements Store.Update. fn runs on a copy under the store lock;
// the copy replaces the stored session only when fn succeeds.
func (s *LRUStore) Update(_ context.Context, id string, fn MutateFunc) (*model.Session, error) {
	start := time.Now()
	defer observe("update", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}

	work := e.session.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	e.session = work
	e.storedAt = s.now()
	return work.Clone(), nil
}

// SetResult implements Store.SetResult.
func (s *LRUStore) SetResult(_ context.Context, id string, r *scoring.Result) (*scoring.Result, error) {
	start := time.Now()
	defer observe("set_result", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	if e.session.Result != nil {
		return e.session.Result, nil
	}

	work := e.session.Clone()
	work.Result = r
	e.session = work
	e.storedAt = s.now()
	return r, nil
}

// Count implements Store.Count. Expired sessions not yet swept are counted.
func (s *LRUStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// live returns the entry for id, dropping it when expired.
// Must be called with s.mu held.
func (s *LRUStore) live(id string) (*entry, bool) {
	e, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	if s.expired(e, s.now()) {
		s.sessions.Remove(id)
		metrics.RecordSessionEvicted(evictExpired)
		metrics.UpdateSessionsActive(s.sessions.Len())
		return nil, false
	}
	return e, true
}

func (s *LRUStore) expired(e *entry, now time.Time) bool {
	return now.Sub(e.storedAt) > s.ttl
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOperation(op, float64(time.Since(start).Microseconds())/1000)
}
