// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	jobqueue "github.com/okian/tracksense/internal/adapters/mq/queue"
	workerpool "github.com/okian/tracksense/internal/adapters/mq/worker"
	"github.com/okian/tracksense/internal/adapters/repository"
	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/dedupe"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/model"
	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/internal/domain/stage"
	"github.com/okian/tracksense/internal/domain/types"
	"github.com/okian/tracksense/pkg/logger"
	"github.com/okian/tracksense/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize       = 1024
	defaultDedupeSize      = 50000
	defaultSessionCapacity = 10000
	defaultSessionTTL      = 2 * time.Hour
	defaultSweepInterval   = time.Minute
)

// Service implements the API dependencies for the assessment system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions repository.Store
	deduper  dedupe.Deduper
	jobs     jobqueue.Queue
	pool     *workerpool.Pool
	catalog  *catalog.Catalog
	results  singleflight.Group

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	sessionCapacity int
	sessionTTL      time.Duration
	sweepInterval   time.Duration
	topN            int
	defaultLang     i18n.Lang

	now   func() time.Time
	newID func() string

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		sessionCapacity: defaultSessionCapacity,
		sessionTTL:      defaultSessionTTL,
		sweepInterval:   defaultSweepInterval,
		topN:            scoring.DefaultTopN,
		defaultLang:     i18n.DefaultLang,
		now:             time.Now,
		newID:           uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting assessment service...")

	if s.catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return fmt.Errorf("load default catalog: %w", err)
		}
		s.catalog = c
	}
	metrics.UpdateCatalogTracks(s.catalog.Len())

	s.sessions = repository.NewLRUStore(ctx,
		repository.WithCapacity(s.sessionCapacity),
		repository.WithTTL(s.sessionTTL),
		repository.WithSweepInterval(s.sweepInterval),
		repository.WithClock(s.now),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("sessionCapacity", s.sessionCapacity),
		logger.Duration("sessionTTL", s.sessionTTL),
		logger.Int("tracks", s.catalog.Len()),
	)

	return nil
}

// Stop drains pending finalize jobs and stops background goroutines.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping assessment service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.sessions.Close()

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// StartAssessment opens a new session. lang may be a language code or an
// Accept-Language value; unsupported values select the configured default.
func (s *Service) StartAssessment(ctx context.Context, lang string) (types.Started, error) {
	if err := s.ready(); err != nil {
		return types.Started{}, err
	}

	l := i18n.Negotiate(lang, s.defaultLang)
	sess := model.NewSession(s.newID(), l, s.now())
	if err := s.sessions.Create(ctx, sess); err != nil {
		return types.Started{}, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionStarted()

	s.logger.Debug(ctx, "session started",
		logger.String("session_id", sess.ID),
		logger.String("language", l.String()),
	)

	return types.Started{
		SessionID: sess.ID,
		Question:  i18n.OpeningQuestion(l),
		Stage:     sess.Stage,
		Progress:  sess.Progress,
		Language:  l,
	}, nil
}

// ApplyTurn merges a decoded turn into the session and advances it to the
// proposed stage. A repeated TurnID returns the current status marked as a
// duplicate without applying anything.
func (s *Service) ApplyTurn(ctx context.Context, id string, turn model.Turn) (types.TurnOutcome, error) {
	if err := s.ready(); err != nil {
		return types.TurnOutcome{}, err
	}

	next, ok := stage.Parse(stage.Normalize(turn.NextStage))
	if !ok {
		metrics.RecordTurnRejected("invalid_stage")
		return types.TurnOutcome{}, fmt.Errorf("%w: %q", ErrInvalidStage, turn.NextStage)
	}

	var dedupeKey string
	if turn.TurnID != "" {
		dedupeKey = dedupe.Key(id, turn.TurnID)
		if s.deduper.SeenAndRecord(ctx, dedupeKey) {
			return s.duplicate(ctx, id, turn)
		}
		metrics.UpdateDedupeEntries(s.deduper.Size())
	}

	sess, err := s.sessions.Update(ctx, id, func(sess *model.Session) error {
		if sess.IsComplete() {
			return ErrSessionComplete
		}
		now := s.now()
		st := stage.Evaluate(next.String())

		sess.Scores = assessment.Merge(sess.Scores.Partial(), turn.Update)
		sess.ConversationCount++
		sess.Stage = st.Stage
		sess.Progress = st.Progress
		sess.UpdatedAt = now
		if st.IsComplete {
			sess.CompletedAt = &now
		}
		return nil
	})
	if err != nil {
		if dedupeKey != "" {
			s.deduper.Unrecord(ctx, dedupeKey)
		}
		metrics.RecordTurnRejected(rejectReason(err))
		return types.TurnOutcome{}, err
	}

	metrics.RecordTurnProcessed(sess.Stage.String())
	if sess.IsComplete() {
		metrics.RecordSessionCompleted()
		s.enqueueFinalize(ctx, sess.ID)
	}

	return types.Outcome(sess, false, turn.Reply), nil
}

func (s *Service) duplicate(ctx context.Context, id string, turn model.Turn) (types.TurnOutcome, error) {
	metrics.RecordTurnDuplicate()
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return types.TurnOutcome{}, err
	}
	s.logger.Debug(ctx, "duplicate turn ignored",
		logger.String("session_id", id),
		logger.String("turn_id", turn.TurnID),
	)
	return types.Outcome(sess, true, turn.Reply), nil
}

func (s *Service) enqueueFinalize(ctx context.Context, id string) {
	err := s.jobs.Enqueue(ctx, model.FinalizeJob{SessionID: id, EnqueuedAt: s.now()})
	if err != nil {
		// The result is still computed on first read.
		s.logger.Warn(ctx, "finalize job not queued",
			logger.String("session_id", id),
			logger.Error(err),
		)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSessionComplete):
		return "complete"
	default:
		return "error"
	}
}

// Session returns a snapshot of the session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionSnapshot, error) {
	if err := s.ready(); err != nil {
		return types.SessionSnapshot{}, err
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return types.SessionSnapshot{}, err
	}
	return types.Snapshot(sess), nil
}

// Result returns the session's final result, computing and storing it on
// first request. Concurrent first requests share one computation.
func (s *Service) Result(ctx context.Context, id string) (*scoring.Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.result(ctx, id)
}

// Finalize precomputes the result of a completed session. It implements
// worker.Finalizer.
func (s *Service) Finalize(ctx context.Context, sessionID string) error {
	_, err := s.result(ctx, sessionID)
	return err
}

func (s *Service) result(ctx context.Context, id string) (*scoring.Result, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Result != nil {
		metrics.RecordResultCacheHit()
		return sess.Result, nil
	}
	if !sess.IsComplete() {
		return nil, ErrNotComplete
	}

	v, err, _ := s.results.Do(id, func() (any, error) {
		return s.compute(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return v.(*scoring.Result), nil
}

func (s *Service) compute(ctx context.Context, sess *model.Session) (*scoring.Result, error) {
	start := time.Now()
	m := scoring.NewMatcher(scoring.WithLanguage(sess.Language), scoring.WithTopN(s.topN))
	res := m.BuildResult(sess.Scores, s.catalog.Tracks(), s.now())

	scores := make([]int, 0, len(res.RecommendedTracks))
	for _, t := range res.RecommendedTracks {
		scores = append(scores, t.MatchScore)
	}
	metrics.RecordRecommendations(float64(time.Since(start).Microseconds())/1000, scores...)

	stored, err := s.sessions.SetResult(ctx, sess.ID, &res)
	if err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	s.logger.Debug(ctx, "result computed",
		logger.String("session_id", sess.ID),
		logger.Int("tracks", len(stored.RecommendedTracks)),
	)
	return stored, nil
}

// Tracks returns the catalog in its configured order.
func (s *Service) Tracks(_ context.Context) ([]catalog.Track, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Tracks(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"sessionCapacity": s.sessionCapacity,
		"sessionTTL":      s.sessionTTL.String(),
		"topN":            s.topN,
		"defaultLanguage": s.defaultLang.String(),
	}

	if s.started {
		queueLen := s.jobs.Len(ctx)
		active := s.sessions.Count(ctx)
		entries := s.deduper.Size()

		stats["queueLength"] = queueLen
		stats["activeSessions"] = active
		stats["dedupeEntries"] = entries
		stats["finalized"] = s.pool.Processed()
		stats["catalogTracks"] = s.catalog.Len()

		metrics.UpdateSessionsActive(active)
		metrics.UpdateDedupeEntries(entries)
	}

	return stats
}
