// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/internal/domain/stage"
)

// Session is one user's assessment conversation.
type Session struct {
	ID                string
	Language          i18n.Lang
	Stage             stage.Stage
	Progress          int
	ConversationCount int
	Scores            assessment.ScoreState
	Result            *scoring.Result // write-once
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// NewSession returns a session at the opening stage with neutral scores.
func NewSession(id string, lang i18n.Lang, now time.Time) *Session {
	st := stage.Initial()
	return &Session{
		ID:        id,
		Language:  lang,
		Stage:     st.Stage,
		Progress:  st.Progress,
		Scores:    assessment.Defaults(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsComplete reports whether the session reached the terminal stage.
func (s *Session) IsComplete() bool {
	return s.Stage == stage.Complete
}

// Status returns the stage triple last reported for the session.
func (s *Session) Status() stage.Status {
	return stage.Status{Stage: s.Stage, Progress: s.Progress, IsComplete: s.IsComplete()}
}

// Clone deep-copies the session so callers outside the store cannot mutate
// stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Scores = assessment.Merge(s.Scores.Partial(), assessment.Partial{})
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	// Result is immutable once set and may be shared.
	return &out
}

// Turn is one already-decoded conversational step.
type Turn struct {
	TurnID    string             // optional client idempotency key
	Update    assessment.Partial // score deltas proposed for this turn
	NextStage string             // proposed stage label
	Reply     string             // next question shown to the user, echoed back
}

// FinalizeJob asks the worker pool to precompute a completed session's result.
type FinalizeJob struct {
	SessionID  string
	EnqueuedAt time.Time
}
