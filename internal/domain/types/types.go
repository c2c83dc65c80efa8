// Package types contains the response shapes shared by the service and the
// HTTP layer.
package types

import (
	"time"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/model"
	"github.com/okian/tracksense/internal/domain/stage"
)

// Started is returned when a new assessment begins.
type Started struct {
	SessionID string      `json:"session_id"`
	Question  string      `json:"question"`
	Stage     stage.Stage `json:"stage"`
	Progress  int         `json:"progress"`
	Language  i18n.Lang   `json:"language"`
}

// TurnOutcome is the status reported after a turn.
type TurnOutcome struct {
	Stage             stage.Stage `json:"stage"`
	Progress          int         `json:"progress"`
	IsComplete        bool        `json:"is_complete"`
	ConversationCount int         `json:"conversation_count"`
	Duplicate         bool        `json:"duplicate"`
	Reply             string      `json:"reply,omitempty"`
}

// SessionSnapshot is a read-only view of a session.
type SessionSnapshot struct {
	SessionID         string                `json:"session_id"`
	Language          i18n.Lang             `json:"language"`
	Stage             stage.Stage           `json:"stage"`
	Progress          int                   `json:"progress"`
	IsComplete        bool                  `json:"is_complete"`
	ConversationCount int                   `json:"conversation_count"`
	Scores            assessment.ScoreState `json:"scores"`
	HasResult         bool                  `json:"has_result"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
}

// Outcome builds the turn status for a session.
func Outcome(s *model.Session, duplicate bool, reply string) TurnOutcome {
	return TurnOutcome{
		Stage:             s.Stage,
		Progress:          s.Progress,
		IsComplete:        s.IsComplete(),
		ConversationCount: s.ConversationCount,
		Duplicate:         duplicate,
		Reply:             reply,
	}
}

// Snapshot builds the read-only view of a session.
func Snapshot(s *model.Session) SessionSnapshot {
	return SessionSnapshot{
		SessionID:         s.ID,
		Language:          s.Language,
		Stage:             s.Stage,
		Progress:          s.Progress,
		IsComplete:        s.IsComplete(),
		ConversationCount: s.ConversationCount,
		Scores:            s.Scores,
		HasResult:         s.Result != nil,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		CompletedAt:       s.CompletedAt,
	}
}
