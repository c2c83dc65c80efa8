// Package simulate drives synthetic assessments against a running server and
// checks every result against a local recomputation.
package simulate

import (
	"time"

	"github.com/okian/tracksense/internal/domain/assessment"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Sessions   int           // Number of assessments to run
	Workers    int           // Number of concurrent sessions
	Timeout    time.Duration // HTTP request timeout
	Language   string        // en, zh, or empty to alternate
	TopN       int           // Recommendations the server is configured for
	Seed       uint64        // Seed for the profile generator
	OutputFile string        // Optional JSON dump of the generated scripts
	Verbose    bool          // Log every session
}

// TurnRequest is the wire body of POST /assessments/{id}/turns.
type TurnRequest struct {
	TurnID       string             `json:"turn_id"`
	ScoresUpdate assessment.Partial `json:"scores_update"`
	NextStage    string             `json:"next_stage"`
	Reply        string             `json:"reply,omitempty"`
}

// Script is the full conversation for one synthetic investor.
type Script struct {
	ID       string        `json:"id"`
	Language string        `json:"language"`
	Turns    []TurnRequest `json:"turns"`
}

// Stats holds run statistics.
type Stats struct {
	SessionsStarted   int
	SessionsCompleted int
	TurnsSent         int
	Duplicates        int
	Verified          int
	Mismatches        int
	Failed            int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
