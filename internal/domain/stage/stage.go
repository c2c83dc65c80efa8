// Package stage maps assessment stages to reported progress and knows which
// stage ends a session. The choice of the next stage belongs to the caller.
package stage

import "strings"

// Stage is a named phase of the conversational assessment.
type Stage string

const (
	Opening      Stage = "opening"
	Risk         Stage = "risk"
	Goals        Stage = "goals"
	Behavior     Stage = "behavior"
	Values       Stage = "values"
	Confirmation Stage = "confirmation"
	Complete     Stage = "complete"
)

// UnknownProgress is reported for labels outside the stage table.
const UnknownProgress = 0

var progress = map[Stage]int{ //nolint:gochecknoglobals // fixed table
	Opening:      10,
	Risk:         30,
	Goals:        50,
	Behavior:     70,
	Values:       90,
	Confirmation: 95,
	Complete:     100,
}

// Status is what a turn reports back: where the session is and how far along.
type Status struct {
	Stage      Stage `json:"stage"`
	Progress   int   `json:"progress"`
	IsComplete bool  `json:"is_complete"`
}

// Parse resolves a label to a known stage. Labels are matched exactly.
func Parse(label string) (Stage, bool) {
	s := Stage(label)
	_, ok := progress[s]
	return s, ok
}

// Progress maps a stage label to its fixed percentage, 0 when unrecognized.
func Progress(label string) int {
	if p, ok := progress[Stage(label)]; ok {
		return p
	}
	return UnknownProgress
}

// IsComplete reports whether label is the terminal stage.
func IsComplete(label string) bool {
	return Stage(label) == Complete
}

// Evaluate builds the status triple for a proposed stage label.
func Evaluate(label string) Status {
	return Status{
		Stage:      Stage(label),
		Progress:   Progress(label),
		IsComplete: IsComplete(label),
	}
}

// Initial is the status of a freshly created session. Progress starts at 0
// even though the opening stage itself reports 10 once a turn lands on it.
func Initial() Status {
	return Status{Stage: Opening, Progress: 0, IsComplete: false}
}

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }

// Valid reports whether s is in the stage table.
func (s Stage) Valid() bool {
	_, ok := progress[s]
	return ok
}

// Normalize trims and lower-cases a label coming from an external decoder.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
