// Package assessment holds the survey score state and the accumulator that
// folds per-turn updates into it.
package assessment

// Score bounds and neutral defaults.
const (
	MinScore          = 0
	MaxScore          = 100
	NeutralScore      = 50
	MinConfidence     = 0
	MaxConfidence     = 1
	MinSDG            = 1
	MaxSDG            = 17
	DefaultConfidence = 0
)

// GoalType classifies the user's primary investment objective.
type GoalType string

const (
	GoalGrowth       GoalType = "growth"
	GoalIncome       GoalType = "income"
	GoalPreservation GoalType = "preservation"
	GoalImpact       GoalType = "impact"
)

// Valid reports whether g is one of the known goal types.
func (g GoalType) Valid() bool {
	switch g {
	case GoalGrowth, GoalIncome, GoalPreservation, GoalImpact:
		return true
	}
	return false
}

// BiasType names a behavioral-finance tendency.
type BiasType string

const (
	BiasLossAversion   BiasType = "loss_aversion"
	BiasOverconfidence BiasType = "overconfidence"
	BiasHerding        BiasType = "herding"
	BiasAnchoring      BiasType = "anchoring"
	BiasConfirmation   BiasType = "confirmation"
	BiasRecency        BiasType = "recency"
)

// Valid reports whether b is one of the known bias types.
func (b BiasType) Valid() bool {
	switch b {
	case BiasLossAversion, BiasOverconfidence, BiasHerding, BiasAnchoring, BiasConfirmation, BiasRecency:
		return true
	}
	return false
}

// Strength grades how pronounced a detected bias is.
type Strength string

const (
	StrengthLow    Strength = "low"
	StrengthMedium Strength = "medium"
	StrengthHigh   Strength = "high"
)

// Valid reports whether s is a known strength label.
func (s Strength) Valid() bool {
	switch s {
	case StrengthLow, StrengthMedium, StrengthHigh:
		return true
	}
	return false
}

// Bias is a detected tendency with the evidence that supports it.
type Bias struct {
	Type     BiasType `json:"type" yaml:"type"`
	Strength Strength `json:"strength" yaml:"strength"`
	Evidence string   `json:"evidence" yaml:"evidence"`
}

// Dimension is a 0..100 reading with a 0..1 confidence.
type Dimension struct {
	Raw        float64 `json:"raw" yaml:"raw"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ESG holds the user's environmental, social and governance emphasis.
type ESG struct {
	Environmental float64 `json:"environmental" yaml:"environmental"`
	Social        float64 `json:"social" yaml:"social"`
	Governance    float64 `json:"governance" yaml:"governance"`
}

// ScoreState is the complete, cumulative survey state of a session.
type ScoreState struct {
	Risk          Dimension `json:"risk" yaml:"risk"`
	TimeHorizon   Dimension `json:"timeHorizon" yaml:"timeHorizon"`
	GoalType      GoalType  `json:"goalType" yaml:"goalType"`
	ESG           ESG       `json:"esg" yaml:"esg"`
	SDGPriorities []int     `json:"sdgPriorities" yaml:"sdgPriorities"`
	Biases        []Bias    `json:"biases" yaml:"biases"`
}

// ESGUpdate carries per-dimension ESG values; nil means "not reported".
type ESGUpdate struct {
	Environmental *float64 `json:"environmental,omitempty" yaml:"environmental,omitempty"`
	Social        *float64 `json:"social,omitempty" yaml:"social,omitempty"`
	Governance    *float64 `json:"governance,omitempty" yaml:"governance,omitempty"`
}

// Partial is a ScoreState with every field optional. A nil slice means the
// field is absent; a non-nil empty slice is a present, empty value. The list
// fields always encode to JSON so an empty list survives the wire as [].
type Partial struct {
	Risk          *Dimension `json:"risk,omitempty" yaml:"risk,omitempty"`
	TimeHorizon   *Dimension `json:"timeHorizon,omitempty" yaml:"timeHorizon,omitempty"`
	GoalType      *GoalType  `json:"goalType,omitempty" yaml:"goalType,omitempty"`
	ESG           *ESGUpdate `json:"esg,omitempty" yaml:"esg,omitempty"`
	SDGPriorities []int      `json:"sdgPriorities" yaml:"sdgPriorities,omitempty"`
	Biases        []Bias     `json:"biases" yaml:"biases,omitempty"`
}

// Defaults returns the neutral state a session starts from.
func Defaults() ScoreState {
	return ScoreState{
		Risk:        Dimension{Raw: NeutralScore, Confidence: DefaultConfidence},
		TimeHorizon: Dimension{Raw: NeutralScore, Confidence: DefaultConfidence},
		GoalType:    GoalGrowth,
		ESG: ESG{
			Environmental: NeutralScore,
			Social:        NeutralScore,
			Governance:    NeutralScore,
		},
		SDGPriorities: []int{},
		Biases:        []Bias{},
	}
}

// Partial lifts a complete state into a fully specified Partial.
func (s ScoreState) Partial() Partial {
	risk := s.Risk
	horizon := s.TimeHorizon
	goal := s.GoalType
	e, so, g := s.ESG.Environmental, s.ESG.Social, s.ESG.Governance
	sdgs := make([]int, len(s.SDGPriorities))
	copy(sdgs, s.SDGPriorities)
	biases := make([]Bias, len(s.Biases))
	copy(biases, s.Biases)
	return Partial{
		Risk:          &risk,
		TimeHorizon:   &horizon,
		GoalType:      &goal,
		ESG:           &ESGUpdate{Environmental: &e, Social: &so, Governance: &g},
		SDGPriorities: sdgs,
		Biases:        biases,
	}
}

// BiasTypes returns the bias types in the order they were reported.
func (s ScoreState) BiasTypes() []BiasType {
	out := make([]BiasType, 0, len(s.Biases))
	for _, b := range s.Biases {
		out = append(out, b.Type)
	}
	return out
}
