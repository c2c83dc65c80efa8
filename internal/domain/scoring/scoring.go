// Package scoring ranks catalog tracks against an accumulated score state
// and explains each pick with a short, deterministic reason.
package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/i18n"
)

// Default matcher configuration.
const (
	DefaultTopN = 3

	reasonLimit        = 2
	reasonRiskFloor    = 80
	reasonTimeFloor    = 80
	reasonSDGFloor     = 60
	neutralSDGMatch    = 50
	maxScoreValue      = 100
	productScaleFactor = 100
)

// Weights are the sub-score coefficients of the combined match score.
type Weights struct {
	Risk float64
	Time float64
	ESG  float64
	SDG  float64
}

// DefaultWeights sum to 1.
var DefaultWeights = Weights{Risk: 0.30, Time: 0.20, ESG: 0.30, SDG: 0.20} //nolint:gochecknoglobals // fixed weights

// fallbackESGWeights apply when the user's ESG scores sum to zero.
var fallbackESGWeights = [3]float64{0.33, 0.33, 0.34} //nolint:gochecknoglobals // fixed weights

// Breakdown holds the four unweighted sub-scores of a track.
type Breakdown struct {
	Risk float64 `json:"risk"`
	Time float64 `json:"time"`
	ESG  float64 `json:"esg"`
	SDG  float64 `json:"sdg"`
}

// Recommendation is one ranked track.
type Recommendation struct {
	Track      catalog.Track `json:"track"`
	MatchScore int           `json:"matchScore"`
	Score      float64       `json:"score"`
	Breakdown  Breakdown     `json:"breakdown"`
	Reason     string        `json:"reason"`
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithLanguage selects the phrasebook used for reasons and profiles.
func WithLanguage(l i18n.Lang) Option {
	return func(m *Matcher) {
		if l.Valid() {
			m.phrases = i18n.For(l)
		}
	}
}

// WithTopN sets how many tracks Rank returns. Non-positive values are kept
// and yield empty rankings.
func WithTopN(n int) Option {
	return func(m *Matcher) {
		m.topN = n
	}
}

// Matcher scores tracks with fixed weights. It holds no mutable state and is
// safe for concurrent use.
type Matcher struct {
	weights Weights
	topN    int
	phrases *i18n.Phrasebook
}

// NewMatcher creates a matcher with configuration options.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		weights: DefaultWeights,
		topN:    DefaultTopN,
		phrases: i18n.For(i18n.DefaultLang),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Recommend ranks tracks with English reasons.
func Recommend(scores assessment.ScoreState, tracks []catalog.Track, topN int) []Recommendation {
	return NewMatcher(WithTopN(topN)).Rank(scores, tracks)
}

// Language returns the phrasebook language in use.
func (m *Matcher) Language() i18n.Lang {
	return m.phrases.Lang
}

// TopN returns the configured result bound.
func (m *Matcher) TopN() int {
	return m.topN
}

// Rank scores every track and returns at most TopN of them, ordered by the
// unrounded combined score. Equal scores keep catalog order.
func (m *Matcher) Rank(scores assessment.ScoreState, tracks []catalog.Track) []Recommendation {
	if m.topN <= 0 || len(tracks) == 0 {
		return []Recommendation{}
	}

	all := make([]Recommendation, 0, len(tracks))
	for _, t := range tracks {
		all = append(all, m.Evaluate(scores, t))
	}

	slices.SortStableFunc(all, func(a, b Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(all) > m.topN {
		all = all[:m.topN]
	}
	return all
}

// Evaluate scores a single track.
func (m *Matcher) Evaluate(scores assessment.ScoreState, t catalog.Track) Recommendation {
	b := Breakdown{
		Risk: RiskMatch(scores.Risk.Raw, t.RiskLevel),
		Time: TimeMatch(scores.TimeHorizon.Raw, t.TimeHorizon),
		ESG:  ESGAlignment(scores.ESG, t.ESGProfile),
		SDG:  SDGOverlap(scores.SDGPriorities, t.SDGs),
	}
	combined := m.weights.Risk*b.Risk + m.weights.Time*b.Time + m.weights.ESG*b.ESG + m.weights.SDG*b.SDG

	return Recommendation{
		Track:      t,
		MatchScore: int(math.Round(combined)),
		Score:      combined,
		Breakdown:  b,
		Reason:     m.Reason(scores, t, b),
	}
}

// RiskMatch is 100 minus the distance between the user's risk score and the
// track's risk level.
func RiskMatch(user, track float64) float64 {
	return maxScoreValue - math.Abs(track-user)
}

// TimeMatch is 100 minus the distance between the user's horizon and the
// track's horizon.
func TimeMatch(user, track float64) float64 {
	return maxScoreValue - math.Abs(track-user)
}

// ESGAlignment weights each user/track product by the user's share of that
// dimension. The result grows with both operands; it is not a similarity in
// 0..100.
func ESGAlignment(user assessment.ESG, track catalog.ESGProfile) float64 {
	w := fallbackESGWeights
	if total := user.Environmental + user.Social + user.Governance; total > 0 {
		w = [3]float64{user.Environmental / total, user.Social / total, user.Governance / total}
	}

	return w[0]*(user.Environmental*track.E)/productScaleFactor +
		w[1]*(user.Social*track.S)/productScaleFactor +
		w[2]*(user.Governance*track.G)/productScaleFactor
}

// SDGOverlap is the share of possible SDG matches that actually match. No
// user priorities yields the neutral 50; a track without SDGs yields 0.
func SDGOverlap(user, track []int) float64 {
	if len(user) == 0 {
		return neutralSDGMatch
	}
	maxPossible := min(len(user), len(track))
	if maxPossible == 0 {
		return 0
	}
	return float64(countCommon(user, track)) / float64(maxPossible) * maxScoreValue
}

func countCommon(user, track []int) int {
	n := 0
	for _, id := range user {
		if slices.Contains(track, id) {
			n++
		}
	}
	return n
}

// Dominant returns "E", "S" or "G" for the largest of the three values.
// Ties resolve to E, then S.
func Dominant(e, s, g float64) string {
	switch {
	case e >= s && e >= g:
		return "E"
	case s >= g:
		return "S"
	default:
		return "G"
	}
}

// RiskBand names the risk appetite for a raw risk score.
func RiskBand(raw float64) string {
	switch {
	case raw > 75:
		return "aggressive"
	case raw > 50:
		return "balanced"
	case raw > 25:
		return "conservative-leaning"
	default:
		return "conservative"
	}
}

// HorizonBand names the investment horizon for a raw time score.
func HorizonBand(raw float64) string {
	switch {
	case raw > 67:
		return "long"
	case raw > 34:
		return "medium"
	default:
		return "short"
	}
}

// Reason explains a track pick. Candidates are considered in the order risk,
// horizon, ESG, SDG and at most two are joined.
func (m *Matcher) Reason(scores assessment.ScoreState, t catalog.Track, b Breakdown) string {
	pb := m.phrases
	reasons := make([]string, 0, reasonLimit)

	if b.Risk > reasonRiskFloor {
		reasons = append(reasons, fmt.Sprintf(pb.RiskFit, pb.RiskStyles[RiskBand(scores.Risk.Raw)]))
	}
	if b.Time > reasonTimeFloor {
		reasons = append(reasons, fmt.Sprintf(pb.HorizonFit, pb.Horizons[HorizonBand(scores.TimeHorizon.Raw)]))
	}

	userDim := Dominant(scores.ESG.Environmental, scores.ESG.Social, scores.ESG.Governance)
	if userDim == Dominant(t.ESGProfile.E, t.ESGProfile.S, t.ESGProfile.G) {
		reasons = append(reasons, fmt.Sprintf(pb.ESGFit, pb.ESGNames[userDim]))
	}

	if b.SDG > reasonSDGFloor && len(scores.SDGPriorities) > 0 && countCommon(scores.SDGPriorities, t.SDGs) > 0 {
		reasons = append(reasons, pb.SDGFit)
	}

	if len(reasons) == 0 {
		return pb.Fallback
	}
	if len(reasons) > reasonLimit {
		reasons = reasons[:reasonLimit]
	}
	return strings.Join(reasons, pb.Separator)
}
