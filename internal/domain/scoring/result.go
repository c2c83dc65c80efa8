package scoring

import (
	"fmt"
	"time"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/i18n"
)

// InvestorProfile summarizes the user's appetite and horizon.
type InvestorProfile struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

// RankedTrack is a recommendation flattened for the result payload.
type RankedTrack struct {
	Rank        int      `json:"rank"`
	TrackID     string   `json:"trackId"`
	TrackName   string   `json:"trackName"`
	TrackNameEn string   `json:"trackNameEn"`
	Description string   `json:"description"`
	MatchScore  int      `json:"matchScore"`
	Reason      string   `json:"reason"`
	SDGs        []int    `json:"sdgs"`
	Examples    []string `json:"examples"`
}

// BehavioralInsights lists the detected biases.
type BehavioralInsights struct {
	MainBiases []assessment.BiasType `json:"mainBiases"`
}

// SDGAlignment echoes the user's SDG priorities with an explanation.
type SDGAlignment struct {
	PrimarySDGs []int  `json:"primarySDGs"`
	Explanation string `json:"explanation"`
}

// Result is the final assessment outcome. Once stored on a session it is
// never recomputed.
type Result struct {
	Language           i18n.Lang             `json:"language"`
	InvestorProfile    InvestorProfile       `json:"investorProfile"`
	Scores             assessment.ScoreState `json:"scores"`
	RecommendedTracks  []RankedTrack         `json:"recommendedTracks"`
	BehavioralInsights BehavioralInsights    `json:"behavioralInsights"`
	SDGAlignment       SDGAlignment          `json:"sdgAlignment"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}

// Profile derives the investor type from the risk band and the summary from
// the type plus the horizon band.
func (m *Matcher) Profile(scores assessment.ScoreState) InvestorProfile {
	pb := m.phrases
	typ := pb.InvestorTypes[RiskBand(scores.Risk.Raw)]
	return InvestorProfile{
		Type:    typ,
		Summary: fmt.Sprintf(pb.Summary, typ, pb.Horizons[HorizonBand(scores.TimeHorizon.Raw)]),
	}
}

// BuildResult ranks tracks and assembles the full result payload.
func (m *Matcher) BuildResult(scores assessment.ScoreState, tracks []catalog.Track, now time.Time) Result {
	recs := m.Rank(scores, tracks)

	ranked := make([]RankedTrack, 0, len(recs))
	for i, r := range recs {
		ranked = append(ranked, RankedTrack{
			Rank:        i + 1,
			TrackID:     r.Track.ID,
			TrackName:   r.Track.Name,
			TrackNameEn: r.Track.NameEn,
			Description: r.Track.Description,
			MatchScore:  r.MatchScore,
			Reason:      r.Reason,
			SDGs:        append([]int{}, r.Track.SDGs...),
			Examples:    append([]string{}, r.Track.Examples...),
		})
	}

	state := assessment.Merge(scores.Partial(), assessment.Partial{})

	return Result{
		Language:           m.phrases.Lang,
		InvestorProfile:    m.Profile(scores),
		Scores:             state,
		RecommendedTracks:  ranked,
		BehavioralInsights: BehavioralInsights{MainBiases: state.BiasTypes()},
		SDGAlignment: SDGAlignment{
			PrimarySDGs: append([]int{}, state.SDGPriorities...),
			Explanation: m.phrases.SDGExplanation,
		},
		GeneratedAt: now.UTC(),
	}
}
