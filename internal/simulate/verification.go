package simulate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/scoring"
)

// Verify recomputes the script's result locally and lists every difference
// from got. An empty list means the server agrees.
func Verify(s Script, got *scoring.Result, tracks []catalog.Track, topN int) []string {
	m := scoring.NewMatcher(scoring.WithLanguage(i18n.Lang(s.Language)), scoring.WithTopN(topN))
	want := m.BuildResult(s.Expected(), tracks, time.Time{})

	var diffs []string
	if got.Language != want.Language {
		diffs = append(diffs, fmt.Sprintf("language: got %q, want %q", got.Language, want.Language))
	}
	if got.InvestorProfile != want.InvestorProfile {
		diffs = append(diffs, fmt.Sprintf("profile: got %+v, want %+v", got.InvestorProfile, want.InvestorProfile))
	}
	if len(got.RecommendedTracks) != len(want.RecommendedTracks) {
		return append(diffs, fmt.Sprintf("tracks: got %d, want %d", len(got.RecommendedTracks), len(want.RecommendedTracks)))
	}
	for i, w := range want.RecommendedTracks {
		g := got.RecommendedTracks[i]
		if g.Rank != w.Rank || g.TrackID != w.TrackID || g.MatchScore != w.MatchScore || g.Reason != w.Reason {
			diffs = append(diffs, fmt.Sprintf("track %d: got %s/%d %q, want %s/%d %q",
				i+1, g.TrackID, g.MatchScore, g.Reason, w.TrackID, w.MatchScore, w.Reason))
		}
	}
	if !slices.Equal(got.SDGAlignment.PrimarySDGs, want.SDGAlignment.PrimarySDGs) {
		diffs = append(diffs, fmt.Sprintf("sdgs: got %v, want %v", got.SDGAlignment.PrimarySDGs, want.SDGAlignment.PrimarySDGs))
	}
	if !slices.Equal(got.BehavioralInsights.MainBiases, want.BehavioralInsights.MainBiases) {
		diffs = append(diffs, fmt.Sprintf("biases: got %v, want %v", got.BehavioralInsights.MainBiases, want.BehavioralInsights.MainBiases))
	}
	return diffs
}

func mismatch(s Script, diffs []string) error {
	return fmt.Errorf("%w: script %s: %s", ErrMismatch, s.ID, strings.Join(diffs, "; "))
}
