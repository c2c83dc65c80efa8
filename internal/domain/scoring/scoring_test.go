package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func state(risk, horizon, e, s, g float64, sdgs ...int) assessment.ScoreState {
	st := assessment.Defaults()
	st.Risk = assessment.Dimension{Raw: risk, Confidence: 0.8}
	st.TimeHorizon = assessment.Dimension{Raw: horizon, Confidence: 0.8}
	st.ESG = assessment.ESG{Environmental: e, Social: s, Governance: g}
	if sdgs != nil {
		st.SDGPriorities = sdgs
	}
	return st
}

func track(id string, risk, horizon, e, s, g float64, sdgs ...int) catalog.Track {
	return catalog.Track{
		ID:          id,
		Name:        id + "-zh",
		NameEn:      id,
		RiskLevel:   risk,
		TimeHorizon: horizon,
		ESGProfile:  catalog.ESGProfile{E: e, S: s, G: g},
		SDGs:        sdgs,
		Examples:    []string{id + " fund"},
	}
}

func TestRecommend_WorkedExample(t *testing.T) {
	Convey("Given an aggressive short-horizon user focused on the environment", t, func() {
		user := state(80, 20, 90, 10, 10, 13)
		a := track("a", 85, 25, 90, 5, 5, 13, 7)

		Convey("When the track is evaluated", func() {
			rec := scoring.NewMatcher().Evaluate(user, a)

			Convey("Then the distance sub-scores are exact", func() {
				So(rec.Breakdown.Risk, ShouldEqual, 95)
				So(rec.Breakdown.Time, ShouldEqual, 95)
				So(rec.Breakdown.SDG, ShouldEqual, 100)
			})

			Convey("And ESG alignment uses the unnormalized weighted product", func() {
				// (90/110)*81 + 2*(10/110)*0.5
				So(rec.Breakdown.ESG, ShouldAlmostEqual, 66.3636, 0.001)
			})

			Convey("And the combined score rounds from the unrounded value", func() {
				So(rec.Score, ShouldAlmostEqual, 87.409, 0.001)
				So(rec.MatchScore, ShouldEqual, 87)
			})

			Convey("And the reason keeps the first two candidates", func() {
				So(rec.Reason, ShouldEqual, "matches your aggressive risk appetite; suits a short-term investment plan")
			})
		})

		Convey("When the reason is rendered in Chinese", func() {
			rec := scoring.NewMatcher(scoring.WithLanguage(i18n.Chinese)).Evaluate(user, a)
			So(rec.Reason, ShouldEqual, "符合你的積極型風險偏好，適合短期投資規劃")
		})
	})
}

func TestSubScores(t *testing.T) {
	Convey("Given SDG priorities", t, func() {
		Convey("When the user has none", func() {
			So(scoring.SDGOverlap([]int{}, []int{1, 2, 3}), ShouldEqual, 50)
			So(scoring.SDGOverlap(nil, nil), ShouldEqual, 50)
		})

		Convey("When the track has none", func() {
			So(scoring.SDGOverlap([]int{4}, nil), ShouldEqual, 0)
		})

		Convey("When they partially overlap", func() {
			So(scoring.SDGOverlap([]int{1, 2}, []int{2, 3, 4}), ShouldEqual, 50)
			So(scoring.SDGOverlap([]int{7}, []int{7, 13}), ShouldEqual, 100)
		})
	})

	Convey("Given ESG scores that are all zero", t, func() {
		got := scoring.ESGAlignment(assessment.ESG{}, catalog.ESGProfile{E: 100, S: 100, G: 100})

		Convey("Then the fallback weights apply and the products are zero", func() {
			So(got, ShouldEqual, 0)
		})
	})

	Convey("Given neutral ESG scores", t, func() {
		got := scoring.ESGAlignment(
			assessment.ESG{Environmental: 50, Social: 50, Governance: 50},
			catalog.ESGProfile{E: 100, S: 100, G: 100},
		)

		Convey("Then each dimension contributes a third of 50", func() {
			So(got, ShouldAlmostEqual, 50, 1e-9)
		})
	})

	Convey("Given risk and horizon distances", t, func() {
		So(scoring.RiskMatch(0, 100), ShouldEqual, 0)
		So(scoring.RiskMatch(100, 100), ShouldEqual, 100)
		So(scoring.TimeMatch(30, 10), ShouldEqual, 80)
	})
}

func TestDominantAndBands(t *testing.T) {
	Convey("Given ESG triples with ties", t, func() {
		So(scoring.Dominant(50, 50, 50), ShouldEqual, "E")
		So(scoring.Dominant(40, 60, 60), ShouldEqual, "S")
		So(scoring.Dominant(60, 60, 10), ShouldEqual, "E")
		So(scoring.Dominant(10, 20, 30), ShouldEqual, "G")
	})

	Convey("Given band boundaries", t, func() {
		So(scoring.RiskBand(76), ShouldEqual, "aggressive")
		So(scoring.RiskBand(75), ShouldEqual, "balanced")
		So(scoring.RiskBand(50), ShouldEqual, "conservative-leaning")
		So(scoring.RiskBand(25), ShouldEqual, "conservative")
		So(scoring.HorizonBand(68), ShouldEqual, "long")
		So(scoring.HorizonBand(67), ShouldEqual, "medium")
		So(scoring.HorizonBand(34), ShouldEqual, "short")
	})
}

func TestReason(t *testing.T) {
	Convey("Given a matcher with English phrases", t, func() {
		m := scoring.NewMatcher()

		Convey("When nothing lines up", func() {
			user := state(10, 10, 90, 10, 10, 1)
			rec := m.Evaluate(user, track("far", 90, 90, 10, 90, 10, 2))

			Convey("Then the fallback phrase is used", func() {
				So(rec.Reason, ShouldEqual, "has strong investment potential")
			})
		})

		Convey("When only the dominant ESG dimension matches", func() {
			user := state(10, 10, 20, 20, 90)
			rec := m.Evaluate(user, track("gov", 90, 90, 10, 10, 80))

			Convey("Then the governance phrase is used", func() {
				So(rec.Reason, ShouldEqual, "closely aligned with the governance issues you value")
			})
		})

		Convey("When ESG and SDG match but risk and horizon do not", func() {
			user := state(10, 10, 80, 10, 10, 6)
			rec := m.Evaluate(user, track("water", 90, 90, 80, 70, 45, 6, 14))

			Convey("Then both phrases appear in priority order", func() {
				So(rec.Reason, ShouldEqual,
					"closely aligned with the environmental issues you value; directly contributes to your prioritized sustainability goals")
			})
		})

		Convey("When all four candidates apply", func() {
			user := state(60, 50, 80, 10, 10, 6)
			rec := m.Evaluate(user, track("all", 60, 50, 80, 10, 10, 6))

			Convey("Then only the first two are kept", func() {
				So(rec.Reason, ShouldEqual, "matches your balanced risk appetite; suits a medium-term investment plan")
			})
		})

		Convey("When the user has no SDG priorities", func() {
			user := state(10, 10, 10, 10, 90)
			rec := m.Evaluate(user, track("neutral", 90, 90, 90, 10, 10, 6))

			Convey("Then the neutral SDG score does not produce an SDG phrase", func() {
				So(rec.Breakdown.SDG, ShouldEqual, 50)
				So(rec.Reason, ShouldEqual, "has strong investment potential")
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a catalog with ties and distinct scores", t, func() {
		user := state(50, 50, 50, 50, 50)
		tracks := []catalog.Track{
			track("low", 0, 0, 0, 0, 0),
			track("tie-first", 50, 50, 50, 50, 50),
			track("tie-second", 50, 50, 50, 50, 50),
			track("mid", 70, 70, 50, 50, 50),
		}

		Convey("When ranking with the default bound", func() {
			got := scoring.Recommend(user, tracks, 3)

			Convey("Then no more than topN entries are returned", func() {
				So(len(got), ShouldEqual, 3)
			})

			Convey("Then equal scores keep catalog order", func() {
				So(got[0].Track.ID, ShouldEqual, "tie-first")
				So(got[1].Track.ID, ShouldEqual, "tie-second")
				So(got[2].Track.ID, ShouldEqual, "mid")
			})

			Convey("Then ordering is descending on the unrounded score", func() {
				for i := 1; i < len(got); i++ {
					So(got[i-1].Score, ShouldBeGreaterThanOrEqualTo, got[i].Score)
				}
			})

			Convey("Then every entry comes from the catalog", func() {
				ids := map[string]bool{}
				for _, tr := range tracks {
					ids[tr.ID] = true
				}
				for _, r := range got {
					So(ids[r.Track.ID], ShouldBeTrue)
				}
			})
		})

		Convey("When topN exceeds the catalog", func() {
			So(len(scoring.Recommend(user, tracks, 10)), ShouldEqual, len(tracks))
		})

		Convey("When topN is not positive", func() {
			So(scoring.Recommend(user, tracks, 0), ShouldBeEmpty)
			So(scoring.Recommend(user, tracks, -1), ShouldBeEmpty)
		})

		Convey("When the catalog is empty", func() {
			got := scoring.Recommend(user, nil, 3)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})

	Convey("Given scores that differ only below rounding", t, func() {
		user := state(50, 50, 0, 0, 0)
		tracks := []catalog.Track{
			track("a", 50.4, 50, 0, 0, 0),
			track("b", 50.2, 50, 0, 0, 0),
		}
		got := scoring.Recommend(user, tracks, 2)

		Convey("Then ranking uses the unrounded value", func() {
			So(got[0].MatchScore, ShouldEqual, got[1].MatchScore)
			So(got[0].Track.ID, ShouldEqual, "b")
		})
	})

	Convey("Given the embedded catalog", t, func() {
		c, err := catalog.Default()
		So(err, ShouldBeNil)
		m := scoring.NewMatcher(scoring.WithTopN(5), scoring.WithLanguage(i18n.Chinese))

		got := m.Rank(state(80, 80, 90, 20, 20, 7, 13), c.Tracks())

		So(m.TopN(), ShouldEqual, 5)
		So(m.Language(), ShouldEqual, i18n.Chinese)
		So(len(got), ShouldEqual, 5)
		So(got[0].Track.ID, ShouldEqual, "renewable-energy")
		for _, r := range got {
			So(r.MatchScore, ShouldBeBetweenOrEqual, 0, 100)
		}
	})
}

func TestBuildResult(t *testing.T) {
	Convey("Given a completed score state", t, func() {
		user := state(30, 80, 20, 80, 30, 3, 4)
		user.Biases = []assessment.Bias{
			{Type: assessment.BiasLossAversion, Strength: assessment.StrengthHigh, Evidence: "sold at the bottom"},
			{Type: assessment.BiasHerding, Strength: assessment.StrengthLow},
		}
		tracks := []catalog.Track{
			track("health", 70, 75, 30, 88, 55, 3),
			track("edu", 40, 70, 25, 85, 50, 4, 10),
			track("bonds", 25, 55, 80, 35, 65, 7),
		}
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))

		Convey("When the result is built in English", func() {
			res := scoring.NewMatcher(scoring.WithTopN(2)).BuildResult(user, tracks, now)

			Convey("Then the profile follows the risk and horizon bands", func() {
				So(res.InvestorProfile.Type, ShouldEqual, "Steady Investor")
				So(res.InvestorProfile.Summary, ShouldEqual, "You are a Steady Investor with a long-term investment outlook.")
			})

			Convey("Then tracks are ranked from 1", func() {
				So(len(res.RecommendedTracks), ShouldEqual, 2)
				So(res.RecommendedTracks[0].Rank, ShouldEqual, 1)
				So(res.RecommendedTracks[1].Rank, ShouldEqual, 2)
				So(res.RecommendedTracks[0].TrackID, ShouldEqual, "health")
				So(res.RecommendedTracks[1].TrackID, ShouldEqual, "edu")
				So(res.RecommendedTracks[0].Examples, ShouldResemble, []string{"health fund"})
			})

			Convey("Then biases and SDGs are echoed", func() {
				So(res.BehavioralInsights.MainBiases, ShouldResemble,
					[]assessment.BiasType{assessment.BiasLossAversion, assessment.BiasHerding})
				So(res.SDGAlignment.PrimarySDGs, ShouldResemble, []int{3, 4})
				So(res.SDGAlignment.Explanation, ShouldNotBeBlank)
			})

			Convey("Then metadata is set", func() {
				So(res.Language, ShouldEqual, i18n.English)
				So(res.GeneratedAt, ShouldEqual, now.UTC())
				So(res.Scores, ShouldResemble, user)
			})
		})

		Convey("When the result is built in Chinese", func() {
			res := scoring.NewMatcher(scoring.WithLanguage(i18n.Chinese)).BuildResult(user, tracks, now)

			So(res.InvestorProfile.Type, ShouldEqual, "穩健型投資人")
			So(res.InvestorProfile.Summary, ShouldEqual, "你是一位穩健型投資人，具有長期投資視野。")
			So(len(res.RecommendedTracks), ShouldEqual, 3)
		})
	})
}
