package simulate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/stage"
)

const maxSDGPicks = 3

var (
	goals = []assessment.GoalType{
		assessment.GoalGrowth, assessment.GoalIncome, assessment.GoalPreservation, assessment.GoalImpact,
	}
	biases = []assessment.BiasType{
		assessment.BiasLossAversion, assessment.BiasOverconfidence, assessment.BiasHerding,
		assessment.BiasAnchoring, assessment.BiasConfirmation, assessment.BiasRecency,
	}
	strengths = []assessment.Strength{assessment.StrengthLow, assessment.StrengthMedium, assessment.StrengthHigh}
)

// Generator builds reproducible investor scripts.
type Generator struct {
	rnd      *rand.Rand
	language string
}

// NewGenerator returns a generator seeded with seed. An empty language
// alternates en and zh between scripts.
func NewGenerator(seed uint64, language string) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		language: language,
	}
}

// Scripts generates n scripts.
func (g *Generator) Scripts(n int) []Script {
	out := make([]Script, n)
	for i := range out {
		out[i] = g.Script(i)
	}
	return out
}

// Script generates the conversation for the index-th investor. Every script
// walks each stage once and ends complete.
func (g *Generator) Script(index int) Script {
	lang := g.language
	if lang == "" {
		lang = i18n.English.String()
		if index%2 == 1 {
			lang = i18n.Chinese.String()
		}
	}

	id := uuid.NewString()
	goal := goals[g.rnd.IntN(len(goals))]
	updates := []struct {
		next   stage.Stage
		update assessment.Partial
	}{
		{stage.Risk, assessment.Partial{}},
		{stage.Goals, assessment.Partial{Risk: g.dimension()}},
		{stage.Behavior, assessment.Partial{TimeHorizon: g.dimension(), GoalType: &goal}},
		{stage.Values, assessment.Partial{Biases: g.biases()}},
		{stage.Confirmation, assessment.Partial{ESG: g.esg(), SDGPriorities: g.sdgs()}},
		{stage.Complete, assessment.Partial{}},
	}

	s := Script{ID: id, Language: lang, Turns: make([]TurnRequest, 0, len(updates))}
	for i, u := range updates {
		s.Turns = append(s.Turns, TurnRequest{
			TurnID:       fmt.Sprintf("%s-%d", id, i+1),
			ScoresUpdate: u.update,
			NextStage:    u.next.String(),
			Reply:        fmt.Sprintf("question %d", i+2),
		})
	}
	return s
}

// score returns a value in [0, 100] with one decimal.
func (g *Generator) score() float64 {
	return math.Round(g.rnd.Float64()*1000) / 10
}

func (g *Generator) dimension() *assessment.Dimension {
	return &assessment.Dimension{
		Raw:        g.score(),
		Confidence: math.Round((0.5+g.rnd.Float64()/2)*100) / 100,
	}
}

func (g *Generator) esg() *assessment.ESGUpdate {
	e, s, gov := g.score(), g.score(), g.score()
	return &assessment.ESGUpdate{Environmental: &e, Social: &s, Governance: &gov}
}

func (g *Generator) sdgs() []int {
	k := g.rnd.IntN(maxSDGPicks + 1)
	out := make([]int, 0, k)
	for _, v := range g.rnd.Perm(assessment.MaxSDG)[:k] {
		out = append(out, v+1)
	}
	return out
}

func (g *Generator) biases() []assessment.Bias {
	k := g.rnd.IntN(3)
	out := make([]assessment.Bias, 0, k)
	for _, i := range g.rnd.Perm(len(biases))[:k] {
		out = append(out, assessment.Bias{
			Type:     biases[i],
			Strength: strengths[g.rnd.IntN(len(strengths))],
			Evidence: "simulated",
		})
	}
	return out
}

// Expected folds the script's updates the way the server does.
func (s Script) Expected() assessment.ScoreState {
	state := assessment.Defaults()
	for _, t := range s.Turns {
		state = assessment.Merge(state.Partial(), t.ScoresUpdate)
	}
	return state
}
