package assessment

import "math"

// Merge folds update into current and returns a complete state.
//
// Fields present in update replace the corresponding field of current
// wholesale; absent fields fall back to current and then to Defaults. ESG
// dimensions are resolved independently. SDG priorities and biases are
// replaced, never unioned or appended: every turn reports the cumulative
// list. Out-of-range numbers are clamped and unknown enum values dropped, so
// the result always satisfies the ScoreState ranges.
func Merge(current, update Partial) ScoreState {
	def := Defaults()

	out := ScoreState{
		Risk:        mergeDimension(update.Risk, current.Risk, def.Risk),
		TimeHorizon: mergeDimension(update.TimeHorizon, current.TimeHorizon, def.TimeHorizon),
		GoalType:    mergeGoal(update.GoalType, current.GoalType, def.GoalType),
		ESG: ESG{
			Environmental: clampScore(firstDefined(esgField(update.ESG, envOf), esgField(current.ESG, envOf), def.ESG.Environmental)),
			Social:        clampScore(firstDefined(esgField(update.ESG, socOf), esgField(current.ESG, socOf), def.ESG.Social)),
			Governance:    clampScore(firstDefined(esgField(update.ESG, govOf), esgField(current.ESG, govOf), def.ESG.Governance)),
		},
	}

	switch {
	case update.SDGPriorities != nil:
		out.SDGPriorities = normalizeSDGs(update.SDGPriorities)
	case current.SDGPriorities != nil:
		out.SDGPriorities = normalizeSDGs(current.SDGPriorities)
	default:
		out.SDGPriorities = def.SDGPriorities
	}

	switch {
	case update.Biases != nil:
		out.Biases = normalizeBiases(update.Biases)
	case current.Biases != nil:
		out.Biases = normalizeBiases(current.Biases)
	default:
		out.Biases = def.Biases
	}

	return out
}

func mergeDimension(update, current *Dimension, def Dimension) Dimension {
	d := def
	switch {
	case update != nil:
		d = *update
	case current != nil:
		d = *current
	}
	return Dimension{
		Raw:        clampScore(d.Raw),
		Confidence: clamp(d.Confidence, MinConfidence, MaxConfidence),
	}
}

func mergeGoal(update, current *GoalType, def GoalType) GoalType {
	if update != nil && update.Valid() {
		return *update
	}
	if current != nil && current.Valid() {
		return *current
	}
	return def
}

func envOf(e *ESGUpdate) *float64 { return e.Environmental }
func socOf(e *ESGUpdate) *float64 { return e.Social }
func govOf(e *ESGUpdate) *float64 { return e.Governance }

func esgField(e *ESGUpdate, pick func(*ESGUpdate) *float64) *float64 {
	if e == nil {
		return nil
	}
	return pick(e)
}

// firstDefined checks presence rather than truthiness: 0 is a real value.
func firstDefined(update, current *float64, def float64) float64 {
	if update != nil {
		return *update
	}
	if current != nil {
		return *current
	}
	return def
}

// normalizeSDGs keeps valid ids in first-seen order, without duplicates.
func normalizeSDGs(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, id := range in {
		if id < MinSDG || id > MaxSDG {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeBiases(in []Bias) []Bias {
	out := make([]Bias, 0, len(in))
	for _, b := range in {
		if !b.Type.Valid() || !b.Strength.Valid() {
			continue
		}
		out = append(out, b)
	}
	return out
}

func clampScore(v float64) float64 {
	return clamp(v, MinScore, MaxScore)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
