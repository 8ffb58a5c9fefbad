package guard

// Evidence is the per-invocation accumulator every pipeline stage writes
// into. It is owned exclusively by one evaluation and discarded afterwards.
type Evidence struct {
	NormalizedText      string
	PatternsMatched     []string
	BypassAttempts      []string
	SemanticFlags       []string
	WhitelistViolations []string
}

// Weights are the per-evidence-kind confidence penalties.
type Weights struct {
	Bypass    float64
	Semantic  float64
	Whitelist float64
}

// DefaultWeights are the penalties applied per bypass attempt, semantic
// flag, and whitelist violation respectively.
func DefaultWeights() Weights {
	return Weights{Bypass: 0.2, Semantic: 0.1, Whitelist: 0.05}
}

// DefaultThreshold is the confidence below which an otherwise-clean request
// is blocked.
const DefaultThreshold = 0.5

// Confidence reduces the evidence to a score in [0,1]. The score starts at
// 1.0 and each piece of negative evidence subtracts its weight; adding
// evidence can therefore never increase the score.
func (e *Evidence) Confidence(w Weights) float64 {
	score := 1.0
	score -= w.Bypass * float64(len(e.BypassAttempts))
	score -= w.Semantic * float64(len(e.SemanticFlags))
	score -= w.Whitelist * float64(len(e.WhitelistViolations))

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
