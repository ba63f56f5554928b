package scoring

import (
	"sort"

	"github.com/siherrmann/lexgraph/model"
)

// Features returns the named sub-scores of a candidate.
// Graph boosts are normalized by their caps so every feature lies in [0, 1],
// the hop penalty is the raw hop count and 0 for candidates not reached by graph traversal.
func Features(c *model.Candidate) map[string]float64 {
	capped := c.Boosts.Capped()

	features := map[string]float64{
		model.FeatureVectorSimilarity:  0,
		model.FeatureGraphRelevance:    0,
		model.FeatureJudgeAlignment:    capped.JudgeMatch / model.JudgeMatchCap,
		model.FeatureCitationStrength:  capped.CitationOverlap / model.CitationOverlapCap,
		model.FeatureOutcomeSimilarity: capped.Outcome / model.OutcomeBoostCap,
		model.FeatureHopPenalty:        0,
	}
	if c.HasVector {
		features[model.FeatureVectorSimilarity] = model.Clamp01(c.VectorScore)
	}
	if c.HasGraph && c.HopDistance < model.UnreachableHops {
		features[model.FeatureGraphRelevance] = 1 / (1 + float64(c.HopDistance))
		features[model.FeatureHopPenalty] = float64(c.HopDistance)
	}

	return features
}

// Hybrid combines the features with the weights:
// α·vector + β·judge + γ·citation + δ·outcome − ε·hop.
func Hybrid(features map[string]float64, weights model.ScoringWeights) float64 {
	return weights.Vector*features[model.FeatureVectorSimilarity] +
		weights.Judge*features[model.FeatureJudgeAlignment] +
		weights.Citation*features[model.FeatureCitationStrength] +
		weights.Outcome*features[model.FeatureOutcomeSimilarity] -
		weights.HopPenalty*features[model.FeatureHopPenalty]
}

// Score sets the confidence of a candidate.
func Score(c *model.Candidate, weights model.ScoringWeights) {
	features := Features(c)
	c.SetHybrid(Hybrid(features, weights), features)
}

// Rank scores all candidates and orders them by hybrid score, best first.
// The unrounded hybrid is compared so the hop penalty still orders candidates
// whose confidence is clamped to 0. Equal hybrids prefer candidates found by
// both searches, then discovery order.
func Rank(candidates []*model.Candidate, weights model.ScoringWeights) {
	for _, c := range candidates {
		Score(c, weights)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Hybrid() != b.Hybrid() {
			return a.Hybrid() > b.Hybrid()
		}
		if a.FoundByBoth() != b.FoundByBoth() {
			return a.FoundByBoth()
		}
		return a.Order < b.Order
	})
}
