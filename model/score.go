package model

import "math"

// Feature names of a ConfidenceScore
const (
	FeatureVectorSimilarity  = "vector_similarity"
	FeatureGraphRelevance    = "graph_relevance"
	FeatureJudgeAlignment    = "judge_alignment"
	FeatureCitationStrength  = "citation_strength"
	FeatureOutcomeSimilarity = "outcome_similarity"
	FeatureHopPenalty        = "hop_penalty"
)

// NeutralJudgeAlignment is used where no judge information is available.
const NeutralJudgeAlignment = 0.5

// ConfidenceScore is the fused score of a bundle with its components
type ConfidenceScore struct {
	Value    float64            `json:"value"`
	Features map[string]float64 `json:"features"`
}

// NewConfidenceScore clamps the value to [0, 1] and rounds it to two decimals.
func NewConfidenceScore(value float64, features map[string]float64) ConfidenceScore {
	if features == nil {
		features = map[string]float64{}
	}
	return ConfidenceScore{
		Value:    math.Round(Clamp01(value)*100) / 100,
		Features: features,
	}
}

// Clamp01 limits v to the closed interval [0, 1].
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
