package explain

import (
	"testing"

	"github.com/siherrmann/lexgraph/core/bundle"
	"github.com/siherrmann/lexgraph/core/scoring"
	"github.com/siherrmann/lexgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(c *model.Candidate) (model.ArgumentBundle, *model.Candidate) {
	c.Payload.Case = &model.Case{ID: "case"}
	c.Payload.Segments = []model.ArgumentSegment{{SegmentID: "s", Text: "t"}}
	scoring.Score(c, model.DefaultScoringWeights())
	return bundle.Materialize(c), c
}

func TestBuild(t *testing.T) {
	t.Run("Vector only explanation has no paths", func(t *testing.T) {
		b, c := scored(&model.Candidate{ArgumentID: "a", VectorScore: 0.9, HasVector: true, HopDistance: model.UnreachableHops})
		explanation := Build(b, c)

		assert.Equal(t, "a", explanation.ArgumentID)
		assert.Empty(t, explanation.Paths)
		assert.NotNil(t, explanation.Paths)
		assert.Contains(t, explanation.ExplanationText, "vector search only")
		assert.Equal(t, []model.RetrievalMethod{model.MethodVector}, explanation.Sources)
		assert.Equal(t, c.Hybrid(), explanation.FinalScore)
	})

	t.Run("Graph only explanation has the traversal path", func(t *testing.T) {
		b, c := scored(&model.Candidate{ArgumentID: "a", HasGraph: true, HopDistance: 1, AnchorIssueID: "i1", Path: []string{"i1", "i2"}})
		explanation := Build(b, c)

		assert.Contains(t, explanation.ExplanationText, "graph search only")
		require.Len(t, explanation.Paths, 1)
		assert.Equal(t, model.PathTypeLegalPrecedent, explanation.Paths[0].Type)
		assert.Equal(t, []string{"i1", "i2", "a"}, explanation.Paths[0].Nodes)
		assert.Equal(t, 0.5, explanation.Paths[0].Confidence)
		assert.Contains(t, explanation.KeyNodes, "Issue")
	})

	t.Run("Final score is the unclamped hybrid", func(t *testing.T) {
		b, c := scored(&model.Candidate{ArgumentID: "a", HasGraph: true, HopDistance: 3, AnchorIssueID: "i1"})
		explanation := Build(b, c)

		assert.Equal(t, 0.0, b.Confidence.Value, "Expected confidence clamped to zero")
		assert.InDelta(t, -0.3, explanation.FinalScore, 1e-9, "Expected the negative hybrid to be kept")
	})

	t.Run("Both paths explanation", func(t *testing.T) {
		b, c := scored(&model.Candidate{ArgumentID: "a", VectorScore: 0.5, HasVector: true, HasGraph: true, HopDistance: 0, AnchorIssueID: "i1", Boosts: model.Boosts{JudgeMatch: 0.1}})
		explanation := Build(b, c)

		assert.Contains(t, explanation.ExplanationText, "both vector and graph search")
		assert.Contains(t, explanation.ExplanationText, "same judge")
		assert.Equal(t, []model.RetrievalMethod{model.MethodVector, model.MethodGraph}, explanation.Sources)
		assert.Equal(t, []string{"i1", "a"}, explanation.Paths[0].Nodes)
		assert.Contains(t, explanation.KeyNodes, "Judge")
		assert.Equal(t, 0.1, explanation.Boosts[model.BoostJudgeMatch])
	})

	t.Run("Build all keeps cardinality and order", func(t *testing.T) {
		b1, c1 := scored(&model.Candidate{ArgumentID: "a", HasVector: true})
		b2, c2 := scored(&model.Candidate{ArgumentID: "b", HasVector: true})
		explanations := BuildAll([]model.ArgumentBundle{b1, b2}, []*model.Candidate{c1, c2})
		require.Len(t, explanations, 2)
		assert.Equal(t, "a", explanations[0].ArgumentID)
		assert.Equal(t, "b", explanations[1].ArgumentID)
	})

	t.Run("Synthetic explanation is labelled fallback", func(t *testing.T) {
		explanation := Synthetic(model.ArgumentBundle{ArgumentID: "mock", Synthetic: true})
		assert.Equal(t, []model.RetrievalMethod{model.MethodFallback}, explanation.Sources)
		assert.Contains(t, explanation.ExplanationText, "Synthetic")
		assert.Empty(t, explanation.Paths)
	})
}
