package bundle

import (
	"io"
	"log/slog"
	"testing"

	"github.com/siherrmann/lexgraph/core/scoring"
	"github.com/siherrmann/lexgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorHit(argumentID, segmentID string, seq int, similarity float64) model.RawHit {
	return model.NewVectorHit(model.VectorMatch{
		Payload: model.SegmentPayload{
			Segment: model.ArgumentSegment{SegmentID: segmentID, ArgumentID: argumentID, Text: "text " + segmentID, Seq: seq},
			Case:    &model.Case{ID: "case-" + argumentID, Caption: "Caption " + argumentID},
			Issue:   &model.Issue{ID: "issue-1", Title: "Eligibility"},
		},
		Similarity: similarity,
	})
}

func graphHit(argumentID string, hops int, segments ...model.ArgumentSegment) model.RawHit {
	return model.NewGraphHit(model.ArgumentPayload{
		ArgumentID: argumentID,
		Case:       &model.Case{ID: "case-" + argumentID},
		Segments:   segments,
	}, model.IssueHop{IssueID: "issue-2", Hops: hops, Path: []string{"issue-1", "issue-2"}}, "issue-1")
}

func TestMerge(t *testing.T) {
	assembler := NewAssembler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("Merge keeps the best similarity and merges segments in seq order", func(t *testing.T) {
		candidates := assembler.Merge([]model.RawHit{
			vectorHit("a", "a-2", 2, 0.7),
			vectorHit("a", "a-0", 0, 0.9),
			vectorHit("a", "a-2", 2, 0.7),
		})
		require.Len(t, candidates, 1)
		assert.Equal(t, 0.9, candidates[0].VectorScore)
		require.Len(t, candidates[0].Payload.Segments, 2, "Expected duplicate segment to be merged")
		assert.Equal(t, 0, candidates[0].Payload.Segments[0].Seq)
		assert.Equal(t, model.UnreachableHops, candidates[0].HopDistance)
	})

	t.Run("Merge populates both paths for the same argument", func(t *testing.T) {
		candidates := assembler.Merge([]model.RawHit{
			vectorHit("a", "a-0", 0, 0.8),
			graphHit("a", 2, model.ArgumentSegment{SegmentID: "a-1", ArgumentID: "a", Text: "more", Seq: 1}),
			graphHit("a", 1),
		})
		require.Len(t, candidates, 1)
		c := candidates[0]
		assert.True(t, c.FoundByBoth())
		assert.Equal(t, 0.8, c.VectorScore)
		assert.Equal(t, 1, c.HopDistance, "Expected the minimal hop distance")
		assert.Equal(t, "issue-1", c.AnchorIssueID)
		assert.Len(t, c.Payload.Segments, 2)
		assert.Equal(t, "Caption a", c.Payload.Case.Caption, "Expected the first seen case to be kept")
	})

	t.Run("Merge keeps discovery order", func(t *testing.T) {
		candidates := assembler.Merge([]model.RawHit{
			vectorHit("b", "b-0", 0, 0.5),
			vectorHit("a", "a-0", 0, 0.9),
			graphHit("c", 0, model.ArgumentSegment{SegmentID: "c-0", ArgumentID: "c", Text: "c"}),
		})
		require.Len(t, candidates, 3)
		assert.Equal(t, []int{0, 1, 2}, []int{candidates[0].Order, candidates[1].Order, candidates[2].Order})
		assert.Equal(t, "b", candidates[0].ArgumentID)
	})

	t.Run("Merge drops malformed candidates", func(t *testing.T) {
		noCase := vectorHit("x", "x-0", 0, 0.9)
		noCase.Vector.Payload.Case = nil
		candidates := assembler.Merge([]model.RawHit{
			noCase,
			graphHit("y", 0),
			{Kind: model.HitVector},
			vectorHit("ok", "ok-0", 0, 0.1),
		})
		require.Len(t, candidates, 1)
		assert.Equal(t, "ok", candidates[0].ArgumentID)
	})
}

func TestAssemble(t *testing.T) {
	assembler := NewAssembler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("Assemble truncates to limit and keeps rank order", func(t *testing.T) {
		candidates := assembler.Merge([]model.RawHit{
			vectorHit("a", "a-0", 0, 0.92),
			vectorHit("b", "b-0", 0, 0.87),
			vectorHit("c", "c-0", 0, 0.81),
			vectorHit("d", "d-0", 0, 0.40),
			vectorHit("e", "e-0", 0, 0.10),
		})
		scoring.Rank(candidates, model.DefaultScoringWeights())

		bundles, kept := assembler.Assemble(candidates, 3)
		require.Len(t, bundles, 3)
		require.Len(t, kept, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{bundles[0].ArgumentID, bundles[1].ArgumentID, bundles[2].ArgumentID})
		for i, b := range bundles {
			assert.Equal(t, kept[i].ArgumentID, b.ArgumentID)
			assert.Equal(t, 0.0, b.Confidence.Features[model.FeatureGraphRelevance])
			assert.NotEmpty(t, b.Segments)
		}
	})

	t.Run("Materialize copies segments and fills empty taxonomy", func(t *testing.T) {
		c := &model.Candidate{
			ArgumentID: "a",
			Payload: model.ArgumentPayload{
				Case:     &model.Case{ID: "c"},
				Segments: []model.ArgumentSegment{{SegmentID: "2", Seq: 2}, {SegmentID: "1", Seq: 1}},
			},
		}
		b := Materialize(c)
		assert.Equal(t, "1", b.Segments[0].SegmentID)
		assert.Equal(t, "2", c.Payload.Segments[0].SegmentID, "Expected candidate segments to be untouched")
		assert.NotNil(t, b.Issue.TaxonomyPath)
	})
}
