package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoostsCapped(t *testing.T) {
	t.Run("Cap extreme values", func(t *testing.T) {
		b := Boosts{JudgeMatch: 5, CitationOverlap: 100, Outcome: 1, IssueCentrality: 0.9}.Capped()

		assert.Equal(t, JudgeMatchCap, b.JudgeMatch)
		assert.Equal(t, CitationOverlapCap, b.CitationOverlap)
		assert.Equal(t, OutcomeBoostCap, b.Outcome)
		assert.Equal(t, IssueCentralityCap, b.IssueCentrality)
	})

	t.Run("Clamp negative values to zero", func(t *testing.T) {
		b := Boosts{JudgeMatch: -1, CitationOverlap: -0.5}.Capped()

		assert.Zero(t, b.JudgeMatch)
		assert.Zero(t, b.CitationOverlap)
	})

	t.Run("Max takes the larger signal", func(t *testing.T) {
		b := Boosts{JudgeMatch: 0.1}.Max(Boosts{CitationOverlap: 0.15})

		assert.Equal(t, Boosts{JudgeMatch: 0.1, CitationOverlap: 0.15}, b)
	})
}

func TestComputeLawyerMetrics(t *testing.T) {
	t.Run("Win rate counts partial half", func(t *testing.T) {
		arguments := []ArgumentPayload{
			{ArgumentID: "a1", Disposition: DispositionGranted, Case: &Case{JudgeID: "j1"}, Issue: &Issue{ID: "i1"}},
			{ArgumentID: "a2", Disposition: DispositionPartial, Case: &Case{JudgeID: "j1"}, Issue: &Issue{ID: "i2"}},
			{ArgumentID: "a3", Disposition: DispositionDenied, Case: &Case{JudgeID: "j2"}, Issue: &Issue{ID: "i2"}},
			{ArgumentID: "a4", Disposition: DispositionPending},
		}

		m := ComputeLawyerMetrics("l1", arguments)

		assert.Equal(t, 4, m.TotalArguments)
		assert.InDelta(t, 1.5/4, m.WinRate, 1e-9)
		assert.InDelta(t, 0.75, m.JudgeAlignment["j1"], 1e-9)
		assert.InDelta(t, 0.0, m.JudgeAlignment["j2"], 1e-9)
		assert.Equal(t, 2, m.ArgumentDiversity)
	})

	t.Run("No arguments", func(t *testing.T) {
		m := ComputeLawyerMetrics("l1", nil)

		assert.Zero(t, m.WinRate)
		assert.Empty(t, m.JudgeAlignment)
	})
}

func TestRawHit(t *testing.T) {
	t.Run("Argument id of both variants", func(t *testing.T) {
		v := NewVectorHit(VectorMatch{Payload: SegmentPayload{Segment: ArgumentSegment{ArgumentID: "a1"}}, Similarity: 0.9})
		g := NewGraphHit(ArgumentPayload{ArgumentID: "a2"}, IssueHop{IssueID: "i1", Hops: 1}, "i0")

		assert.Equal(t, "a1", v.ArgumentID())
		assert.Equal(t, "a2", g.ArgumentID())
		assert.Equal(t, HitGraph, g.Kind)
		assert.Equal(t, 1, g.Graph.HopDistance)
	})

	t.Run("Malformed hit has no identity", func(t *testing.T) {
		assert.Equal(t, "", RawHit{Kind: HitVector}.ArgumentID())
		assert.Equal(t, "", RawHit{}.ArgumentID())
	})
}

func TestNewConfidenceScore(t *testing.T) {
	t.Run("Clamp and round value", func(t *testing.T) {
		assert.Equal(t, 1.0, NewConfidenceScore(1.7, nil).Value)
		assert.Equal(t, 0.0, NewConfidenceScore(-0.2, nil).Value)
		assert.Equal(t, 0.46, NewConfidenceScore(0.4567, nil).Value)
		assert.NotNil(t, NewConfidenceScore(0.5, nil).Features)
	})
}
