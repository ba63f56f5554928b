package retrieval

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/siherrmann/lexgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	weights := model.DefaultScoringWeights()

	t.Run("Synthetic bundles are deterministic", func(t *testing.T) {
		request := model.RetrievalRequest{IssueText: "software patent infringement precedents", Tenant: "firm-a"}
		first := Synthesize(request, 5, weights)
		second := Synthesize(request, 5, weights)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Expected identical synthetic bundles (-first +second):\n%s", diff)
		}
	})

	t.Run("Template follows the area of law", func(t *testing.T) {
		patent := Synthesize(model.RetrievalRequest{IssueText: "Patent claim construction"}, 1, weights)
		contract := Synthesize(model.RetrievalRequest{IssueText: "breach of warranty"}, 1, weights)
		general := Synthesize(model.RetrievalRequest{IssueText: "standing to sue"}, 1, weights)

		assert.Equal(t, "synthetic-issue-patent-infringement", patent[0].Issue.ID)
		assert.Equal(t, "synthetic-issue-breach-of-contract", contract[0].Issue.ID)
		assert.Equal(t, "synthetic-issue-general", general[0].Issue.ID)
	})

	t.Run("Synthetic bundles are fully populated", func(t *testing.T) {
		bundles := Synthesize(model.RetrievalRequest{IssueText: "contract", Tenant: "firm-a", LawyerID: "lawyer-9", Jurisdiction: "CA"}, 3, weights)
		require.Len(t, bundles, 3)
		for _, b := range bundles {
			assert.True(t, b.Synthetic)
			assert.NotEmpty(t, b.Case.ID)
			assert.NotEmpty(t, b.Case.Caption)
			assert.NotNil(t, b.Case.FiledDate)
			assert.Equal(t, "CA", b.Case.Jurisdiction, "Expected requested jurisdiction")
			assert.NotEmpty(t, b.Issue.TaxonomyPath)
			require.NotNil(t, b.Lawyer)
			assert.Equal(t, "lawyer-9", b.Lawyer.ID)
			assert.Equal(t, "firm-a", b.Tenant)
			assert.Len(t, b.Segments, 3)
			assert.Equal(t, model.NeutralJudgeAlignment, b.Confidence.Features[model.FeatureJudgeAlignment])
		}
	})

	t.Run("Confidence never increases with rank", func(t *testing.T) {
		bundles := Synthesize(model.RetrievalRequest{IssueText: "anything"}, model.MaxLimit, weights)
		require.Len(t, bundles, model.MaxLimit)
		for i := 1; i < len(bundles); i++ {
			assert.LessOrEqual(t, bundles[i].Confidence.Value, bundles[i-1].Confidence.Value, "Expected bundle %d to rank below bundle %d", i, i-1)
		}
		assert.Greater(t, bundles[0].Confidence.Value, 0.0)
	})

	t.Run("Zero limit yields no bundles", func(t *testing.T) {
		assert.Empty(t, Synthesize(model.RetrievalRequest{IssueText: "anything"}, 0, weights))
	})
}
