package pipeline

import (
	"context"
	"testing"

	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentTexts(segments []model.ArgumentSegment) []string {
	texts := []string{}
	for _, s := range segments {
		texts = append(texts, s.Text)
	}
	return texts
}

func TestSentenceSegmenter(t *testing.T) {
	ctx := context.Background()

	t.Run("Groups sentences and keeps abbreviations intact", func(t *testing.T) {
		text := "In Alice Corp. v. CLS Bank the Court ruled. The claims failed! Why would they pass? They recite 35 U.S.C. § 101 subject matter."
		segments, err := SentenceSegmenter(2)(ctx, text, "arg-1")
		require.NoError(t, err)

		assert.Equal(t, []string{
			"In Alice Corp. v. CLS Bank the Court ruled. The claims failed!",
			"Why would they pass? They recite 35 U.S.C. § 101 subject matter.",
		}, segmentTexts(segments))
		assert.Equal(t, 0, segments[0].Seq)
		assert.Equal(t, 1, segments[1].Seq)
		assert.Equal(t, model.RoleOpening, segments[0].Role)
		assert.Equal(t, model.RoleClosing, segments[1].Role)
		assert.Equal(t, "arg-1", segments[1].ArgumentID)
	})

	t.Run("Trailing text without punctuation is a sentence", func(t *testing.T) {
		segments, err := SentenceSegmenter(5)(ctx, "First. And then some", "arg-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"First. And then some"}, segmentTexts(segments))
	})

	t.Run("Empty text yields no segments", func(t *testing.T) {
		segments, err := SentenceSegmenter(3)(ctx, "   ", "arg-1")
		require.NoError(t, err)
		assert.Empty(t, segments)
	})

	t.Run("Non-positive size is a configuration error", func(t *testing.T) {
		_, err := SentenceSegmenter(0)(ctx, "Text.", "arg-1")
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}

func TestParagraphSegmenter(t *testing.T) {
	t.Run("Splits at blank lines and normalizes whitespace", func(t *testing.T) {
		text := "First paragraph\nwraps here.\r\n\r\nSecond paragraph.\n\n\n\nThird."
		segments, err := ParagraphSegmenter()(context.Background(), text, "arg-1")
		require.NoError(t, err)

		assert.Equal(t, []string{"First paragraph wraps here.", "Second paragraph.", "Third."}, segmentTexts(segments))
		assert.Equal(t, model.RoleRebuttal, segments[1].Role)
	})
}

func TestSemanticSegmenter(t *testing.T) {
	ctx := context.Background()

	t.Run("Splits where the topic changes", func(t *testing.T) {
		text := "Patent claims are abstract. Patent law bars them. Contract terms were clear. Contract remedies are limited."
		segments, err := SemanticSegmenter(&topicProvider{}, 1000, 0.5)(ctx, text, "arg-1")
		require.NoError(t, err)

		assert.Equal(t, []string{
			"Patent claims are abstract. Patent law bars them.",
			"Contract terms were clear. Contract remedies are limited.",
		}, segmentTexts(segments))
	})

	t.Run("Splits at the size limit", func(t *testing.T) {
		text := "Patent one. Patent two. Patent three."
		segments, err := SemanticSegmenter(&topicProvider{}, 12, 0.5)(ctx, text, "arg-1")
		require.NoError(t, err)
		assert.Len(t, segments, 3)
	})

	t.Run("Provider errors are returned", func(t *testing.T) {
		_, err := SemanticSegmenter(&failingProvider{}, 100, 0.5)(ctx, "One. Two.", "arg-1")
		assert.ErrorIs(t, err, helper.ErrProviderTransient)
	})

	t.Run("Missing provider is a configuration error", func(t *testing.T) {
		_, err := SemanticSegmenter(nil, 100, 0.5)(ctx, "One.", "arg-1")
		assert.ErrorIs(t, err, helper.ErrConfiguration)
	})
}
