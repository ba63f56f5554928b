package vector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segment(segmentID, argumentID, jurisdiction string, embedding ...float32) model.IndexedSegment {
	return model.IndexedSegment{
		Payload: model.SegmentPayload{
			Segment: model.ArgumentSegment{SegmentID: segmentID, ArgumentID: argumentID, Text: "text " + segmentID},
			Tenant:  "firm-a",
			Case:    &model.Case{ID: "case-" + argumentID, Jurisdiction: jurisdiction},
		},
		Embedding: embedding,
	}
}

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty index returns empty result", func(t *testing.T) {
		index := NewMemoryIndex(2)
		matches, err := index.SearchSimilar(ctx, []float32{1, 0}, model.Filters{}, 10, nil)
		assert.NoError(t, err)
		assert.NotNil(t, matches, "Expected an empty slice, not nil")
		assert.Empty(t, matches)
	})

	index := NewMemoryIndex(2)
	require.NoError(t, index.UpsertSegments(ctx, []model.IndexedSegment{
		segment("s1", "a1", "CAFC", 1, 0),
		segment("s2", "a2", "CAFC", 1, 1),
		segment("s3", "a3", "N.D. Cal.", 0, 1),
		segment("s4", "a4", "CAFC", -1, 0),
	}))

	t.Run("Search orders by similarity and clamps negatives", func(t *testing.T) {
		matches, err := index.SearchSimilar(ctx, []float32{1, 0}, model.Filters{}, 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 4)
		assert.Equal(t, "s1", matches[0].Payload.Segment.SegmentID)
		assert.Equal(t, "s2", matches[1].Payload.Segment.SegmentID)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
		assert.Equal(t, 0.0, matches[3].Similarity, "Expected opposite vector to be clamped to 0")
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
		}
	})

	t.Run("Search applies limit, filters and threshold", func(t *testing.T) {
		matches, err := index.SearchSimilar(ctx, []float32{1, 0}, model.Filters{}, 2, nil)
		require.NoError(t, err)
		assert.Len(t, matches, 2)

		matches, err = index.SearchSimilar(ctx, []float32{1, 0}, model.Filters{Jurisdiction: "N.D. Cal."}, 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "s3", matches[0].Payload.Segment.SegmentID)

		threshold := 0.5
		matches, err = index.SearchSimilar(ctx, []float32{1, 0}, model.Filters{}, 10, &threshold)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("Upsert replaces by segment id", func(t *testing.T) {
		require.NoError(t, index.UpsertSegments(ctx, []model.IndexedSegment{segment("s4", "a4", "CAFC", 1, 0)}))
		assert.Equal(t, 4, index.Len())
	})

	t.Run("Upsert rejects wrong dimension", func(t *testing.T) {
		err := index.UpsertSegments(ctx, []model.IndexedSegment{segment("s5", "a5", "CAFC", 1, 0, 0)})
		assert.ErrorIs(t, err, helper.ErrValidation)
	})

	t.Run("Search rejects wrong query dimension", func(t *testing.T) {
		_, err := index.SearchSimilar(ctx, []float32{1}, model.Filters{}, 10, nil)
		assert.ErrorIs(t, err, helper.ErrValidation)
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("Cosine of parallel vectors is one", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	})

	t.Run("Cosine with zero vector is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	})
}

type fakeSegmentsHandler struct {
	failures int
	calls    int
	err      error
	matches  []model.VectorMatch
	upserted []string
}

func (f *fakeSegmentsHandler) UpsertSegment(ctx context.Context, segment *model.IndexedSegment) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, segment.Payload.Segment.SegmentID)
	return nil
}

func (f *fakeSegmentsHandler) SelectSegmentsBySimilarity(ctx context.Context, embedding []float32, limit int, threshold *float64, filters model.Filters) ([]model.VectorMatch, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeSegmentsHandler) SelectSegmentsByArgument(ctx context.Context, argumentID string) ([]model.SegmentPayload, error) {
	return nil, nil
}

func (f *fakeSegmentsHandler) DeleteSegmentsByArgument(ctx context.Context, argumentID string) (int, error) {
	return 0, nil
}

func (f *fakeSegmentsHandler) CountSegments(ctx context.Context) (int64, error) {
	return int64(len(f.upserted)), nil
}

func TestPostgresIndex(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Transient failures are retried", func(t *testing.T) {
		handler := &fakeSegmentsHandler{failures: 2, err: errors.New("connection reset"), matches: []model.VectorMatch{{Similarity: 0.9}}}
		index := NewPostgresIndex(handler, logger, time.Second)
		index.retry.InitialInterval = time.Millisecond

		matches, err := index.SearchSimilar(ctx, []float32{1}, model.Filters{}, 5, nil)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
		assert.Equal(t, 3, handler.calls, "Expected two retries")
	})

	t.Run("Persistent failure is returned", func(t *testing.T) {
		handler := &fakeSegmentsHandler{failures: 10, err: errors.New("down")}
		index := NewPostgresIndex(handler, logger, time.Second)
		index.retry.InitialInterval = time.Millisecond

		_, err := index.SearchSimilar(ctx, []float32{1}, model.Filters{}, 5, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "search similar")
	})

	t.Run("Validation errors are not retried", func(t *testing.T) {
		handler := &fakeSegmentsHandler{failures: 10, err: helper.ErrValidation}
		index := NewPostgresIndex(handler, logger, time.Second)

		_, err := index.SearchSimilar(ctx, []float32{1}, model.Filters{}, 5, nil)
		assert.ErrorIs(t, err, helper.ErrValidation)
		assert.Equal(t, 1, handler.calls)
	})

	t.Run("Empty result is an empty slice", func(t *testing.T) {
		index := NewPostgresIndex(&fakeSegmentsHandler{}, logger, time.Second)
		matches, err := index.SearchSimilar(ctx, []float32{1}, model.Filters{}, 5, nil)
		assert.NoError(t, err)
		assert.NotNil(t, matches)
	})

	t.Run("Upsert forwards every segment", func(t *testing.T) {
		handler := &fakeSegmentsHandler{}
		index := NewPostgresIndex(handler, logger, time.Second)
		err := index.UpsertSegments(ctx, []model.IndexedSegment{segment("s1", "a1", "CAFC", 1), segment("s2", "a1", "CAFC", 1)})
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2"}, handler.upserted)
	})
}
