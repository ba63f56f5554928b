package vector

import (
	"context"

	"github.com/siherrmann/lexgraph/model"
)

// Index stores segment embeddings and answers similarity queries.
type Index interface {
	// SearchSimilar returns at most limit segments matching filters ordered by
	// similarity descending. Similarity is 1 - cosine distance clamped to [0, 1],
	// a nil threshold disables the similarity cut off.
	SearchSimilar(ctx context.Context, query []float32, filters model.Filters, limit int, threshold *float64) ([]model.VectorMatch, error)
	// UpsertSegments inserts segments or replaces those with the same segment id.
	UpsertSegments(ctx context.Context, segments []model.IndexedSegment) error
}
