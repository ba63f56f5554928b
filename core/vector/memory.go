package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

// MemoryIndex is a brute force in process Index
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	segments  []model.IndexedSegment
	position  map[string]int
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{
		dimension: dimension,
		position:  map[string]int{},
	}
}

func (m *MemoryIndex) UpsertSegments(ctx context.Context, segments []model.IndexedSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, segment := range segments {
		id := segment.Payload.Segment.SegmentID
		if id == "" || segment.Payload.Segment.ArgumentID == "" {
			return helper.NewError("upsert segments", fmt.Errorf("%w: segment_id and argument_id are required", helper.ErrValidation))
		}
		if len(segment.Embedding) != m.dimension {
			return helper.NewError("upsert segments", fmt.Errorf("%w: embedding has dimension %d, expected %d", helper.ErrValidation, len(segment.Embedding), m.dimension))
		}

		stored := model.IndexedSegment{Payload: segment.Payload, Embedding: append([]float32(nil), segment.Embedding...)}
		if i, ok := m.position[id]; ok {
			m.segments[i] = stored
			continue
		}
		m.position[id] = len(m.segments)
		m.segments = append(m.segments, stored)
	}

	return nil
}

func (m *MemoryIndex) SearchSimilar(ctx context.Context, query []float32, filters model.Filters, limit int, threshold *float64) ([]model.VectorMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != m.dimension {
		return nil, helper.NewError("search similar", fmt.Errorf("%w: query has dimension %d, expected %d", helper.ErrValidation, len(query), m.dimension))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := []model.VectorMatch{}
	for _, segment := range m.segments {
		if !filters.MatchesSegment(segment.Payload) {
			continue
		}
		similarity := model.Clamp01(CosineSimilarity(query, segment.Embedding))
		if threshold != nil && similarity < *threshold {
			continue
		}
		matches = append(matches, model.VectorMatch{Payload: segment.Payload, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Len returns the number of indexed segments.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.segments)
}

// CosineSimilarity returns the cosine of the angle between a and b, 0 if either is a zero vector.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
