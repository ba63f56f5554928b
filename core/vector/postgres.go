package vector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/siherrmann/lexgraph/database"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

// PostgresIndex is an Index backed by pgvector
type PostgresIndex struct {
	handler database.SegmentsDBHandlerFunctions
	logger  *slog.Logger
	timeout time.Duration
	retry   helper.RetryConfig
}

// NewPostgresIndex wraps a segments handler, every call is bounded by timeout.
func NewPostgresIndex(handler database.SegmentsDBHandlerFunctions, logger *slog.Logger, timeout time.Duration) *PostgresIndex {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresIndex{
		handler: handler,
		logger:  logger,
		timeout: timeout,
		retry:   helper.DefaultRetryConfig(),
	}
}

func (p *PostgresIndex) SearchSimilar(ctx context.Context, query []float32, filters model.Filters, limit int, threshold *float64) ([]model.VectorMatch, error) {
	matches, err := helper.Retry(ctx, p.retry, func() ([]model.VectorMatch, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		matches, err := p.handler.SelectSegmentsBySimilarity(callCtx, query, limit, threshold, filters)
		if err != nil && (errors.Is(err, helper.ErrValidation) || ctx.Err() != nil) {
			return nil, helper.Permanent(err)
		}
		return matches, err
	})
	if err != nil {
		p.logger.Error("Error searching similar segments", "error", err)
		return nil, helper.NewError("search similar", err)
	}
	if matches == nil {
		matches = []model.VectorMatch{}
	}

	return matches, nil
}

func (p *PostgresIndex) UpsertSegments(ctx context.Context, segments []model.IndexedSegment) error {
	for i := range segments {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.handler.UpsertSegment(callCtx, &segments[i])
		cancel()
		if err != nil {
			p.logger.Error("Error upserting segment", "segment_id", segments[i].Payload.Segment.SegmentID, "error", err)
			return helper.NewError("upsert segments", err)
		}
	}

	return nil
}
