package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	loadSql "github.com/siherrmann/lexgraph/sql"
)

// SegmentsDBHandlerFunctions defines the interface for argument segment database operations.
type SegmentsDBHandlerFunctions interface {
	UpsertSegment(ctx context.Context, segment *model.IndexedSegment) error
	SelectSegmentsBySimilarity(ctx context.Context, embedding []float32, limit int, threshold *float64, filters model.Filters) ([]model.VectorMatch, error)
	SelectSegmentsByArgument(ctx context.Context, argumentID string) ([]model.SegmentPayload, error)
	DeleteSegmentsByArgument(ctx context.Context, argumentID string) (int, error)
	CountSegments(ctx context.Context) (int64, error)
}

// SegmentsDBHandler handles argument segment database operations
type SegmentsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewSegmentsDBHandler creates a new segments database handler.
// It initializes the database connection and loads segment-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSegmentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*SegmentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim < 1 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("%w: embedding dimension must be positive, got %d", helper.ErrConfiguration, embeddingDim))
	}

	segmentsDbHandler := &SegmentsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadSegmentsSql(segmentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load segments sql", err)
	}

	err = segmentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SegmentsDBHandler")

	return segmentsDbHandler, nil
}

// CreateTable creates the 'argument_segments' table with its indexes.
// If the table already exists, it does not create it again.
func (h *SegmentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_segments($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing argument_segments table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table argument_segments")

	return nil
}

// UpsertSegment inserts a segment or updates the one with the same segment id
func (h *SegmentsDBHandler) UpsertSegment(ctx context.Context, segment *model.IndexedSegment) error {
	if segment.Payload.Segment.SegmentID == "" || segment.Payload.Segment.ArgumentID == "" {
		return helper.NewError("upsert segment", fmt.Errorf("%w: segment_id and argument_id are required", helper.ErrValidation))
	}
	if len(segment.Embedding) != 0 && len(segment.Embedding) != h.embeddingDim {
		return helper.NewError("upsert segment", fmt.Errorf("%w: embedding has dimension %d, expected %d", helper.ErrValidation, len(segment.Embedding), h.embeddingDim))
	}

	payload, err := json.Marshal(segment.Payload)
	if err != nil {
		return helper.NewError("marshal payload", err)
	}

	var embedding interface{}
	if len(segment.Embedding) > 0 {
		embedding = pgvector.NewVector(segment.Embedding)
	}

	var issueID interface{}
	if segment.Payload.Issue != nil && segment.Payload.Issue.ID != "" {
		issueID = segment.Payload.Issue.ID
	}

	filedYear := segment.Payload.FiledYear
	if filedYear == 0 && segment.Payload.Case != nil {
		filedYear = segment.Payload.Case.FiledYear()
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_segment($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		segment.Payload.Segment.SegmentID,
		segment.Payload.Segment.ArgumentID,
		segment.Payload.Tenant,
		segment.Payload.Segment.Seq,
		segment.Payload.Segment.Text,
		embedding,
		payload,
		issueID,
		nullInt(filedYear),
	)

	var id int64
	var createdAt, updatedAt time.Time
	err = row.Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectSegmentsBySimilarity returns the segments closest to embedding that match filters,
// ordered by similarity descending. Similarity is 1 - cosine distance clamped to [0, 1].
func (h *SegmentsDBHandler) SelectSegmentsBySimilarity(ctx context.Context, embedding []float32, limit int, threshold *float64, filters model.Filters) ([]model.VectorMatch, error) {
	must, err := filters.Containment().Value()
	if err != nil {
		return nil, helper.NewError("marshal filters", err)
	}

	var thresholdValue interface{}
	if threshold != nil {
		thresholdValue = *threshold
	}

	var issueIDs interface{}
	if len(filters.IssueIDs) > 0 {
		issueIDs = pq.Array(filters.IssueIDs)
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_segments_by_similarity($1, $2, $3, $4, $5, $6, $7)`,
		pgvector.NewVector(embedding),
		limit,
		thresholdValue,
		must,
		issueIDs,
		nullInt(filters.FiledYearFrom),
		nullInt(filters.FiledYearTo),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var matches []model.VectorMatch
	for rows.Next() {
		var segmentID string
		var payload []byte
		var similarity float64
		err := rows.Scan(&segmentID, &payload, &similarity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		match := model.VectorMatch{Similarity: similarity}
		if err := json.Unmarshal(payload, &match.Payload); err != nil {
			h.db.Logger.Debug("Skipping segment with malformed payload", "segment_id", segmentID, "error", err)
			continue
		}
		matches = append(matches, match)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return matches, nil
}

// SelectSegmentsByArgument returns the payloads of an argument's segments ordered by seq
func (h *SegmentsDBHandler) SelectSegmentsByArgument(ctx context.Context, argumentID string) ([]model.SegmentPayload, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_segments_by_argument($1)`,
		argumentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var payloads []model.SegmentPayload
	for rows.Next() {
		var segmentID string
		var raw []byte
		if err := rows.Scan(&segmentID, &raw); err != nil {
			return nil, helper.NewError("scan", err)
		}

		var payload model.SegmentPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, helper.NewError("unmarshal payload", fmt.Errorf("%w: segment %s: %v", helper.ErrProviderData, segmentID, err))
		}
		payloads = append(payloads, payload)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return payloads, nil
}

// DeleteSegmentsByArgument deletes all segments of an argument and returns how many were deleted
func (h *SegmentsDBHandler) DeleteSegmentsByArgument(ctx context.Context, argumentID string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT delete_segments_by_argument($1)`,
		argumentID,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("delete", err)
	}

	return deleted, nil
}

// CountSegments returns the number of indexed segments
func (h *SegmentsDBHandler) CountSegments(ctx context.Context) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_segments()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count", err)
	}

	return count, nil
}

func nullInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
