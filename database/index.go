package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/lexgraph/helper"
)

// Vector index types
const (
	IndexTypeHNSW    = "hnsw"
	IndexTypeIVFFlat = "ivfflat"
)

// IndexParams are the creation parameters of a vector index.
// Zero values select the defaults (m 16, ef_construction 64, lists 100).
type IndexParams struct {
	M              int
	EfConstruction int
	Lists          int
}

// ChangeIndexType replaces the segment embedding index with an HNSW or IVFFlat index
func (h *SegmentsDBHandler) ChangeIndexType(ctx context.Context, indexType string, params IndexParams) error {
	var createIndexSQL string

	switch indexType {
	case IndexTypeHNSW:
		m := 16
		efConstruction := 64
		if params.M > 0 {
			m = params.M
		}
		if params.EfConstruction > 0 {
			efConstruction = params.EfConstruction
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_argument_segments_embedding ON argument_segments USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case IndexTypeIVFFlat:
		lists := 100
		if params.Lists > 0 {
			lists = params.Lists
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_argument_segments_embedding ON argument_segments USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("%w: unsupported index type %s (use 'hnsw' or 'ivfflat')", helper.ErrValidation, indexType))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_argument_segments_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = tx.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit index change", err)
	}

	h.db.Logger.Info("Changed vector index", "type", indexType, "m", params.M, "ef_construction", params.EfConstruction, "lists", params.Lists)

	return nil
}

// IndexType returns the access method of the segment embedding index
func (h *SegmentsDBHandler) IndexType(ctx context.Context) (string, error) {
	var method string
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT am.amname
		FROM pg_class c
		JOIN pg_am am ON am.oid = c.relam
		WHERE c.relname = 'idx_argument_segments_embedding'`,
	).Scan(&method)
	if err != nil {
		return "", helper.NewError("select index type", err)
	}

	return method, nil
}
