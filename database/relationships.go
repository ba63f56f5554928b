package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	loadSql "github.com/siherrmann/lexgraph/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for graph relationship database operations.
type RelationshipsDBHandlerFunctions interface {
	UpsertRelationship(ctx context.Context, rel *model.Relationship) error
	CountRelationships(ctx context.Context, relType model.RelationshipType, sourceID string, targetID string, tenant string) (int64, error)
	SelectIssueNeighbors(ctx context.Context, issueID string, tenant string) ([]model.IssueNeighbor, error)
	ExpandIssue(ctx context.Context, issueID string, tenant string, maxHops int) ([]model.IssueHop, error)
	SelectArgumentBoostSignals(ctx context.Context, argumentID string, tenant string, judgeID string) (*model.BoostSignals, error)
}

// RelationshipsDBHandler handles graph relationship database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// The graph tables are created by the NodesDBHandler, the SQL functions are
// loaded again here so the handler can be used on its own.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadGraphSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	_, err = db.Instance.Exec(`SELECT init_graph();`)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return &RelationshipsDBHandler{db: db}, nil
}

// UpsertRelationship inserts a relationship or merges its properties into the one with the same type and endpoints
func (h *RelationshipsDBHandler) UpsertRelationship(ctx context.Context, rel *model.Relationship) error {
	if rel.Type == "" || rel.SourceID == "" || rel.TargetID == "" {
		return helper.NewError("upsert relationship", fmt.Errorf("%w: type, source and target are required", helper.ErrValidation))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_relationship($1, $2, $3, $4, $5, $6, $7)`,
		string(rel.Type),
		string(rel.SourceLabel),
		rel.SourceID,
		string(rel.TargetLabel),
		rel.TargetID,
		rel.Tenant,
		rel.Properties,
	)

	err := row.Scan(
		&rel.Properties,
		&rel.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// CountRelationships counts relationships of a type between two nodes
func (h *RelationshipsDBHandler) CountRelationships(ctx context.Context, relType model.RelationshipType, sourceID string, targetID string, tenant string) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT count_relationships($1, $2, $3, $4)`,
		string(relType),
		sourceID,
		targetID,
		tenant,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count", err)
	}

	return count, nil
}

// SelectIssueNeighbors returns the issues one broader or narrower edge away, in either direction.
// The relation is relative to issueID.
func (h *RelationshipsDBHandler) SelectIssueNeighbors(ctx context.Context, issueID string, tenant string) ([]model.IssueNeighbor, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_issue_neighbors($1, $2)`,
		issueID,
		tenant,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var neighbors []model.IssueNeighbor
	for rows.Next() {
		neighbor := model.IssueNeighbor{}
		var relation string
		if err := rows.Scan(&neighbor.IssueID, &relation); err != nil {
			return nil, helper.NewError("scan", err)
		}
		neighbor.Relation = model.IssueRelation(relation)
		neighbors = append(neighbors, neighbor)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return neighbors, nil
}

// ExpandIssue walks the issue hierarchy in both directions up to maxHops.
// Every reachable issue is returned once with its minimal hop count, the start issue at hop 0.
func (h *RelationshipsDBHandler) ExpandIssue(ctx context.Context, issueID string, tenant string, maxHops int) ([]model.IssueHop, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM expand_issue($1, $2, $3)`,
		issueID,
		tenant,
		maxHops,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hops []model.IssueHop
	for rows.Next() {
		hop := model.IssueHop{}
		if err := rows.Scan(&hop.IssueID, &hop.Hops, pq.Array(&hop.Path)); err != nil {
			return nil, helper.NewError("scan", err)
		}
		hops = append(hops, hop)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hops, nil
}

// SelectArgumentBoostSignals returns the graph facts the boosts of an argument are computed from
func (h *RelationshipsDBHandler) SelectArgumentBoostSignals(ctx context.Context, argumentID string, tenant string, judgeID string) (*model.BoostSignals, error) {
	signals := &model.BoostSignals{}
	var disposition string

	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_argument_boost_signals($1, $2, $3)`,
		argumentID,
		tenant,
		judgeID,
	).Scan(
		&signals.JudgeMatch,
		&signals.CitationCount,
		&disposition,
		&signals.RelatedIssues,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	signals.Disposition = model.Disposition(disposition)

	return signals, nil
}
