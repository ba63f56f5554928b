package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	loadSql "github.com/siherrmann/lexgraph/sql"
)

// NodesDBHandlerFunctions defines the interface for graph node database operations.
type NodesDBHandlerFunctions interface {
	UpsertNode(ctx context.Context, node *model.Node) error
	SelectNode(ctx context.Context, label model.NodeLabel, id string, tenant string) (*model.Node, error)
	SearchIssues(ctx context.Context, text string, tenant string, limit int) ([]model.Issue, error)
	SelectArgumentsForIssues(ctx context.Context, issueIDs []string, hops []int, tenant string, limit int) ([]model.ArgumentPayload, error)
	SelectArgumentsByLawyer(ctx context.Context, lawyerID string, tenant string) ([]model.ArgumentPayload, error)
}

// NodesDBHandler handles graph node database operations
type NodesDBHandler struct {
	db *helper.Database
}

// NewNodesDBHandler creates a new nodes database handler.
// It initializes the database connection and loads graph-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(db *helper.Database, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	nodesDbHandler := &NodesDBHandler{
		db: db,
	}

	err := loadSql.LoadGraphSql(nodesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	err = nodesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'graph_nodes' and 'graph_relationships' tables.
// If the tables already exist, it does not create them again.
func (h *NodesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_graph();`)
	if err != nil {
		log.Panicf("error initializing graph tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created table graph_nodes")

	return nil
}

// UpsertNode inserts a node or merges its properties into the node with the same label, id and tenant
func (h *NodesDBHandler) UpsertNode(ctx context.Context, node *model.Node) error {
	if node.Label == "" || node.ID == "" {
		return helper.NewError("upsert node", fmt.Errorf("%w: label and id are required", helper.ErrValidation))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_node($1, $2, $3, $4)`,
		string(node.Label),
		node.ID,
		node.Tenant,
		node.Properties,
	)

	err := row.Scan(
		&node.Properties,
		&node.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNode retrieves a node, returning nil if it does not exist
func (h *NodesDBHandler) SelectNode(ctx context.Context, label model.NodeLabel, id string, tenant string) (*model.Node, error) {
	node := &model.Node{
		Label:  label,
		ID:     id,
		Tenant: tenant,
	}

	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_node($1, $2, $3)`,
		string(label),
		id,
		tenant,
	).Scan(
		&node.Properties,
		&node.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SearchIssues returns the issues whose title best matches text
func (h *NodesDBHandler) SearchIssues(ctx context.Context, text string, tenant string, limit int) ([]model.Issue, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_issues($1, $2, $3)`,
		text,
		tenant,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var issueID string
		var properties model.Metadata
		var score float64
		if err := rows.Scan(&issueID, &properties, &score); err != nil {
			return nil, helper.NewError("scan", err)
		}

		issue := model.Issue{}
		if err := properties.Decode(&issue); err != nil {
			h.db.Logger.Debug("Skipping issue with malformed properties", "issue_id", issueID, "error", err)
			continue
		}
		issue.ID = issueID
		issues = append(issues, issue)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return issues, nil
}

// SelectArgumentsForIssues returns the denormalized arguments addressing any of the issues.
// hops[i] is the distance of issueIDs[i], arguments come nearest issue first, then by id.
func (h *NodesDBHandler) SelectArgumentsForIssues(ctx context.Context, issueIDs []string, hops []int, tenant string, limit int) ([]model.ArgumentPayload, error) {
	if len(hops) != len(issueIDs) {
		return nil, helper.NewError("select arguments for issues", fmt.Errorf("%w: %d hops for %d issues", helper.ErrValidation, len(hops), len(issueIDs)))
	}
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_arguments_for_issues($1, $2, $3, $4)`,
		pq.Array(issueIDs),
		pq.Array(hops),
		tenant,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}

	return h.scanArguments(rows)
}

// SelectArgumentsByLawyer returns the denormalized arguments argued by a lawyer
func (h *NodesDBHandler) SelectArgumentsByLawyer(ctx context.Context, lawyerID string, tenant string) ([]model.ArgumentPayload, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_arguments_by_lawyer($1, $2)`,
		lawyerID,
		tenant,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}

	return h.scanArguments(rows)
}

func (h *NodesDBHandler) scanArguments(rows *sql.Rows) ([]model.ArgumentPayload, error) {
	defer rows.Close()

	var arguments []model.ArgumentPayload
	for rows.Next() {
		var argumentID string
		var raw []byte
		if err := rows.Scan(&argumentID, &raw); err != nil {
			return nil, helper.NewError("scan", err)
		}

		var payload model.ArgumentPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.db.Logger.Debug("Skipping argument with malformed properties", "argument_id", argumentID, "error", err)
			continue
		}
		payload.ArgumentID = argumentID
		arguments = append(arguments, payload)
	}

	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return arguments, nil
}
