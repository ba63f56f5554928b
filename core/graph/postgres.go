package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/siherrmann/lexgraph/database"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

// PostgresStore is a Store backed by the graph tables and functions of sql/graph.sql
type PostgresStore struct {
	nodes   database.NodesDBHandlerFunctions
	rels    database.RelationshipsDBHandlerFunctions
	logger  *slog.Logger
	timeout time.Duration
}

// NewPostgresStore combines the node and relationship handlers, every call is bounded by timeout.
func NewPostgresStore(nodes database.NodesDBHandlerFunctions, rels database.RelationshipsDBHandlerFunctions, logger *slog.Logger, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{
		nodes:   nodes,
		rels:    rels,
		logger:  logger,
		timeout: timeout,
	}
}

func (p *PostgresStore) UpsertNode(ctx context.Context, node model.Node) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.nodes.UpsertNode(ctx, &node)
}

func (p *PostgresStore) UpsertRelationship(ctx context.Context, rel model.Relationship) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.rels.UpsertRelationship(ctx, &rel)
}

func (p *PostgresStore) IssueNeighbors(ctx context.Context, issueID string, tenant string) ([]model.IssueNeighbor, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.rels.SelectIssueNeighbors(ctx, issueID, tenant)
}

// ExpandIssue runs the traversal as a single recursive query.
func (p *PostgresStore) ExpandIssue(ctx context.Context, issueID string, tenant string, maxHops int) ([]model.IssueHop, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	hops, err := p.rels.ExpandIssue(ctx, issueID, tenant, maxHops)
	if err != nil {
		p.logger.Error("Error expanding issue", "issue_id", issueID, "error", err)
		return nil, helper.NewError("expand issue", err)
	}
	return hops, nil
}

func (p *PostgresStore) IssueHierarchy(ctx context.Context, issueID string, tenant string) (*model.IssueHierarchy, error) {
	return Hierarchy(ctx, p, issueID, tenant)
}

func (p *PostgresStore) FindIssues(ctx context.Context, text string, tenant string, limit int) ([]model.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	issues, err := p.nodes.SearchIssues(ctx, text, tenant, limit)
	if err != nil {
		p.logger.Error("Error finding issues", "error", err)
		return nil, helper.NewError("find issues", err)
	}
	return issues, nil
}

// ArgumentsForIssues over-fetches when filters beyond the tenant apply, they are evaluated here.
func (p *PostgresStore) ArgumentsForIssues(ctx context.Context, issues []model.IssueHop, filters model.Filters, limit int) ([]model.ArgumentPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fetch := limit
	extra := filters
	extra.Tenant = ""
	if !extra.IsEmpty() {
		fetch = limit * 4
	}

	issueIDs := make([]string, len(issues))
	hops := make([]int, len(issues))
	for i, issue := range issues {
		issueIDs[i] = issue.IssueID
		hops[i] = issue.Hops
	}

	arguments, err := p.nodes.SelectArgumentsForIssues(ctx, issueIDs, hops, filters.Tenant, fetch)
	if err != nil {
		p.logger.Error("Error selecting arguments for issues", "error", err)
		return nil, helper.NewError("arguments for issues", err)
	}

	filtered := []model.ArgumentPayload{}
	for _, argument := range arguments {
		if !filters.MatchesArgument(argument) {
			continue
		}
		filtered = append(filtered, argument)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered, nil
}

func (p *PostgresStore) ArgumentsByLawyer(ctx context.Context, lawyerID string, tenant string) ([]model.ArgumentPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	arguments, err := p.nodes.SelectArgumentsByLawyer(ctx, lawyerID, tenant)
	if err != nil {
		return nil, helper.NewError("arguments by lawyer", err)
	}
	return arguments, nil
}

func (p *PostgresStore) BoostSignals(ctx context.Context, argumentID string, tenant string, judgeID string) (*model.BoostSignals, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.rels.SelectArgumentBoostSignals(ctx, argumentID, tenant, judgeID)
}
