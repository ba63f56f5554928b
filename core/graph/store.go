package graph

import (
	"context"

	"github.com/siherrmann/lexgraph/model"
)

// Store is the knowledge graph of cases, lawyers, judges, issues, arguments and citations.
type Store interface {
	IssueGraph

	// UpsertNode merges a node by label, id and tenant.
	UpsertNode(ctx context.Context, node model.Node) error
	// UpsertRelationship merges an edge by type and endpoints.
	UpsertRelationship(ctx context.Context, rel model.Relationship) error

	// ExpandIssue returns the issues within maxHops of issueID, the issue itself at hop 0.
	ExpandIssue(ctx context.Context, issueID string, tenant string, maxHops int) ([]model.IssueHop, error)
	// FindIssues resolves anchor issues from free text, best match first.
	FindIssues(ctx context.Context, text string, tenant string, limit int) ([]model.Issue, error)
	// IssueHierarchy returns the direct broader and narrower issues.
	IssueHierarchy(ctx context.Context, issueID string, tenant string) (*model.IssueHierarchy, error)

	// ArgumentsForIssues returns the arguments addressing any of the issues that match filters,
	// ordered by the smallest hop count of the issues they address, then by argument id.
	ArgumentsForIssues(ctx context.Context, issues []model.IssueHop, filters model.Filters, limit int) ([]model.ArgumentPayload, error)
	// ArgumentsByLawyer returns every argument a lawyer argued.
	ArgumentsByLawyer(ctx context.Context, lawyerID string, tenant string) ([]model.ArgumentPayload, error)

	// BoostSignals returns the graph facts the boosts of an argument are derived from.
	BoostSignals(ctx context.Context, argumentID string, tenant string, judgeID string) (*model.BoostSignals, error)
}
