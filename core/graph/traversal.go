package graph

import (
	"context"

	"github.com/siherrmann/lexgraph/model"
)

// IssueGraph exposes the issue hierarchy one edge at a time
type IssueGraph interface {
	IssueNeighbors(ctx context.Context, issueID string, tenant string) ([]model.IssueNeighbor, error)
}

// BFS performs breadth-first search over the issue hierarchy from a source issue,
// following broader and narrower edges alike. The source is returned first at hop 0
// and every reachable issue is returned once at its minimal hop count.
func BFS(ctx context.Context, g IssueGraph, sourceID string, tenant string, maxHops int) ([]model.IssueHop, error) {
	visited := map[string]bool{sourceID: true}
	queue := []model.IssueHop{{
		IssueID: sourceID,
		Hops:    0,
		Path:    []string{sourceID},
	}}

	var results []model.IssueHop
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]
		results = append(results, current)

		// Stop if we've reached max hops
		if current.Hops >= maxHops {
			continue
		}

		neighbors, err := g.IssueNeighbors(ctx, current.IssueID, tenant)
		if err != nil {
			return nil, err
		}

		for _, neighbor := range neighbors {
			if visited[neighbor.IssueID] {
				continue
			}
			visited[neighbor.IssueID] = true

			newPath := make([]string, len(current.Path), len(current.Path)+1)
			copy(newPath, current.Path)
			newPath = append(newPath, neighbor.IssueID)

			queue = append(queue, model.IssueHop{
				IssueID: neighbor.IssueID,
				Hops:    current.Hops + 1,
				Path:    newPath,
			})
		}
	}

	return results, nil
}

// Hierarchy collects the direct broader and narrower issues of an issue.
func Hierarchy(ctx context.Context, g IssueGraph, issueID string, tenant string) (*model.IssueHierarchy, error) {
	neighbors, err := g.IssueNeighbors(ctx, issueID, tenant)
	if err != nil {
		return nil, err
	}

	hierarchy := &model.IssueHierarchy{
		IssueID:  issueID,
		Broader:  []string{},
		Narrower: []string{},
	}
	for _, neighbor := range neighbors {
		switch neighbor.Relation {
		case model.IssueBroader:
			hierarchy.Broader = append(hierarchy.Broader, neighbor.IssueID)
		case model.IssueNarrower:
			hierarchy.Narrower = append(hierarchy.Narrower, neighbor.IssueID)
		}
	}

	return hierarchy, nil
}
