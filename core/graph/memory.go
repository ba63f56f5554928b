package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
)

type nodeKey struct {
	label  model.NodeLabel
	id     string
	tenant string
}

type relKey struct {
	relType  model.RelationshipType
	sourceID string
	targetID string
	tenant   string
}

// MemoryStore is an in process Store
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[nodeKey]model.Node
	rels  map[relKey]model.Relationship
	order []relKey
}

// NewMemoryStore creates an empty graph.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: map[nodeKey]model.Node{},
		rels:  map[relKey]model.Relationship{},
	}
}

func (m *MemoryStore) UpsertNode(ctx context.Context, node model.Node) error {
	if node.Label == "" || node.ID == "" {
		return helper.NewError("upsert node", fmt.Errorf("%w: label and id are required", helper.ErrValidation))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := nodeKey{node.Label, node.ID, node.Tenant}
	if existing, ok := m.nodes[key]; ok {
		node.Properties = mergeProperties(existing.Properties, node.Properties)
	} else {
		node.Properties = mergeProperties(nil, node.Properties)
	}
	m.nodes[key] = node

	return nil
}

func (m *MemoryStore) UpsertRelationship(ctx context.Context, rel model.Relationship) error {
	if rel.Type == "" || rel.SourceID == "" || rel.TargetID == "" {
		return helper.NewError("upsert relationship", fmt.Errorf("%w: type, source and target are required", helper.ErrValidation))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := relKey{rel.Type, rel.SourceID, rel.TargetID, rel.Tenant}
	if existing, ok := m.rels[key]; ok {
		rel.Properties = mergeProperties(existing.Properties, rel.Properties)
	} else {
		rel.Properties = mergeProperties(nil, rel.Properties)
		m.order = append(m.order, key)
	}
	m.rels[key] = rel

	return nil
}

// Node returns a stored node.
func (m *MemoryStore) Node(label model.NodeLabel, id string, tenant string) (model.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[nodeKey{label, id, tenant}]
	return node, ok
}

// RelationshipCount returns the number of stored edges.
func (m *MemoryStore) RelationshipCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rels)
}

func (m *MemoryStore) IssueNeighbors(ctx context.Context, issueID string, tenant string) ([]model.IssueNeighbor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[model.IssueNeighbor]bool{}
	neighbors := []model.IssueNeighbor{}
	add := func(neighbor model.IssueNeighbor) {
		if neighbor.IssueID == issueID || seen[neighbor] {
			return
		}
		seen[neighbor] = true
		neighbors = append(neighbors, neighbor)
	}

	for _, key := range m.order {
		if key.tenant != tenant || (key.relType != model.RelBroaderThan && key.relType != model.RelNarrowerThan) {
			continue
		}
		broader := key.relType == model.RelBroaderThan
		switch issueID {
		case key.sourceID:
			relation := model.IssueBroader
			if broader {
				relation = model.IssueNarrower
			}
			add(model.IssueNeighbor{IssueID: key.targetID, Relation: relation})
		case key.targetID:
			relation := model.IssueNarrower
			if broader {
				relation = model.IssueBroader
			}
			add(model.IssueNeighbor{IssueID: key.sourceID, Relation: relation})
		}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].IssueID < neighbors[j].IssueID
	})
	return neighbors, nil
}

func (m *MemoryStore) ExpandIssue(ctx context.Context, issueID string, tenant string, maxHops int) ([]model.IssueHop, error) {
	return BFS(ctx, m, issueID, tenant, maxHops)
}

func (m *MemoryStore) IssueHierarchy(ctx context.Context, issueID string, tenant string) (*model.IssueHierarchy, error) {
	return Hierarchy(ctx, m, issueID, tenant)
}

// FindIssues ranks issues by the share of their title terms found in text.
func (m *MemoryStore) FindIssues(ctx context.Context, text string, tenant string, limit int) ([]model.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queryTerms := map[string]bool{}
	for _, term := range terms(text) {
		queryTerms[term] = true
	}

	type scored struct {
		issue model.Issue
		score float64
	}
	var candidates []scored
	for key, node := range m.nodes {
		if key.label != model.NodeIssue || key.tenant != tenant {
			continue
		}
		issue := model.Issue{}
		if err := node.Properties.Decode(&issue); err != nil {
			continue
		}
		issue.ID = key.id

		titleTerms := terms(issue.Title)
		if len(titleTerms) == 0 {
			continue
		}
		hits := 0
		for _, term := range titleTerms {
			if queryTerms[term] {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		candidates = append(candidates, scored{issue: issue, score: float64(hits) / float64(len(titleTerms))})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].issue.ID < candidates[j].issue.ID
	})

	issues := []model.Issue{}
	for i, c := range candidates {
		if limit > 0 && i >= limit {
			break
		}
		issues = append(issues, c.issue)
	}
	return issues, nil
}

func (m *MemoryStore) ArgumentsForIssues(ctx context.Context, issues []model.IssueHop, filters model.Filters, limit int) ([]model.ArgumentPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := map[string]int{}
	for _, issue := range issues {
		if hops, ok := wanted[issue.IssueID]; !ok || issue.Hops < hops {
			wanted[issue.IssueID] = issue.Hops
		}
	}

	nearest := map[string]int{}
	var argumentIDs []string
	for _, key := range m.order {
		if key.relType != model.RelAddresses || key.tenant != filters.Tenant {
			continue
		}
		hops, ok := wanted[key.targetID]
		if !ok {
			continue
		}
		existing, seen := nearest[key.sourceID]
		if !seen {
			argumentIDs = append(argumentIDs, key.sourceID)
		}
		if !seen || hops < existing {
			nearest[key.sourceID] = hops
		}
	}
	sort.Slice(argumentIDs, func(i, j int) bool {
		a, b := argumentIDs[i], argumentIDs[j]
		if nearest[a] != nearest[b] {
			return nearest[a] < nearest[b]
		}
		return a < b
	})

	return m.payloads(argumentIDs, filters, limit), nil
}

func (m *MemoryStore) ArgumentsByLawyer(ctx context.Context, lawyerID string, tenant string) ([]model.ArgumentPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var argumentIDs []string
	for _, key := range m.order {
		if key.relType == model.RelArgued && key.tenant == tenant && key.sourceID == lawyerID {
			argumentIDs = append(argumentIDs, key.targetID)
		}
	}
	sort.Strings(argumentIDs)

	return m.payloads(argumentIDs, model.Filters{Tenant: tenant}, 0), nil
}

func (m *MemoryStore) BoostSignals(ctx context.Context, argumentID string, tenant string, judgeID string) (*model.BoostSignals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	signals := &model.BoostSignals{}
	citations := map[string]bool{}
	var cases, issues []string
	for _, key := range m.order {
		if key.tenant != tenant || key.sourceID != argumentID {
			continue
		}
		switch key.relType {
		case model.RelCites:
			citations[key.targetID] = true
		case model.RelInCase:
			cases = append(cases, key.targetID)
		case model.RelAddresses:
			issues = append(issues, key.targetID)
		}
	}
	signals.CitationCount = len(citations)

	if judgeID != "" {
		for _, caseID := range cases {
			if _, ok := m.rels[relKey{model.RelHeardBy, caseID, judgeID, tenant}]; ok {
				signals.JudgeMatch = true
				break
			}
		}
	}

	if node, ok := m.nodes[nodeKey{model.NodeArgument, argumentID, tenant}]; ok {
		signals.Disposition = model.Disposition(node.Properties.GetString("disposition"))
	}

	related := map[string]bool{}
	for _, key := range m.order {
		if key.tenant != tenant || (key.relType != model.RelBroaderThan && key.relType != model.RelNarrowerThan) {
			continue
		}
		for _, issueID := range issues {
			if key.sourceID == issueID {
				related[key.targetID] = true
			}
			if key.targetID == issueID {
				related[key.sourceID] = true
			}
		}
	}
	signals.RelatedIssues = len(related)

	return signals, nil
}

func (m *MemoryStore) payloads(argumentIDs []string, filters model.Filters, limit int) []model.ArgumentPayload {
	payloads := []model.ArgumentPayload{}
	for _, id := range argumentIDs {
		node, ok := m.nodes[nodeKey{model.NodeArgument, id, filters.Tenant}]
		if !ok {
			continue
		}
		payload := model.ArgumentPayload{}
		if err := node.Properties.Decode(&payload); err != nil {
			continue
		}
		payload.ArgumentID = id
		if !filters.MatchesArgument(payload) {
			continue
		}
		payloads = append(payloads, payload)
		if limit > 0 && len(payloads) >= limit {
			break
		}
	}
	return payloads
}

func mergeProperties(existing model.Metadata, update model.Metadata) model.Metadata {
	merged := model.Metadata{}
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

func terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
