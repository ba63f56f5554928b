package model

import (
	"math"
	"time"
)

// NodeLabel is the type of a graph node
type NodeLabel string

const (
	NodeCase     NodeLabel = "Case"
	NodeLawyer   NodeLabel = "Lawyer"
	NodeJudge    NodeLabel = "Judge"
	NodeIssue    NodeLabel = "Issue"
	NodeArgument NodeLabel = "Argument"
	NodeCitation NodeLabel = "Citation"
)

// RelationshipType is the type of a directed graph edge
type RelationshipType string

const (
	RelArgued       RelationshipType = "ARGUED"        // Lawyer -> Argument
	RelInCase       RelationshipType = "IN_CASE"       // Argument -> Case
	RelAddresses    RelationshipType = "ADDRESSES"     // Argument -> Issue
	RelCites        RelationshipType = "CITES"         // Argument -> Citation
	RelHeardBy      RelationshipType = "HEARD_BY"      // Case -> Judge
	RelBroaderThan  RelationshipType = "BROADER_THAN"  // Issue -> Issue
	RelNarrowerThan RelationshipType = "NARROWER_THAN" // Issue -> Issue
)

// Node is a graph node, identified by label, id and tenant
type Node struct {
	Label      NodeLabel `json:"label"`
	ID         string    `json:"id"`
	Tenant     string    `json:"tenant"`
	Properties Metadata  `json:"properties"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Relationship is a graph edge, identified by type and endpoints
type Relationship struct {
	Type        RelationshipType `json:"type"`
	SourceLabel NodeLabel        `json:"source_label"`
	SourceID    string           `json:"source_id"`
	TargetLabel NodeLabel        `json:"target_label"`
	TargetID    string           `json:"target_id"`
	Tenant      string           `json:"tenant"`
	Properties  Metadata         `json:"properties"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Boost names returned by graph stores
const (
	BoostJudgeMatch      = "judge_match"
	BoostCitationOverlap = "citation_overlap"
	BoostOutcome         = "outcome_boost"
	BoostIssueCentrality = "issue_centrality"
)

// Boost caps
const (
	JudgeMatchCap      = 0.1
	CitationOverlapCap = 0.2
	OutcomeBoostCap    = 0.15
	IssueCentralityCap = 0.1
)

// Boosts are the graph derived scoring signals of one argument
type Boosts struct {
	JudgeMatch      float64
	CitationOverlap float64
	Outcome         float64
	IssueCentrality float64
}

// Capped limits every boost to [0, cap].
func (b Boosts) Capped() Boosts {
	return Boosts{
		JudgeMatch:      capAt(b.JudgeMatch, JudgeMatchCap),
		CitationOverlap: capAt(b.CitationOverlap, CitationOverlapCap),
		Outcome:         capAt(b.Outcome, OutcomeBoostCap),
		IssueCentrality: capAt(b.IssueCentrality, IssueCentralityCap),
	}
}

// Max returns the per signal maximum of both boosts.
func (b Boosts) Max(other Boosts) Boosts {
	return Boosts{
		JudgeMatch:      max(b.JudgeMatch, other.JudgeMatch),
		CitationOverlap: max(b.CitationOverlap, other.CitationOverlap),
		Outcome:         max(b.Outcome, other.Outcome),
		IssueCentrality: max(b.IssueCentrality, other.IssueCentrality),
	}
}

// Map returns the boosts keyed by name.
func (b Boosts) Map() map[string]float64 {
	return map[string]float64{
		BoostJudgeMatch:      b.JudgeMatch,
		BoostCitationOverlap: b.CitationOverlap,
		BoostOutcome:         b.Outcome,
		BoostIssueCentrality: b.IssueCentrality,
	}
}

func capAt(v float64, limit float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// LawyerMetrics summarizes the track record of a lawyer
type LawyerMetrics struct {
	LawyerID          string             `json:"lawyer_id"`
	TotalArguments    int                `json:"total_arguments"`
	Granted           int                `json:"granted"`
	Partial           int                `json:"partial"`
	Denied            int                `json:"denied"`
	WinRate           float64            `json:"win_rate"`
	JudgeAlignment    map[string]float64 `json:"judge_alignment"`
	ArgumentDiversity int                `json:"argument_diversity"`
}

// ComputeLawyerMetrics derives the metrics from the lawyer's arguments.
// The win rate counts partial outcomes half.
func ComputeLawyerMetrics(lawyerID string, arguments []ArgumentPayload) *LawyerMetrics {
	metrics := &LawyerMetrics{
		LawyerID:       lawyerID,
		JudgeAlignment: map[string]float64{},
	}

	type tally struct{ wins, total float64 }
	perJudge := map[string]*tally{}
	issues := map[string]bool{}

	for _, a := range arguments {
		metrics.TotalArguments++
		win := 0.0
		switch a.Disposition {
		case DispositionGranted:
			metrics.Granted++
			win = 1
		case DispositionPartial:
			metrics.Partial++
			win = 0.5
		case DispositionDenied:
			metrics.Denied++
		}

		if a.Issue != nil {
			issues[a.Issue.ID] = true
		}
		if a.Case != nil && a.Case.JudgeID != "" {
			t, ok := perJudge[a.Case.JudgeID]
			if !ok {
				t = &tally{}
				perJudge[a.Case.JudgeID] = t
			}
			t.total++
			t.wins += win
		}
	}

	if metrics.TotalArguments > 0 {
		metrics.WinRate = (float64(metrics.Granted) + 0.5*float64(metrics.Partial)) / float64(metrics.TotalArguments)
	}
	for judgeID, t := range perJudge {
		metrics.JudgeAlignment[judgeID] = t.wins / t.total
	}
	metrics.ArgumentDiversity = len(issues)

	return metrics
}

// BoostSignals are the raw graph facts the boosts of an argument are derived from
type BoostSignals struct {
	JudgeMatch    bool
	CitationCount int
	Disposition   Disposition
	RelatedIssues int
}

// IssueRelation is the position of a neighboring issue relative to another issue
type IssueRelation string

const (
	IssueBroader  IssueRelation = "broader"
	IssueNarrower IssueRelation = "narrower"
)

// IssueNeighbor is an issue one hierarchy edge away
type IssueNeighbor struct {
	IssueID  string        `json:"issue_id"`
	Relation IssueRelation `json:"relation"`
}

// IssueHierarchy lists the direct parents and children of an issue
type IssueHierarchy struct {
	IssueID  string   `json:"issue_id"`
	Broader  []string `json:"broader"`
	Narrower []string `json:"narrower"`
}
