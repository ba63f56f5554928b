package model

// UnreachableHops is the hop distance of candidates not reached by graph traversal.
const UnreachableHops = 1 << 30

// HitKind tags the variant of a RawHit
type HitKind int

const (
	HitVector HitKind = iota + 1
	HitGraph
)

func (k HitKind) String() string {
	switch k {
	case HitVector:
		return "vector"
	case HitGraph:
		return "graph"
	}
	return "unknown"
}

// SegmentPayload is the metadata stored with each indexed segment.
// It denormalizes the argument's context so a vector hit can be
// materialized into a bundle without asking the graph.
type SegmentPayload struct {
	Segment     ArgumentSegment `json:"segment"`
	Tenant      string          `json:"tenant,omitempty"`
	Case        *Case           `json:"case,omitempty"`
	Issue       *Issue          `json:"issue,omitempty"`
	Lawyer      *Lawyer         `json:"lawyer,omitempty"`
	Stage       Stage           `json:"stage,omitempty"`
	Disposition Disposition     `json:"disposition,omitempty"`
	FiledYear   int             `json:"filed_year,omitempty"`
}

// IndexedSegment is a segment with its embedding, ready for the vector index
type IndexedSegment struct {
	Payload   SegmentPayload
	Embedding []float32
}

// VectorMatch is one result of a similarity search
type VectorMatch struct {
	Payload    SegmentPayload
	Similarity float64
}

// ArgumentPayload is an argument as denormalized by the graph store
type ArgumentPayload struct {
	ArgumentID  string            `json:"argument_id"`
	Tenant      string            `json:"tenant,omitempty"`
	Case        *Case             `json:"case,omitempty"`
	Issue       *Issue            `json:"issue,omitempty"`
	Lawyer      *Lawyer           `json:"lawyer,omitempty"`
	Stage       Stage             `json:"stage,omitempty"`
	Disposition Disposition       `json:"disposition,omitempty"`
	Segments    []ArgumentSegment `json:"segments"`
}

// IssueHop is an issue reached from an anchor issue
type IssueHop struct {
	IssueID string
	Hops    int
	Path    []string
}

// VectorHit is a RawHit produced by similarity search
type VectorHit struct {
	Payload    SegmentPayload
	Similarity float64
}

// GraphHit is a RawHit produced by issue expansion
type GraphHit struct {
	Payload       ArgumentPayload
	HopDistance   int
	AnchorIssueID string
	Path          []string
}

// RawHit is either a VectorHit or a GraphHit, selected by Kind.
type RawHit struct {
	Kind   HitKind
	Vector *VectorHit
	Graph  *GraphHit
}

// NewVectorHit wraps a similarity match.
func NewVectorHit(match VectorMatch) RawHit {
	return RawHit{Kind: HitVector, Vector: &VectorHit{Payload: match.Payload, Similarity: match.Similarity}}
}

// NewGraphHit wraps an argument reached through the issue graph.
func NewGraphHit(payload ArgumentPayload, hop IssueHop, anchorIssueID string) RawHit {
	return RawHit{Kind: HitGraph, Graph: &GraphHit{Payload: payload, HopDistance: hop.Hops, AnchorIssueID: anchorIssueID, Path: hop.Path}}
}

// ArgumentID returns the identity of the argument the hit belongs to
// or an empty string for a malformed hit.
func (h RawHit) ArgumentID() string {
	switch h.Kind {
	case HitVector:
		if h.Vector != nil {
			return h.Vector.Payload.Segment.ArgumentID
		}
	case HitGraph:
		if h.Graph != nil {
			return h.Graph.Payload.ArgumentID
		}
	}
	return ""
}
