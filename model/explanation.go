package model

// PathTypeLegalPrecedent tags paths from the anchor issue to a precedent argument.
const PathTypeLegalPrecedent = "legal_precedent"

// RetrievalMethod names the search path a candidate was found by
type RetrievalMethod string

const (
	MethodVector   RetrievalMethod = "vector"
	MethodGraph    RetrievalMethod = "graph"
	MethodFallback RetrievalMethod = "fallback"
)

// TraversalPath describes one graph path that contributed to a bundle
type TraversalPath struct {
	Type       string   `json:"type"`
	Nodes      []string `json:"nodes"`
	Hops       int      `json:"hops"`
	Confidence float64  `json:"confidence"`
}

// GraphExplanation is the audit record of how a bundle was found and scored
type GraphExplanation struct {
	ArgumentID      string             `json:"argument_id"`
	Paths           []TraversalPath    `json:"paths"`
	KeyNodes        []string           `json:"key_nodes"`
	ExplanationText string             `json:"explanation_text"`
	FinalScore      float64            `json:"final_score"`
	Sources         []RetrievalMethod  `json:"sources"`
	Boosts          map[string]float64 `json:"boosts,omitempty"`
}
