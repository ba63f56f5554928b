package retrieval

// State is a step of a retrieval call
type State string

const (
	StateInit       State = "INIT"
	StateEmbedding  State = "EMBEDDING"
	StateSearching  State = "SEARCHING"
	StateScoring    State = "SCORING"
	StateAssembling State = "ASSEMBLING"
	StateExplaining State = "EXPLAINING"
	StateFallback   State = "FALLBACK"
	StateDone       State = "DONE"
)

// Request outcomes as counted by Metrics
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeInvalid  = "invalid"
)

// Search branches
const (
	BranchVector = "vector"
	BranchGraph  = "graph"
)
