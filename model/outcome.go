package model

// DegradationReason explains why a search branch contributed no hits
type DegradationReason string

const (
	DegradationNone            DegradationReason = ""
	DegradationEmpty           DegradationReason = "empty"
	DegradationTimeout         DegradationReason = "timeout"
	DegradationUnavailable     DegradationReason = "unavailable"
	DegradationEmbeddingFailed DegradationReason = "embedding_failed"
	DegradationCanceled        DegradationReason = "canceled"
	DegradationPanic           DegradationReason = "panic"
)

// BranchOutcome is the result of one search branch.
// Err is only informational, the coordinator never propagates it.
type BranchOutcome struct {
	Hits   []RawHit
	Reason DegradationReason
	Err    error
}

// Degraded reports whether the branch produced nothing usable.
func (o BranchOutcome) Degraded() bool {
	return len(o.Hits) == 0
}

// Succeeded wraps hits, marking an empty result as such.
func Succeeded(hits []RawHit) BranchOutcome {
	if len(hits) == 0 {
		return BranchOutcome{Reason: DegradationEmpty}
	}
	return BranchOutcome{Hits: hits}
}

// Failed returns an empty outcome with the reason and cause.
func Failed(reason DegradationReason, err error) BranchOutcome {
	return BranchOutcome{Reason: reason, Err: err}
}
