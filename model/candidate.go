package model

// Candidate is one argument during ranking, merged from all hits naming it.
type Candidate struct {
	ArgumentID    string
	Payload       ArgumentPayload
	VectorScore   float64
	HasVector     bool
	HopDistance   int
	AnchorIssueID string
	Path          []string
	HasGraph      bool
	Boosts        Boosts
	Order         int
	Score         ConfidenceScore
	hybrid        float64
}

// FoundByBoth reports whether vector and graph search both found the argument.
func (c *Candidate) FoundByBoth() bool {
	return c.HasVector && c.HasGraph
}

// Hybrid returns the unrounded fused score set by SetHybrid.
func (c *Candidate) Hybrid() float64 {
	return c.hybrid
}

// SetHybrid stores the fused score and its rounded confidence.
func (c *Candidate) SetHybrid(hybrid float64, features map[string]float64) {
	c.hybrid = hybrid
	c.Score = NewConfidenceScore(hybrid, features)
}
