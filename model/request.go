package model

import (
	"fmt"
	"strings"

	"github.com/siherrmann/lexgraph/helper"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// RetrievalRequest is the input of a retrieval call
type RetrievalRequest struct {
	IssueText     string `json:"issue_text"`
	LawyerID      string `json:"lawyer_id,omitempty"`
	Jurisdiction  string `json:"jurisdiction,omitempty"`
	Tenant        string `json:"tenant,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	IssueID       string `json:"issue_id,omitempty"`
	JudgeID       string `json:"judge_id,omitempty"`
	FiledYearFrom int    `json:"filed_year_from,omitempty"`
	FiledYearTo   int    `json:"filed_year_to,omitempty"`
}

// Validate rejects requests the caller has to fix.
// A zero limit is allowed and replaced by the configured default.
func (r *RetrievalRequest) Validate() error {
	if strings.TrimSpace(r.IssueText) == "" {
		return helper.NewError("validate request", fmt.Errorf("%w: issue_text is required", helper.ErrValidation))
	}
	if r.Limit < 0 || r.Limit > MaxLimit {
		return helper.NewError("validate request", fmt.Errorf("%w: limit must be between 0 and %d, got %d", helper.ErrValidation, MaxLimit, r.Limit))
	}
	if r.FiledYearFrom > 0 && r.FiledYearTo > 0 && r.FiledYearFrom > r.FiledYearTo {
		return helper.NewError("validate request", fmt.Errorf("%w: filed_year_from %d is after filed_year_to %d", helper.ErrValidation, r.FiledYearFrom, r.FiledYearTo))
	}
	return nil
}

// EffectiveLimit returns the limit or fallback if none was given.
func (r *RetrievalRequest) EffectiveLimit(fallback int) int {
	if r.Limit > 0 {
		return r.Limit
	}
	if fallback > 0 && fallback <= MaxLimit {
		return fallback
	}
	return DefaultLimit
}

// Filters translates the request's constraints into search filters.
func (r *RetrievalRequest) Filters() Filters {
	return Filters{
		Tenant:        r.Tenant,
		Jurisdiction:  r.Jurisdiction,
		LawyerID:      r.LawyerID,
		FiledYearFrom: r.FiledYearFrom,
		FiledYearTo:   r.FiledYearTo,
	}
}

// RetrievalResponse is the ranked and explained result of a retrieval call
type RetrievalResponse struct {
	Bundles           []ArgumentBundle   `json:"bundles"`
	TotalCount        int                `json:"total_count"`
	QueryTimeMs       int64              `json:"query_time_ms"`
	GraphExplanations []GraphExplanation `json:"graph_explanations"`
	Metrics           *LawyerMetrics     `json:"metrics,omitempty"`
	Trace             *RetrievalTrace    `json:"trace,omitempty"`
}

// RetrievalTrace records which states a retrieval call passed through
type RetrievalTrace struct {
	States        []string `json:"states"`
	VectorHits    int      `json:"vector_hits"`
	GraphHits     int      `json:"graph_hits"`
	VectorReason  string   `json:"vector_reason,omitempty"`
	GraphReason   string   `json:"graph_reason,omitempty"`
	Fallback      bool     `json:"fallback"`
	AnchorIssues  []string `json:"anchor_issues,omitempty"`
	DroppedBundle int      `json:"dropped_bundles"`
}
