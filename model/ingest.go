package model

import (
	"fmt"
	"strings"

	"github.com/siherrmann/lexgraph/helper"
)

// ArgumentRecord is an argument as delivered for ingestion.
// Either Text is segmented by the pipeline or Segments are taken as given.
type ArgumentRecord struct {
	ArgumentID   string            `json:"argument_id,omitempty" yaml:"argument_id,omitempty"`
	Tenant       string            `json:"tenant,omitempty" yaml:"tenant,omitempty"`
	Case         Case              `json:"case" yaml:"case"`
	Issue        Issue             `json:"issue" yaml:"issue"`
	ParentIssues []Issue           `json:"parent_issues,omitempty" yaml:"parent_issues,omitempty"`
	Lawyer       *Lawyer           `json:"lawyer,omitempty" yaml:"lawyer,omitempty"`
	Judge        *Judge            `json:"judge,omitempty" yaml:"judge,omitempty"`
	Stage        Stage             `json:"stage,omitempty" yaml:"stage,omitempty"`
	Disposition  Disposition       `json:"disposition,omitempty" yaml:"disposition,omitempty"`
	Text         string            `json:"text,omitempty" yaml:"text,omitempty"`
	Segments     []ArgumentSegment `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// Validate rejects records that cannot be linked into the graph.
func (r *ArgumentRecord) Validate() error {
	if r.Case.ID == "" {
		return helper.NewError("validate argument record", fmt.Errorf("%w: case.id is required", helper.ErrValidation))
	}
	if r.Issue.ID == "" {
		return helper.NewError("validate argument record", fmt.Errorf("%w: issue.id is required", helper.ErrValidation))
	}
	if strings.TrimSpace(r.Text) == "" && len(r.Segments) == 0 {
		return helper.NewError("validate argument record", fmt.Errorf("%w: text or segments are required", helper.ErrValidation))
	}
	if r.Lawyer != nil && r.Lawyer.ID == "" {
		return helper.NewError("validate argument record", fmt.Errorf("%w: lawyer.id is required when a lawyer is given", helper.ErrValidation))
	}
	for _, parent := range r.ParentIssues {
		if parent.ID == "" || parent.ID == r.Issue.ID {
			return helper.NewError("validate argument record", fmt.Errorf("%w: parent issues need an id different from the issue", helper.ErrValidation))
		}
	}
	return nil
}

// IngestResult summarizes one ingested argument
type IngestResult struct {
	ArgumentID    string `json:"argument_id"`
	Segments      int    `json:"segments"`
	Citations     int    `json:"citations"`
	Relationships int    `json:"relationships"`
}
