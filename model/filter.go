package model

import "slices"

// Filters is a conjunction of constraints over segment metadata.
// Empty fields do not constrain. IssueIDs matches any of its ids.
type Filters struct {
	Tenant        string   `json:"tenant,omitempty"`
	Jurisdiction  string   `json:"jurisdiction,omitempty"`
	LawyerID      string   `json:"lawyer_id,omitempty"`
	JudgeID       string   `json:"judge_id,omitempty"`
	IssueIDs      []string `json:"issue_ids,omitempty"`
	FiledYearFrom int      `json:"filed_year_from,omitempty"`
	FiledYearTo   int      `json:"filed_year_to,omitempty"`
}

// IsEmpty reports whether the filters accept everything.
func (f Filters) IsEmpty() bool {
	return f.Tenant == "" && f.Jurisdiction == "" && f.LawyerID == "" && f.JudgeID == "" &&
		len(f.IssueIDs) == 0 && f.FiledYearFrom == 0 && f.FiledYearTo == 0
}

// MatchesSegment evaluates the filters against a segment payload.
func (f Filters) MatchesSegment(p SegmentPayload) bool {
	year := p.FiledYear
	if year == 0 && p.Case != nil {
		year = p.Case.FiledYear()
	}
	return f.matches(p.Tenant, p.Case, p.Issue, p.Lawyer, year)
}

// MatchesArgument evaluates the filters against an argument payload.
func (f Filters) MatchesArgument(p ArgumentPayload) bool {
	year := 0
	if p.Case != nil {
		year = p.Case.FiledYear()
	}
	return f.matches(p.Tenant, p.Case, p.Issue, p.Lawyer, year)
}

// Containment returns the equality constraints as a nested JSON document
// usable with the jsonb @> operator.
func (f Filters) Containment() Metadata {
	doc := Metadata{}
	if f.Tenant != "" {
		doc["tenant"] = f.Tenant
	}
	caseDoc := map[string]interface{}{}
	if f.Jurisdiction != "" {
		caseDoc["jurisdiction"] = f.Jurisdiction
	}
	if f.JudgeID != "" {
		caseDoc["judge_id"] = f.JudgeID
	}
	if len(caseDoc) > 0 {
		doc["case"] = caseDoc
	}
	if f.LawyerID != "" {
		doc["lawyer"] = map[string]interface{}{"id": f.LawyerID}
	}
	return doc
}

func (f Filters) matches(tenant string, c *Case, issue *Issue, lawyer *Lawyer, filedYear int) bool {
	if f.Tenant != "" && f.Tenant != tenant {
		return false
	}
	if f.Jurisdiction != "" && (c == nil || c.Jurisdiction != f.Jurisdiction) {
		return false
	}
	if f.JudgeID != "" && (c == nil || c.JudgeID != f.JudgeID) {
		return false
	}
	if f.LawyerID != "" && (lawyer == nil || lawyer.ID != f.LawyerID) {
		return false
	}
	if len(f.IssueIDs) > 0 && (issue == nil || !slices.Contains(f.IssueIDs, issue.ID)) {
		return false
	}
	if f.FiledYearFrom > 0 && (filedYear == 0 || filedYear < f.FiledYearFrom) {
		return false
	}
	if f.FiledYearTo > 0 && (filedYear == 0 || filedYear > f.FiledYearTo) {
		return false
	}
	return true
}
