package model

import (
	"sort"
	"time"
)

// Role is the part a segment plays within an argument
type Role string

const (
	RoleOpening  Role = "opening"
	RoleRebuttal Role = "rebuttal"
	RoleClosing  Role = "closing"
	RoleResponse Role = "response"
	RoleQuestion Role = "question"
	RoleAnswer   Role = "answer"
)

// Disposition is the outcome of the motion an argument was made for
type Disposition string

const (
	DispositionGranted   Disposition = "granted"
	DispositionDenied    Disposition = "denied"
	DispositionPartial   Disposition = "partial"
	DispositionDismissed Disposition = "dismissed"
	DispositionSettled   Disposition = "settled"
	DispositionPending   Disposition = "pending"
)

// Stage is the procedural stage an argument was made in
type Stage string

const (
	StageMotionToDismiss  Stage = "motion_to_dismiss"
	StageMotionToSuppress Stage = "motion_to_suppress"
	StageSummaryJudgment  Stage = "summary_judgment"
	StageTrial            Stage = "trial"
	StageAppeal           Stage = "appeal"
	StageOralArgument     Stage = "oral_argument"
	StageSentencing       Stage = "sentencing"
)

// Case is a court case an argument was made in
type Case struct {
	ID           string     `json:"id" yaml:"id"`
	Caption      string     `json:"caption,omitempty" yaml:"caption,omitempty"`
	Court        string     `json:"court,omitempty" yaml:"court,omitempty"`
	Jurisdiction string     `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	JudgeID      string     `json:"judge_id,omitempty" yaml:"judge_id,omitempty"`
	JudgeName    string     `json:"judge_name,omitempty" yaml:"judge_name,omitempty"`
	FiledDate    *time.Time `json:"filed_date,omitempty" yaml:"filed_date,omitempty"`
	Outcome      string     `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// FiledYear returns the year the case was filed or 0 if unknown.
func (c Case) FiledYear() int {
	if c.FiledDate == nil {
		return 0
	}
	return c.FiledDate.Year()
}

// Issue is a node of the legal issue taxonomy
type Issue struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	TaxonomyPath []string `json:"taxonomy_path" yaml:"taxonomy_path"`
}

// Lawyer argued one or more arguments
type Lawyer struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	BarID string `json:"bar_id,omitempty" yaml:"bar_id,omitempty"`
	Firm  string `json:"firm,omitempty" yaml:"firm,omitempty"`
}

// Judge heard one or more cases
type Judge struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Court string `json:"court,omitempty" yaml:"court,omitempty"`
}

// ArgumentSegment is one ordered piece of an argument's text
type ArgumentSegment struct {
	SegmentID  string   `json:"segment_id" yaml:"segment_id"`
	ArgumentID string   `json:"argument_id" yaml:"argument_id"`
	Text       string   `json:"text" yaml:"text"`
	Role       Role     `json:"role" yaml:"role"`
	Seq        int      `json:"seq" yaml:"seq"`
	Citations  []string `json:"citations" yaml:"citations"`
}

// ArgumentBundle is a retrieved precedent argument with its context
type ArgumentBundle struct {
	ArgumentID  string            `json:"argument_id"`
	Confidence  ConfidenceScore   `json:"confidence"`
	Case        Case              `json:"case"`
	Issue       Issue             `json:"issue"`
	Lawyer      *Lawyer           `json:"lawyer,omitempty"`
	Stage       Stage             `json:"stage,omitempty"`
	Disposition Disposition       `json:"disposition,omitempty"`
	Tenant      string            `json:"tenant,omitempty"`
	Segments    []ArgumentSegment `json:"segments"`
	Synthetic   bool              `json:"synthetic,omitempty"`
}

// Citations returns the distinct citations of all segments in segment order.
func (b *ArgumentBundle) Citations() []string {
	seen := map[string]bool{}
	citations := []string{}
	for _, segment := range b.Segments {
		for _, c := range segment.Citations {
			if !seen[c] {
				seen[c] = true
				citations = append(citations, c)
			}
		}
	}
	return citations
}

// SortSegments orders segments by seq, keeping the input order on equal seq.
func SortSegments(segments []ArgumentSegment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Seq < segments[j].Seq
	})
}
