package bundle

import (
	"log/slog"
	"slices"

	"github.com/siherrmann/lexgraph/model"
)

// Assembler merges raw hits into candidates and materializes ranked candidates into bundles.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler logging dropped candidates to logger.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Merge groups hits by argument id in discovery order.
// The vector score of a candidate is its best segment similarity, the hop
// distance the minimal distance over its graph hits. Candidates without a
// case or without segments are dropped.
func (a *Assembler) Merge(hits []model.RawHit) []*model.Candidate {
	byID := map[string]*model.Candidate{}
	segmentIDs := map[string]map[string]bool{}
	var candidates []*model.Candidate

	for _, hit := range hits {
		id := hit.ArgumentID()
		if id == "" {
			a.logger.Debug("Dropping hit without argument id", "kind", hit.Kind.String())
			continue
		}

		c, ok := byID[id]
		if !ok {
			c = &model.Candidate{
				ArgumentID:  id,
				Payload:     model.ArgumentPayload{ArgumentID: id},
				HopDistance: model.UnreachableHops,
				Order:       len(candidates),
			}
			byID[id] = c
			segmentIDs[id] = map[string]bool{}
			candidates = append(candidates, c)
		}

		switch hit.Kind {
		case model.HitVector:
			mergeVector(c, hit.Vector, segmentIDs[id])
		case model.HitGraph:
			mergeGraph(c, hit.Graph, segmentIDs[id])
		}
	}

	valid := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Payload.Case == nil || len(c.Payload.Segments) == 0 {
			a.logger.Debug("Dropping malformed candidate", "argument_id", c.ArgumentID, "has_case", c.Payload.Case != nil, "segments", len(c.Payload.Segments))
			continue
		}
		model.SortSegments(c.Payload.Segments)
		valid = append(valid, c)
	}

	return valid
}

func mergeVector(c *model.Candidate, hit *model.VectorHit, seen map[string]bool) {
	if !c.HasVector || hit.Similarity > c.VectorScore {
		c.VectorScore = hit.Similarity
	}
	c.HasVector = true

	p := hit.Payload
	fillPayload(&c.Payload, p.Tenant, p.Case, p.Issue, p.Lawyer, p.Stage, p.Disposition)
	addSegments(&c.Payload, []model.ArgumentSegment{p.Segment}, seen)
}

func mergeGraph(c *model.Candidate, hit *model.GraphHit, seen map[string]bool) {
	if !c.HasGraph || hit.HopDistance < c.HopDistance {
		c.HopDistance = hit.HopDistance
		c.AnchorIssueID = hit.AnchorIssueID
		c.Path = slices.Clone(hit.Path)
	}
	c.HasGraph = true

	p := hit.Payload
	fillPayload(&c.Payload, p.Tenant, p.Case, p.Issue, p.Lawyer, p.Stage, p.Disposition)
	addSegments(&c.Payload, p.Segments, seen)
}

func fillPayload(dst *model.ArgumentPayload, tenant string, c *model.Case, issue *model.Issue, lawyer *model.Lawyer, stage model.Stage, disposition model.Disposition) {
	if dst.Tenant == "" {
		dst.Tenant = tenant
	}
	if dst.Case == nil && c != nil {
		copied := *c
		dst.Case = &copied
	}
	if dst.Issue == nil && issue != nil {
		copied := *issue
		copied.TaxonomyPath = slices.Clone(issue.TaxonomyPath)
		dst.Issue = &copied
	}
	if dst.Lawyer == nil && lawyer != nil {
		copied := *lawyer
		dst.Lawyer = &copied
	}
	if dst.Stage == "" {
		dst.Stage = stage
	}
	if dst.Disposition == "" {
		dst.Disposition = disposition
	}
}

func addSegments(dst *model.ArgumentPayload, segments []model.ArgumentSegment, seen map[string]bool) {
	for _, segment := range segments {
		if segment.SegmentID == "" || segment.Text == "" || seen[segment.SegmentID] {
			continue
		}
		seen[segment.SegmentID] = true
		segment.Citations = slices.Clone(segment.Citations)
		dst.Segments = append(dst.Segments, segment)
	}
}

// Assemble truncates ranked candidates to limit and materializes them.
// The returned candidates are aligned with the bundles.
func (a *Assembler) Assemble(ranked []*model.Candidate, limit int) ([]model.ArgumentBundle, []*model.Candidate) {
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	bundles := make([]model.ArgumentBundle, 0, len(ranked))
	for _, c := range ranked {
		bundles = append(bundles, Materialize(c))
	}

	return bundles, ranked
}

// Materialize builds the bundle of a scored candidate.
func Materialize(c *model.Candidate) model.ArgumentBundle {
	b := model.ArgumentBundle{
		ArgumentID:  c.ArgumentID,
		Confidence:  c.Score,
		Lawyer:      c.Payload.Lawyer,
		Stage:       c.Payload.Stage,
		Disposition: c.Payload.Disposition,
		Tenant:      c.Payload.Tenant,
		Segments:    slices.Clone(c.Payload.Segments),
	}
	if c.Payload.Case != nil {
		b.Case = *c.Payload.Case
	}
	if c.Payload.Issue != nil {
		b.Issue = *c.Payload.Issue
	}
	if b.Issue.TaxonomyPath == nil {
		b.Issue.TaxonomyPath = []string{}
	}
	model.SortSegments(b.Segments)

	return b
}
