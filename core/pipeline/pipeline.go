package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/core/graph"
	"github.com/siherrmann/lexgraph/core/vector"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"golang.org/x/sync/errgroup"
)

// Pipeline ingests arguments into the vector index and the graph store
type Pipeline struct {
	Segmenter SegmentFunc
	Citations CitationExtractFunc
	embedder  embedding.Provider
	index     vector.Index
	store     graph.Store
	log       *slog.Logger
}

// NewPipeline creates an ingestion pipeline with sentence segmentation and citation extraction
func NewPipeline(embedder embedding.Provider, index vector.Index, store graph.Store, logger *slog.Logger) (*Pipeline, error) {
	if embedder == nil || index == nil || store == nil {
		return nil, helper.NewError("create pipeline", fmt.Errorf("%w: embedder, vector index and graph store are required", helper.ErrConfiguration))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		Segmenter: SentenceSegmenter(3),
		Citations: ExtractCitations,
		embedder:  embedder,
		index:     index,
		store:     store,
		log:       logger,
	}, nil
}

// SetSegmenter sets the function used to split argument text
func (p *Pipeline) SetSegmenter(segmenter SegmentFunc) {
	p.Segmenter = segmenter
}

// SetCitationExtractor sets the function used to find citations in segments without any
func (p *Pipeline) SetCitationExtractor(extractor CitationExtractFunc) {
	p.Citations = extractor
}

// SegmentID derives a stable segment id from the argument id and seq.
func SegmentID(argumentID string, seq int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("lexgraph:%s#%d", argumentID, seq))).String()
}

// Segment returns the segments of a record with ids, seq and citations filled in.
func (p *Pipeline) Segment(ctx context.Context, record *model.ArgumentRecord) ([]model.ArgumentSegment, error) {
	segments := record.Segments
	if len(segments) == 0 {
		var err error
		segments, err = p.Segmenter(ctx, record.Text, record.ArgumentID)
		if err != nil {
			return nil, helper.NewError("segment argument", err)
		}
	}

	numbered := false
	result := make([]model.ArgumentSegment, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment.Text) == "" {
			continue
		}
		segment.ArgumentID = record.ArgumentID
		numbered = numbered || segment.Seq != 0
		result = append(result, segment)
	}

	// Segments without any seq are numbered in input order
	seen := map[int]bool{}
	for i := range result {
		if !numbered {
			result[i].Seq = i
		}
		if seen[result[i].Seq] {
			return nil, helper.NewError("segment argument", fmt.Errorf("%w: argument %s has duplicate seq %d", helper.ErrValidation, record.ArgumentID, result[i].Seq))
		}
		seen[result[i].Seq] = true
	}
	model.SortSegments(result)

	for i := range result {
		segment := &result[i]
		if segment.SegmentID == "" {
			segment.SegmentID = SegmentID(record.ArgumentID, segment.Seq)
		}
		if segment.Role == "" {
			segment.Role = roleFor(i, len(result))
		}
		if segment.Citations == nil && p.Citations != nil {
			segment.Citations = p.Citations(segment.Text)
		}
		if segment.Citations == nil {
			segment.Citations = []string{}
		}
	}

	if len(result) == 0 {
		return nil, helper.NewError("segment argument", fmt.Errorf("%w: argument %s has no text", helper.ErrValidation, record.ArgumentID))
	}

	return result, nil
}

// Ingest segments, embeds and indexes an argument and links it into the graph.
// Re-ingesting the same argument id overwrites its segments by seq and merges its nodes.
func (p *Pipeline) Ingest(ctx context.Context, record model.ArgumentRecord) (*model.IngestResult, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if record.ArgumentID == "" {
		record.ArgumentID = uuid.NewString()
	}
	if record.Judge != nil && record.Case.JudgeID == "" {
		record.Case.JudgeID = record.Judge.ID
		record.Case.JudgeName = record.Judge.Name
	}

	segments, err := p.Segment(ctx, &record)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, helper.NewError("embed segments", err)
	}
	if len(embeddings) != len(segments) {
		return nil, helper.NewError("embed segments", fmt.Errorf("%w: got %d embeddings for %d segments", helper.ErrProviderData, len(embeddings), len(segments)))
	}

	issue := record.Issue
	indexed := make([]model.IndexedSegment, len(segments))
	for i, segment := range segments {
		indexed[i] = model.IndexedSegment{
			Payload: model.SegmentPayload{
				Segment:     segment,
				Tenant:      record.Tenant,
				Case:        &record.Case,
				Issue:       &issue,
				Lawyer:      record.Lawyer,
				Stage:       record.Stage,
				Disposition: record.Disposition,
				FiledYear:   record.Case.FiledYear(),
			},
			Embedding: embeddings[i],
		}
	}
	if err := p.index.UpsertSegments(ctx, indexed); err != nil {
		return nil, helper.NewError("index segments", err)
	}

	relationships, citations, err := p.link(ctx, record, segments)
	if err != nil {
		return nil, err
	}

	result := &model.IngestResult{
		ArgumentID:    record.ArgumentID,
		Segments:      len(segments),
		Citations:     citations,
		Relationships: relationships,
	}
	p.log.Info("Ingested argument", slog.String("argument_id", result.ArgumentID), slog.Int("segments", result.Segments), slog.Int("citations", result.Citations))

	return result, nil
}

// link upserts the argument's nodes and edges and returns the edge and distinct citation counts.
func (p *Pipeline) link(ctx context.Context, record model.ArgumentRecord, segments []model.ArgumentSegment) (int, int, error) {
	tenant := record.Tenant
	var nodes []model.Node
	var edges []model.Relationship

	addNode := func(label model.NodeLabel, id string, v interface{}) error {
		properties, err := model.MetadataFrom(v)
		if err != nil {
			return helper.NewError("encode node properties", err)
		}
		nodes = append(nodes, model.Node{Label: label, ID: id, Tenant: tenant, Properties: properties})
		return nil
	}
	addEdge := func(relType model.RelationshipType, sourceLabel model.NodeLabel, sourceID string, targetLabel model.NodeLabel, targetID string) {
		edges = append(edges, model.Relationship{
			Type:        relType,
			SourceLabel: sourceLabel,
			SourceID:    sourceID,
			TargetLabel: targetLabel,
			TargetID:    targetID,
			Tenant:      tenant,
			Properties:  model.Metadata{},
		})
	}

	issue := record.Issue
	payload := model.ArgumentPayload{
		ArgumentID:  record.ArgumentID,
		Tenant:      tenant,
		Case:        &record.Case,
		Issue:       &issue,
		Lawyer:      record.Lawyer,
		Stage:       record.Stage,
		Disposition: record.Disposition,
		Segments:    segments,
	}

	errs := []error{
		addNode(model.NodeArgument, record.ArgumentID, payload),
		addNode(model.NodeCase, record.Case.ID, record.Case),
		addNode(model.NodeIssue, record.Issue.ID, record.Issue),
	}
	addEdge(model.RelInCase, model.NodeArgument, record.ArgumentID, model.NodeCase, record.Case.ID)
	addEdge(model.RelAddresses, model.NodeArgument, record.ArgumentID, model.NodeIssue, record.Issue.ID)

	for _, parent := range record.ParentIssues {
		errs = append(errs, addNode(model.NodeIssue, parent.ID, parent))
		addEdge(model.RelBroaderThan, model.NodeIssue, parent.ID, model.NodeIssue, record.Issue.ID)
	}

	if record.Lawyer != nil {
		errs = append(errs, addNode(model.NodeLawyer, record.Lawyer.ID, record.Lawyer))
		addEdge(model.RelArgued, model.NodeLawyer, record.Lawyer.ID, model.NodeArgument, record.ArgumentID)
	}

	if record.Case.JudgeID != "" {
		judge := model.Judge{ID: record.Case.JudgeID, Name: record.Case.JudgeName, Court: record.Case.Court}
		if record.Judge != nil {
			judge = *record.Judge
		}
		errs = append(errs, addNode(model.NodeJudge, judge.ID, judge))
		addEdge(model.RelHeardBy, model.NodeCase, record.Case.ID, model.NodeJudge, judge.ID)
	}

	bundle := model.ArgumentBundle{Segments: segments}
	citations := bundle.Citations()
	for _, citation := range citations {
		errs = append(errs, addNode(model.NodeCitation, citation, map[string]string{"text": citation}))
		addEdge(model.RelCites, model.NodeArgument, record.ArgumentID, model.NodeCitation, citation)
	}

	if err := errors.Join(errs...); err != nil {
		return 0, 0, err
	}

	for _, node := range nodes {
		if err := p.store.UpsertNode(ctx, node); err != nil {
			return 0, 0, helper.NewError("upsert node", err)
		}
	}
	for _, edge := range edges {
		if err := p.store.UpsertRelationship(ctx, edge); err != nil {
			return 0, 0, helper.NewError("upsert relationship", err)
		}
	}

	return len(edges), len(citations), nil
}

// IngestAll ingests records with up to workers concurrent ingestions.
// Results are in input order, failed records have a nil result and are joined into the error.
func (p *Pipeline) IngestAll(ctx context.Context, records []model.ArgumentRecord, workers int) ([]*model.IngestResult, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]*model.IngestResult, len(records))
	errs := make([]error, len(records))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, record := range records {
		group.Go(func() error {
			result, err := p.Ingest(groupCtx, record)
			if err != nil {
				p.log.Warn("Error ingesting argument", "index", i, "argument_id", record.ArgumentID, "error", err)
				errs[i] = fmt.Errorf("record %d: %w", i, err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = group.Wait()

	return results, errors.Join(errs...)
}

// LinkIssues records that broader is the parent of narrower in the issue taxonomy.
func (p *Pipeline) LinkIssues(ctx context.Context, tenant string, broader model.Issue, narrower model.Issue) error {
	if broader.ID == "" || narrower.ID == "" || broader.ID == narrower.ID {
		return helper.NewError("link issues", fmt.Errorf("%w: two distinct issue ids are required", helper.ErrValidation))
	}

	for _, issue := range []model.Issue{broader, narrower} {
		properties, err := model.MetadataFrom(issue)
		if err != nil {
			return helper.NewError("encode issue", err)
		}
		if err := p.store.UpsertNode(ctx, model.Node{Label: model.NodeIssue, ID: issue.ID, Tenant: tenant, Properties: properties}); err != nil {
			return helper.NewError("upsert issue", err)
		}
	}

	err := p.store.UpsertRelationship(ctx, model.Relationship{
		Type:        model.RelBroaderThan,
		SourceLabel: model.NodeIssue,
		SourceID:    broader.ID,
		TargetLabel: model.NodeIssue,
		TargetID:    narrower.ID,
		Tenant:      tenant,
		Properties:  model.Metadata{},
	})
	if err != nil {
		return helper.NewError("upsert issue relationship", err)
	}

	return nil
}
