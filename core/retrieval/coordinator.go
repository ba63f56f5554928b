package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/lexgraph/core/bundle"
	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/core/explain"
	"github.com/siherrmann/lexgraph/core/graph"
	"github.com/siherrmann/lexgraph/core/scoring"
	"github.com/siherrmann/lexgraph/core/vector"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"golang.org/x/sync/errgroup"
)

// Coordinator answers retrieval requests by fusing vector and graph search.
// It never fails because a backend misbehaves, only invalid requests are returned as errors.
type Coordinator struct {
	embedder  embedding.Provider
	index     vector.Index
	store     graph.Store
	assembler *bundle.Assembler
	config    model.RetrievalConfig
	metrics   *Metrics
	log       *slog.Logger
}

// NewCoordinator creates a coordinator over the three backends.
// It returns a configuration error if a backend is missing or config is invalid.
func NewCoordinator(embedder embedding.Provider, index vector.Index, store graph.Store, config model.RetrievalConfig, logger *slog.Logger) (*Coordinator, error) {
	if embedder == nil || index == nil || store == nil {
		return nil, helper.NewError("create coordinator", fmt.Errorf("%w: embedder, vector index and graph store are required", helper.ErrConfiguration))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		embedder:  embedder,
		index:     index,
		store:     store,
		assembler: bundle.NewAssembler(logger),
		config:    config,
		log:       logger,
	}, nil
}

// SetMetrics enables prometheus instrumentation
func (c *Coordinator) SetMetrics(metrics *Metrics) {
	c.metrics = metrics
}

// Config returns the configuration the coordinator was created with
func (c *Coordinator) Config() model.RetrievalConfig {
	return c.config
}

// run carries the state of a single retrieval call
type run struct {
	request model.RetrievalRequest
	limit   int
	trace   *model.RetrievalTrace
	start   time.Time
}

func (r *run) enter(state State) {
	r.trace.States = append(r.trace.States, string(state))
}

// Retrieve returns at most limit ranked and explained bundles for the request.
// If both searches come back empty or fail unexpectedly, synthetic bundles are returned instead.
func (c *Coordinator) Retrieve(ctx context.Context, request model.RetrievalRequest) (*model.RetrievalResponse, error) {
	r := &run{
		request: request,
		trace:   &model.RetrievalTrace{States: []string{}},
		start:   time.Now(),
	}
	r.enter(StateInit)

	if err := request.Validate(); err != nil {
		c.metrics.observeRequest(OutcomeInvalid, time.Since(r.start))
		return nil, err
	}
	r.limit = request.EffectiveLimit(c.config.DefaultLimit)

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	vectorOutcome, graphOutcome := c.search(ctx, r)
	r.trace.VectorHits = len(vectorOutcome.Hits)
	r.trace.GraphHits = len(graphOutcome.Hits)
	r.trace.VectorReason = string(vectorOutcome.Reason)
	r.trace.GraphReason = string(graphOutcome.Reason)
	c.metrics.observeBranch(BranchVector, vectorOutcome)
	c.metrics.observeBranch(BranchGraph, graphOutcome)

	if vectorOutcome.Degraded() && graphOutcome.Degraded() {
		c.log.Warn("No hits from vector and graph search, serving fallback", "vector_reason", vectorOutcome.Reason, "graph_reason", graphOutcome.Reason)
		return c.fallback(ctx, r), nil
	}

	r.enter(StateScoring)
	hits := make([]model.RawHit, 0, len(vectorOutcome.Hits)+len(graphOutcome.Hits))
	hits = append(hits, vectorOutcome.Hits...)
	hits = append(hits, graphOutcome.Hits...)
	candidates, err := c.score(ctx, r, hits)
	if err != nil {
		c.log.Error("Error scoring candidates, serving fallback", "error", err)
		return c.fallback(ctx, r), nil
	}
	if len(candidates) == 0 {
		c.log.Warn("No valid candidates after merging hits, serving fallback", "hits", len(hits))
		return c.fallback(ctx, r), nil
	}

	r.enter(StateAssembling)
	bundles, kept := c.assembler.Assemble(candidates, r.limit)
	r.trace.DroppedBundle = len(candidates) - len(kept)

	r.enter(StateExplaining)
	explanations := explain.BuildAll(bundles, kept)

	response := &model.RetrievalResponse{
		Bundles:           bundles,
		TotalCount:        len(bundles),
		GraphExplanations: explanations,
		Metrics:           c.lawyerMetrics(ctx, request),
		Trace:             r.trace,
	}
	c.finish(r, response, OutcomeSuccess)

	return response, nil
}

// search runs the vector branch (embed, then search) and the graph branch concurrently.
// Neither branch returns an error to the group, failures are part of their outcome.
func (c *Coordinator) search(ctx context.Context, r *run) (vectorOutcome model.BranchOutcome, graphOutcome model.BranchOutcome) {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		graphOutcome = c.graphBranch(groupCtx, r)
		return nil
	})

	r.enter(StateEmbedding)
	query, embedOutcome := c.embed(groupCtx, r.request.IssueText)

	r.enter(StateSearching)
	if embedOutcome != nil {
		vectorOutcome = *embedOutcome
	} else {
		group.Go(func() error {
			vectorOutcome = c.vectorBranch(groupCtx, r, query)
			return nil
		})
	}

	_ = group.Wait()

	return vectorOutcome, graphOutcome
}

// embed returns the query embedding or the failed vector outcome.
func (c *Coordinator) embed(ctx context.Context, text string) (query []float32, outcome *model.BranchOutcome) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("Panic while embedding query", "panic", p)
			failed := model.Failed(model.DegradationPanic, fmt.Errorf("panic: %v", p))
			query, outcome = nil, &failed
		}
	}()

	embedCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
	defer cancel()

	query, err := c.embedder.Embed(embedCtx, text)
	if err != nil {
		c.log.Warn("Error embedding query, skipping vector search", "error", err)
		reason := reasonFor(embedCtx, err)
		if reason == model.DegradationUnavailable {
			reason = model.DegradationEmbeddingFailed
		}
		failed := model.Failed(reason, err)
		return nil, &failed
	}

	return query, nil
}

func (c *Coordinator) vectorBranch(ctx context.Context, r *run, query []float32) (outcome model.BranchOutcome) {
	defer recoverBranch(c.log, BranchVector, &outcome)

	filters := r.request.Filters()
	if r.request.IssueID != "" {
		filters.IssueIDs = []string{r.request.IssueID}
	}

	searchCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
	defer cancel()

	matches, err := c.index.SearchSimilar(searchCtx, query, filters, r.limit*c.config.VectorOverfetch, c.config.SimilarityThreshold)
	if err != nil {
		c.log.Warn("Error in vector search", "error", err)
		return model.Failed(reasonFor(searchCtx, err), err)
	}

	hits := make([]model.RawHit, 0, len(matches))
	for _, match := range matches {
		hits = append(hits, model.NewVectorHit(match))
	}

	return model.Succeeded(hits)
}

// reachedIssue is an issue in the expansion of an anchor
type reachedIssue struct {
	anchorID string
	hop      model.IssueHop
}

func (c *Coordinator) graphBranch(ctx context.Context, r *run) (outcome model.BranchOutcome) {
	defer recoverBranch(c.log, BranchGraph, &outcome)

	tenant := r.request.Tenant

	anchors := []string{}
	if r.request.IssueID != "" {
		anchors = append(anchors, r.request.IssueID)
	} else {
		findCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
		issues, err := c.store.FindIssues(findCtx, r.request.IssueText, tenant, c.config.AnchorIssues)
		reason := reasonFor(findCtx, err)
		cancel()
		if err != nil {
			c.log.Warn("Error resolving anchor issues", "error", err)
			return model.Failed(reason, err)
		}
		for _, issue := range issues {
			anchors = append(anchors, issue.ID)
		}
	}
	r.trace.AnchorIssues = anchors
	if len(anchors) == 0 {
		return model.Succeeded(nil)
	}

	// Minimal hop distance per issue over all anchors, first anchor wins ties.
	reached := map[string]reachedIssue{}
	var issueIDs []string
	for _, anchorID := range anchors {
		expandCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
		hops, err := c.store.ExpandIssue(expandCtx, anchorID, tenant, c.config.MaxHops)
		reason := reasonFor(expandCtx, err)
		cancel()
		if err != nil {
			c.log.Warn("Error expanding issue", "issue_id", anchorID, "error", err)
			return model.Failed(reason, err)
		}

		for _, hop := range hops {
			existing, ok := reached[hop.IssueID]
			if !ok {
				issueIDs = append(issueIDs, hop.IssueID)
			}
			if !ok || hop.Hops < existing.hop.Hops {
				reached[hop.IssueID] = reachedIssue{anchorID: anchorID, hop: hop}
			}
		}
	}
	if len(issueIDs) == 0 {
		return model.Succeeded(nil)
	}

	argumentsCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
	defer cancel()

	issues := make([]model.IssueHop, len(issueIDs))
	for i, issueID := range issueIDs {
		issues[i] = reached[issueID].hop
	}

	arguments, err := c.store.ArgumentsForIssues(argumentsCtx, issues, r.request.Filters(), r.limit*c.config.GraphOverfetch)
	if err != nil {
		c.log.Warn("Error selecting arguments for issues", "issues", len(issueIDs), "error", err)
		return model.Failed(reasonFor(argumentsCtx, err), err)
	}

	hits := make([]model.RawHit, 0, len(arguments))
	for _, argument := range arguments {
		if argument.Issue == nil {
			c.log.Debug("Dropping graph hit without issue", "argument_id", argument.ArgumentID)
			continue
		}
		issue, ok := reached[argument.Issue.ID]
		if !ok {
			c.log.Debug("Dropping graph hit outside the expansion", "argument_id", argument.ArgumentID, "issue_id", argument.Issue.ID)
			continue
		}
		hits = append(hits, model.NewGraphHit(argument, issue.hop, issue.anchorID))
	}

	return model.Succeeded(hits)
}

// score merges hits into candidates, looks up their boosts and ranks them.
func (c *Coordinator) score(ctx context.Context, r *run, hits []model.RawHit) (candidates []*model.Candidate, err error) {
	defer func() {
		if p := recover(); p != nil {
			candidates, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	candidates = c.assembler.Merge(hits)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.config.BoostWorkers)
	for _, candidate := range candidates {
		group.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					c.log.Error("Panic computing boosts, using zero boosts", "argument_id", candidate.ArgumentID, "panic", p)
					candidate.Boosts = model.Boosts{}
				}
			}()
			candidate.Boosts = c.boosts(groupCtx, r, candidate)
			return nil
		})
	}
	_ = group.Wait()

	scoring.Rank(candidates, c.config.Weights)

	return candidates, nil
}

// boosts are the graph boosts of a candidate, raised by what its payload shows
// for arguments the graph does not know.
func (c *Coordinator) boosts(ctx context.Context, r *run, candidate *model.Candidate) model.Boosts {
	boostCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
	defer cancel()

	fromGraph := graph.ComputeBoosts(boostCtx, c.store, c.log, candidate.ArgumentID, r.request.Tenant, r.request.JudgeID)

	citations := map[string]bool{}
	for _, segment := range candidate.Payload.Segments {
		for _, citation := range segment.Citations {
			citations[citation] = true
		}
	}
	fromPayload := graph.PayloadBoosts(r.request.JudgeID, candidate.Payload.Case, candidate.Payload.Disposition, len(citations))

	return fromGraph.Max(fromPayload).Capped()
}

func (c *Coordinator) fallback(ctx context.Context, r *run) *model.RetrievalResponse {
	r.enter(StateFallback)
	r.trace.Fallback = true

	bundles := Synthesize(r.request, r.limit, c.config.Weights)
	explanations := make([]model.GraphExplanation, 0, len(bundles))
	for _, b := range bundles {
		explanations = append(explanations, explain.Synthetic(b))
	}

	response := &model.RetrievalResponse{
		Bundles:           bundles,
		TotalCount:        len(bundles),
		GraphExplanations: explanations,
		Metrics:           c.lawyerMetrics(ctx, r.request),
		Trace:             r.trace,
	}
	c.finish(r, response, OutcomeFallback)

	return response
}

// lawyerMetrics returns nil if no lawyer was requested or the graph knows no argument of them.
func (c *Coordinator) lawyerMetrics(ctx context.Context, request model.RetrievalRequest) *model.LawyerMetrics {
	if request.LawyerID == "" {
		return nil
	}

	metricsCtx, cancel := context.WithTimeout(ctx, c.config.BackendTimeout)
	defer cancel()

	arguments, err := c.store.ArgumentsByLawyer(metricsCtx, request.LawyerID, request.Tenant)
	if err != nil {
		c.log.Warn("Error selecting lawyer arguments, omitting metrics", "lawyer_id", request.LawyerID, "error", err)
		return nil
	}
	if len(arguments) == 0 {
		return nil
	}

	return model.ComputeLawyerMetrics(request.LawyerID, arguments)
}

func (c *Coordinator) finish(r *run, response *model.RetrievalResponse, outcome string) {
	r.enter(StateDone)
	elapsed := time.Since(r.start)
	response.QueryTimeMs = elapsed.Milliseconds()
	c.metrics.observeRequest(outcome, elapsed)

	c.log.Info("Retrieved bundles",
		"bundles", response.TotalCount,
		"vector_hits", r.trace.VectorHits,
		"graph_hits", r.trace.GraphHits,
		"fallback", r.trace.Fallback,
		"query_time_ms", response.QueryTimeMs,
	)
}
