package explain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/siherrmann/lexgraph/model"
)

// Build returns the explanation of a bundle from the candidate it was materialized from.
// It only reads the candidate, no backend is queried.
func Build(b model.ArgumentBundle, c *model.Candidate) model.GraphExplanation {
	explanation := model.GraphExplanation{
		ArgumentID: b.ArgumentID,
		Paths:      []model.TraversalPath{},
		KeyNodes:   []string{string(model.NodeArgument), string(model.NodeCase)},
		FinalScore: c.Hybrid(),
		Sources:    []model.RetrievalMethod{},
		Boosts:     c.Boosts.Capped().Map(),
	}

	var details []string
	if c.HasVector {
		explanation.Sources = append(explanation.Sources, model.MethodVector)
		details = append(details, fmt.Sprintf("segment similarity %.2f", c.VectorScore))
	}
	if c.HasGraph {
		explanation.Sources = append(explanation.Sources, model.MethodGraph)
		explanation.KeyNodes = append(explanation.KeyNodes, string(model.NodeIssue))

		nodes := slices.Clone(c.Path)
		if len(nodes) == 0 && c.AnchorIssueID != "" {
			nodes = []string{c.AnchorIssueID}
		}
		nodes = append(nodes, c.ArgumentID)
		explanation.Paths = append(explanation.Paths, model.TraversalPath{
			Type:       model.PathTypeLegalPrecedent,
			Nodes:      nodes,
			Hops:       c.HopDistance,
			Confidence: b.Confidence.Features[model.FeatureGraphRelevance],
		})
		details = append(details, fmt.Sprintf("%d hop(s) from issue %s", c.HopDistance, c.AnchorIssueID))
	}
	if c.Boosts.JudgeMatch > 0 {
		explanation.KeyNodes = append(explanation.KeyNodes, string(model.NodeJudge))
		details = append(details, "heard by the same judge")
	}
	if c.Boosts.CitationOverlap > 0 {
		explanation.KeyNodes = append(explanation.KeyNodes, string(model.NodeCitation))
	}

	text := "Found through " + describe(c)
	if len(details) > 0 {
		text += " (" + strings.Join(details, ", ") + ")"
	}
	explanation.ExplanationText = text

	return explanation
}

// BuildAll explains bundles and their aligned candidates in order.
func BuildAll(bundles []model.ArgumentBundle, candidates []*model.Candidate) []model.GraphExplanation {
	explanations := make([]model.GraphExplanation, 0, len(bundles))
	for i, b := range bundles {
		if i >= len(candidates) {
			explanations = append(explanations, Synthetic(b))
			continue
		}
		explanations = append(explanations, Build(b, candidates[i]))
	}
	return explanations
}

// Synthetic explains a fallback bundle.
func Synthetic(b model.ArgumentBundle) model.GraphExplanation {
	return model.GraphExplanation{
		ArgumentID:      b.ArgumentID,
		Paths:           []model.TraversalPath{},
		KeyNodes:        []string{string(model.NodeIssue), string(model.NodeCase), string(model.NodeJudge)},
		ExplanationText: "Synthetic fallback result, no indexed precedent matched the query",
		FinalScore:      b.Confidence.Value,
		Sources:         []model.RetrievalMethod{model.MethodFallback},
	}
}

func describe(c *model.Candidate) string {
	switch {
	case c.HasVector && c.HasGraph:
		return "both vector and graph search"
	case c.HasGraph:
		return "graph search only"
	default:
		return "vector search only"
	}
}
