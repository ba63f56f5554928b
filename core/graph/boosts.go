package graph

import (
	"context"
	"log/slog"

	"github.com/siherrmann/lexgraph/model"
)

// BoostsFromSignals maps graph facts to the stepped boosts.
func BoostsFromSignals(signals model.BoostSignals) model.Boosts {
	boosts := model.Boosts{}

	if signals.JudgeMatch {
		boosts.JudgeMatch = model.JudgeMatchCap
	}

	switch {
	case signals.CitationCount > 10:
		boosts.CitationOverlap = 0.2
	case signals.CitationCount > 5:
		boosts.CitationOverlap = 0.15
	case signals.CitationCount > 0:
		boosts.CitationOverlap = 0.1
	}

	switch signals.Disposition {
	case model.DispositionGranted:
		boosts.Outcome = 0.15
	case model.DispositionPartial:
		boosts.Outcome = 0.1
	}

	switch {
	case signals.RelatedIssues > 5:
		boosts.IssueCentrality = 0.1
	case signals.RelatedIssues > 2:
		boosts.IssueCentrality = 0.05
	}

	return boosts.Capped()
}

// PayloadBoosts derives the boosts that are visible on a payload alone,
// used when the graph has no record of the argument.
func PayloadBoosts(judgeID string, c *model.Case, disposition model.Disposition, citations int) model.Boosts {
	return BoostsFromSignals(model.BoostSignals{
		JudgeMatch:    judgeID != "" && c != nil && c.JudgeID == judgeID,
		CitationCount: citations,
		Disposition:   disposition,
	})
}

// ComputeBoosts asks the store for the signals of an argument.
// Backend failures yield zero boosts and are logged, never returned.
func ComputeBoosts(ctx context.Context, store Store, logger *slog.Logger, argumentID string, tenant string, judgeID string) model.Boosts {
	signals, err := store.BoostSignals(ctx, argumentID, tenant, judgeID)
	if err != nil {
		logger.Warn("Error computing boosts, using zero boosts", "argument_id", argumentID, "error", err)
		return model.Boosts{}
	}
	if signals == nil {
		return model.Boosts{}
	}
	return BoostsFromSignals(*signals)
}
