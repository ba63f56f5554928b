package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/lexgraph/model"
)

// reasonFor classifies a backend error. ctx is the context the call was made with.
func reasonFor(ctx context.Context, err error) model.DegradationReason {
	switch {
	case err == nil:
		return model.DegradationNone
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return model.DegradationTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return model.DegradationCanceled
	default:
		return model.DegradationUnavailable
	}
}

// recoverBranch turns a panic of a search branch into a degraded outcome.
// It must be deferred directly by the branch function.
func recoverBranch(logger *slog.Logger, branch string, outcome *model.BranchOutcome) {
	if p := recover(); p != nil {
		logger.Error("Panic in search branch", "branch", branch, "panic", p)
		*outcome = model.Failed(model.DegradationPanic, fmt.Errorf("panic in %s branch: %v", branch, p))
	}
}
