package agents

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caresignal/caresignal/internal/signals"
)

// OutcomeAgent classifies the acknowledgement outcome of the current
// response: a state machine over the latest response, the latest submission,
// the elapsed time, and the tenant's unacknowledged timeout.
type OutcomeAgent struct {
	log *slog.Logger
}

// NewOutcomeAgent creates the outcome agent.
func NewOutcomeAgent(log *slog.Logger) *OutcomeAgent {
	return &OutcomeAgent{log: log}
}

// Evaluate runs the outcome envelope.
func (a *OutcomeAgent) Evaluate(ctx *signals.DecisionContext) signals.DecisionResult[signals.OutcomeStatus] {
	return evaluate[signals.OutcomeStatus](signals.StageOutcome, outcomeRules{}, ctx, a.log)
}

type outcomeRules struct{}

func (outcomeRules) Validate(ctx *signals.DecisionContext) error {
	return requireTenant(ctx)
}

func (outcomeRules) Compute(ctx *signals.DecisionContext) (signals.OutcomeStatus, error) {
	resp := ctx.LatestResponse
	if resp == nil {
		return signals.OutcomePending, nil
	}
	if resp.Invalidated {
		return signals.OutcomeInvalidated, nil
	}

	// A submission referencing an older response does not acknowledge the
	// current one.
	if ctx.LatestSubmission.Acknowledges(resp) {
		if ctx.LatestSubmission.Dismissed {
			return signals.OutcomeDismissed, nil
		}
		return signals.OutcomeAcknowledged, nil
	}

	timeout := time.Duration(ctx.EffectivePolicy().UnacknowledgedTimeoutMinutes) * time.Minute
	if ctx.At().Sub(resp.CreatedAt) > timeout {
		return signals.OutcomeUnacknowledged, nil
	}

	return signals.OutcomePending, nil
}

func (outcomeRules) Default() signals.OutcomeStatus {
	return signals.OutcomePending
}

func (outcomeRules) Reasoning(ctx *signals.DecisionContext, d signals.OutcomeStatus) string {
	switch d {
	case signals.OutcomeAcknowledged:
		return "current response acknowledged by submission"
	case signals.OutcomeDismissed:
		return "current response dismissed by submission"
	case signals.OutcomeInvalidated:
		return "current response was invalidated"
	case signals.OutcomeUnacknowledged:
		return fmt.Sprintf("no acknowledgement within %d minute(s)",
			ctx.EffectivePolicy().UnacknowledgedTimeoutMinutes)
	default:
		if ctx.LatestResponse == nil {
			return "no response issued yet"
		}
		return "awaiting acknowledgement"
	}
}

func (outcomeRules) Confidence(ctx *signals.DecisionContext, d signals.OutcomeStatus) float64 {
	if ctx.LatestResponse == nil {
		return 0.8
	}
	return 0.95
}
