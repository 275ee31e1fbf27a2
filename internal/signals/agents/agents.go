// Package agents holds the six independent rule evaluators of the decision
// pipeline. Every agent implements the same envelope: validate the context,
// compute the domain rule, and attach reasoning, confidence, and any captured
// errors. A single agent's failure never aborts the others - the envelope
// substitutes the agent's default decision and the pipeline continues.
package agents

import (
	"log/slog"

	cserrors "github.com/caresignal/caresignal/internal/errors"
	"github.com/caresignal/caresignal/internal/signals"
)

// fallbackConfidence is the confidence attached to default decisions produced
// by validation failures or compute errors.
const fallbackConfidence = 0.2

// rules is the contract every agent implements. Compute returns an explicit
// error instead of panicking; the envelope still recovers a panic into an
// agent-compute error as a last line of defense.
type rules[T any] interface {
	Validate(ctx *signals.DecisionContext) error
	Compute(ctx *signals.DecisionContext) (T, error)
	Default() T
	Reasoning(ctx *signals.DecisionContext, decision T) string
	Confidence(ctx *signals.DecisionContext, decision T) float64
}

// evaluate runs the agent envelope. It always returns a DecisionResult and
// never returns or throws an error:
//   - nil or invalid context: default decision, low confidence, captured
//     validation error
//   - compute failure or panic: default decision, captured error
func evaluate[T any](name string, r rules[T], ctx *signals.DecisionContext, log *slog.Logger) signals.DecisionResult[T] {
	if log == nil {
		log = slog.Default()
	}
	if ctx == nil {
		ctx = &signals.DecisionContext{}
	}

	if err := r.Validate(ctx); err != nil {
		log.Debug("agent validation failed", "agent", name, "error", err)
		return signals.DecisionResult[T]{
			Value:      r.Default(),
			Reasoning:  "fallback: " + err.Error(),
			Confidence: fallbackConfidence,
			Errors:     []error{err},
		}
	}

	decision, err := safeCompute(name, r, ctx)
	if err != nil {
		log.Warn("agent compute failed, using default decision", "agent", name, "error", err)
		return signals.DecisionResult[T]{
			Value:      r.Default(),
			Reasoning:  "fallback: " + err.Error(),
			Confidence: fallbackConfidence,
			Errors:     []error{err},
		}
	}

	return signals.DecisionResult[T]{
		Value:      decision,
		Reasoning:  r.Reasoning(ctx, decision),
		Confidence: clamp01(r.Confidence(ctx, decision)),
	}
}

// safeCompute converts a panic inside an agent's rule body into an
// agent-compute error. Catching at the per-agent level keeps the remaining
// stages running.
func safeCompute[T any](name string, r rules[T], ctx *signals.DecisionContext) (decision T, err error) {
	defer func() {
		if p := recover(); p != nil {
			decision = r.Default()
			err = cserrors.AgentComputeErrorf("%s: panic during compute: %v", name, p)
		}
	}()
	return r.Compute(ctx)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func requireTenant(ctx *signals.DecisionContext) error {
	if ctx.TenantID == "" {
		return cserrors.ValidationError("tenant id missing from decision context")
	}
	return nil
}
