package agents

import (
	"fmt"
	"log/slog"

	"github.com/caresignal/caresignal/internal/signals"
)

// incapableUserDrivenCount is the number of system-incapable pending items at
// which the recommendation escalates from COPILOT to USER_DRIVEN.
const incapableUserDrivenCount = 2

// ExecutionModeAgent recommends the human/system division of labor for the
// pending work set. Policy can force the result outright or force USER_DRIVEN
// via a feature flag; otherwise a fixed decision tree over the work-item
// template attributes applies.
type ExecutionModeAgent struct {
	log *slog.Logger
}

// NewExecutionModeAgent creates the execution-mode agent.
func NewExecutionModeAgent(log *slog.Logger) *ExecutionModeAgent {
	return &ExecutionModeAgent{log: log}
}

// Evaluate runs the execution-mode envelope.
func (a *ExecutionModeAgent) Evaluate(ctx *signals.DecisionContext) signals.DecisionResult[signals.ExecutionMode] {
	return evaluate[signals.ExecutionMode](signals.StageExecutionMode, executionModeRules{}, ctx, a.log)
}

type executionModeRules struct{}

func (executionModeRules) Validate(ctx *signals.DecisionContext) error {
	return requireTenant(ctx)
}

func (executionModeRules) Compute(ctx *signals.DecisionContext) (signals.ExecutionMode, error) {
	policy := ctx.EffectivePolicy()

	// Policy overrides first. When both a forced mode and the user-driven
	// flag are set, the more restrictive recommendation wins.
	if policy.ForceExecutionMode != "" {
		forced := policy.ForceExecutionMode
		if policy.RequireUserDriven {
			forced = signals.MoreRestrictive(forced, signals.ModeUserDriven)
		}
		return forced, nil
	}
	if policy.RequireUserDriven {
		return signals.ModeUserDriven, nil
	}

	items := ctx.WorkItems
	if len(items) == 0 {
		return signals.ModeAgentic, nil
	}

	for _, item := range items {
		if item.Blocking {
			return signals.ModeUserDriven, nil
		}
	}

	var incapable []signals.WorkItem
	for _, item := range items {
		if !item.SystemExecutable {
			incapable = append(incapable, item)
		}
	}
	if len(incapable) >= incapableUserDrivenCount {
		return signals.ModeUserDriven, nil
	}
	for _, item := range incapable {
		if item.ValueTier == signals.ValueTierHigh {
			return signals.ModeUserDriven, nil
		}
	}

	oversight := ctx.Preference != nil && ctx.Preference.AlwaysRequireOversight
	for _, item := range items {
		if item.LowSuccessRate() || item.RequiresHuman || item.AlwaysRequiresOversight || oversight {
			return signals.ModeCopilot, nil
		}
	}

	// Remaining system-incapable items are few and low value: assist rather
	// than hand over.
	if len(incapable) > 0 {
		return signals.ModeCopilot, nil
	}

	return signals.ModeAgentic, nil
}

func (executionModeRules) Default() signals.ExecutionMode {
	return signals.ModeUserDriven
}

func (executionModeRules) Reasoning(ctx *signals.DecisionContext, d signals.ExecutionMode) string {
	policy := ctx.EffectivePolicy()
	if policy.ForceExecutionMode != "" {
		return "execution mode fixed by tenant policy"
	}
	if policy.RequireUserDriven {
		return "tenant policy requires user-driven handling"
	}
	if len(ctx.WorkItems) == 0 {
		return "no pending work items"
	}
	return fmt.Sprintf("%s recommended for %d pending item(s)", d, len(ctx.WorkItems))
}

func (executionModeRules) Confidence(ctx *signals.DecisionContext, d signals.ExecutionMode) float64 {
	if ctx.EffectivePolicy().ForceExecutionMode != "" || ctx.EffectivePolicy().RequireUserDriven {
		return 1.0
	}
	if len(ctx.WorkItems) == 0 {
		return 0.7
	}
	return 0.85
}
