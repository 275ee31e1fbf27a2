// Package pipeline runs the six decision agents in a fixed dependency order
// and aggregates their results into one SystemResponse.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/caresignal/caresignal/internal/signals"
	"github.com/caresignal/caresignal/internal/signals/agents"
)

// Orchestrator coordinates the fixed-order agent chain:
// Policy -> Proceed -> ExecutionMode -> Tasking -> Outcome -> Assignment.
// Policy runs first to enrich the shared context; the remaining five are
// mutually independent and kept sequential for deterministic provenance
// ordering.
//
// An Orchestrator is constructed once by the composition root and shared
// across invocations; it holds no per-invocation state.
type Orchestrator struct {
	log *slog.Logger

	policy     *agents.PolicyAgent
	proceed    *agents.ProceedAgent
	mode       *agents.ExecutionModeAgent
	tasking    *agents.TaskingAgent
	outcome    *agents.OutcomeAgent
	assignment *agents.AssignmentAgent
}

// New creates an orchestrator. A nil logger falls back to slog's default.
func New(log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		log:        log,
		policy:     agents.NewPolicyAgent(log),
		proceed:    agents.NewProceedAgent(log),
		mode:       agents.NewExecutionModeAgent(log),
		tasking:    agents.NewTaskingAgent(log),
		outcome:    agents.NewOutcomeAgent(log),
		assignment: agents.NewAssignmentAgent(log),
	}
}

// Compute runs the full pipeline. It never returns an error and never
// panics: individual stages degrade to their default decisions, and the
// caller always receives a complete SystemResponse with all six decision
// fields populated and one provenance entry per stage.
func (o *Orchestrator) Compute(dc *signals.DecisionContext) *signals.SystemResponse {
	start := time.Now()
	if dc == nil {
		dc = &signals.DecisionContext{}
	}

	// Policy first: its merged decision is written into the context exactly
	// once, before the other five agents read it.
	policyRes := o.policy.Evaluate(dc)
	policy := policyRes.Value
	dc.Policy = &policy

	proceedRes := o.proceed.Evaluate(dc)
	modeRes := o.mode.Evaluate(dc)
	taskingRes := o.tasking.Evaluate(dc)
	outcomeRes := o.outcome.Evaluate(dc)
	assignmentRes := o.assignment.Evaluate(dc)

	resp := &signals.SystemResponse{
		Policy:      policy,
		Proceed:     proceedRes.Value,
		ProceedText: proceedRes.Reasoning,
		Mode:        modeRes.Value,
		Tasking:     taskingRes.Value,
		Outcome:     outcomeRes.Value,
		ComputedAt:  start.UTC(),
		Provenance: map[string]signals.Provenance{
			signals.StagePolicy:        policyRes.Provenance(signals.StagePolicy, policyLabel(policyRes)),
			signals.StageProceed:       proceedRes.Provenance(signals.StageProceed, proceedRes.Value.String()),
			signals.StageExecutionMode: modeRes.Provenance(signals.StageExecutionMode, modeRes.Value.String()),
			signals.StageTasking:       taskingRes.Provenance(signals.StageTasking, taskingRes.Value.Summary),
			signals.StageOutcome:       outcomeRes.Provenance(signals.StageOutcome, outcomeRes.Value.String()),
			signals.StageAssignment:    assignmentRes.Provenance(signals.StageAssignment, assignmentLabel(assignmentRes.Value)),
		},
	}

	// Assignment appears in the response only when a hand-off was decided.
	if assignmentRes.Value.Create {
		assignment := assignmentRes.Value
		resp.Assignment = &assignment
	}

	o.log.Debug("decision pipeline completed",
		"tenant", dc.TenantID,
		"patient", dc.PatientKey,
		"session", dc.SessionID,
		"proceed", resp.Proceed,
		"mode", resp.Mode,
		"outcome", resp.Outcome,
		"duration", time.Since(start),
	)

	return resp
}

func policyLabel(res signals.DecisionResult[signals.PolicyDecision]) string {
	if res.Degraded() {
		return "defaults (fallback)"
	}
	if res.Confidence >= 1.0 {
		return "tenant configuration"
	}
	return "defaults"
}

func assignmentLabel(d signals.AssignmentDecision) string {
	if !d.Create {
		return "none"
	}
	return string(d.Priority) + " -> " + d.AssigneeRole
}
