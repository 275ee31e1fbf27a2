package agents

import (
	"fmt"
	"log/slog"

	"github.com/caresignal/caresignal/internal/signals"
)

// TaskingAgent summarizes the pending work set by assignee class. The summary
// string indicates the mode of the work, never a literal task list. When no
// structured work items exist yet, a small fixed task list is inferred
// directly from snapshot flags.
type TaskingAgent struct {
	log *slog.Logger
}

// NewTaskingAgent creates the tasking agent.
func NewTaskingAgent(log *slog.Logger) *TaskingAgent {
	return &TaskingAgent{log: log}
}

// Evaluate runs the tasking envelope.
func (a *TaskingAgent) Evaluate(ctx *signals.DecisionContext) signals.DecisionResult[signals.TaskingDecision] {
	return evaluate[signals.TaskingDecision](signals.StageTasking, taskingRules{}, ctx, a.log)
}

type taskingRules struct{}

func (taskingRules) Validate(ctx *signals.DecisionContext) error {
	return requireTenant(ctx)
}

func (taskingRules) Compute(ctx *signals.DecisionContext) (signals.TaskingDecision, error) {
	items := ctx.WorkItems
	if len(items) == 0 {
		return taskingFromSnapshot(ctx.Patient), nil
	}

	var d signals.TaskingDecision
	allSystemClass := true
	allSystemExecutable := true
	anyBlocking := false

	for _, item := range items {
		switch item.AssigneeClass {
		case signals.AssigneeSystem:
			d.SystemTasks++
		case signals.AssigneePatient:
			d.PatientTasks++
			allSystemClass = false
		default:
			// user/role items, including items with no declared class
			d.UserTasks++
			allSystemClass = false
		}
		if !item.SystemExecutable {
			allSystemExecutable = false
		}
		if item.Blocking {
			anyBlocking = true
		}
	}

	d.Priority = taskPriority(anyBlocking, d.UserTasks, len(items))
	d.NeedsAcknowledgement = d.UserTasks > 0

	switch {
	case allSystemClass && d.UserTasks == 0:
		d.Mode = signals.TaskingModeSystemProcessing
		d.Summary = "System is processing this case"
	case allSystemExecutable && d.UserTasks == 0:
		d.Mode = signals.TaskingModeAutoReady
		d.Summary = "Case can proceed automatically"
	case d.UserTasks > 0:
		d.Mode = signals.TaskingModeUserAction
		d.Summary = fmt.Sprintf("%d action(s) need attention", d.UserTasks)
	case d.PatientTasks > 0:
		d.Mode = signals.TaskingModeAwaitingPatient
		d.Summary = "Awaiting patient response"
	default:
		d.Mode = signals.TaskingModeNone
		d.Summary = "No actions required"
	}

	return d, nil
}

func taskPriority(anyBlocking bool, userTasks, total int) signals.TaskPriority {
	switch {
	case anyBlocking:
		return signals.PriorityHigh
	case userTasks > 0:
		return signals.PriorityMedium
	case total > 0:
		return signals.PriorityLow
	default:
		return signals.PriorityNone
	}
}

// taskingFromSnapshot is the fallback path: infer a small fixed task list
// from snapshot flags when no structured work items are available yet.
func taskingFromSnapshot(snap *signals.PatientSnapshot) signals.TaskingDecision {
	var d signals.TaskingDecision
	if snap == nil {
		d.Mode = signals.TaskingModeNone
		d.Summary = "No actions required"
		d.Priority = signals.PriorityNone
		return d
	}

	if !snap.Verified {
		d.InferredTasks = append(d.InferredTasks, "Verify patient identity")
		d.UserTasks++
	}
	if !snap.DataComplete {
		d.InferredTasks = append(d.InferredTasks, "Complete patient intake data")
		d.UserTasks++
	}
	if snap.NeedsReview {
		d.InferredTasks = append(d.InferredTasks, "Review flagged records")
		d.UserTasks++
	}
	if snap.AdditionalInfoAvailable {
		d.InferredTasks = append(d.InferredTasks, "Retrieve additional payer information")
		d.SystemTasks++
	}

	d.Priority = taskPriority(false, d.UserTasks, d.UserTasks+d.SystemTasks)
	d.NeedsAcknowledgement = d.UserTasks > 0

	switch {
	case d.UserTasks > 0:
		d.Mode = signals.TaskingModeUserAction
		d.Summary = fmt.Sprintf("%d action(s) need attention", d.UserTasks)
	case d.SystemTasks > 0:
		d.Mode = signals.TaskingModeSystemProcessing
		d.Summary = "System is processing this case"
	default:
		d.Mode = signals.TaskingModeNone
		d.Summary = "No actions required"
	}

	return d
}

func (taskingRules) Default() signals.TaskingDecision {
	return signals.TaskingDecision{
		Mode:     signals.TaskingModeNone,
		Summary:  "No actions required",
		Priority: signals.PriorityNone,
	}
}

func (taskingRules) Reasoning(ctx *signals.DecisionContext, d signals.TaskingDecision) string {
	if len(ctx.WorkItems) == 0 {
		if len(d.InferredTasks) > 0 {
			return fmt.Sprintf("no structured work items; %d task(s) inferred from patient flags", len(d.InferredTasks))
		}
		return "no pending work"
	}
	return fmt.Sprintf("%d pending item(s): %d user, %d system, %d patient",
		len(ctx.WorkItems), d.UserTasks, d.SystemTasks, d.PatientTasks)
}

func (taskingRules) Confidence(ctx *signals.DecisionContext, d signals.TaskingDecision) float64 {
	if len(ctx.WorkItems) == 0 {
		if len(d.InferredTasks) > 0 {
			return 0.6
		}
		return 0.7
	}
	return 0.9
}
