package agents

import (
	"log/slog"
	"time"

	"github.com/caresignal/caresignal/internal/signals"
)

// Critical-alert escalations use a fixed channel set and a 15-minute window.
var escalationChannels = []string{"pager", "sms", "dashboard"}

const (
	criticalDueMinutes = 15
	routineDueMinutes  = 60
)

// AssignmentAgent decides whether an unacknowledged response triggers a
// hand-off, to whom, at what priority, and over which channels. It recomputes
// the unacknowledged state from the context rather than reading another
// stage's result, keeping the five post-policy agents mutually independent.
type AssignmentAgent struct {
	log *slog.Logger
}

// NewAssignmentAgent creates the assignment agent.
func NewAssignmentAgent(log *slog.Logger) *AssignmentAgent {
	return &AssignmentAgent{log: log}
}

// Evaluate runs the assignment envelope.
func (a *AssignmentAgent) Evaluate(ctx *signals.DecisionContext) signals.DecisionResult[signals.AssignmentDecision] {
	return evaluate[signals.AssignmentDecision](signals.StageAssignment, assignmentRules{}, ctx, a.log)
}

type assignmentRules struct{}

func (assignmentRules) Validate(ctx *signals.DecisionContext) error {
	return requireTenant(ctx)
}

func (assignmentRules) Compute(ctx *signals.DecisionContext) (signals.AssignmentDecision, error) {
	resp := ctx.LatestResponse
	if resp == nil || resp.Invalidated {
		return signals.AssignmentDecision{}, nil
	}
	if ctx.LatestSubmission.Acknowledges(resp) {
		return signals.AssignmentDecision{}, nil
	}

	policy := ctx.EffectivePolicy()
	timeout := time.Duration(policy.UnacknowledgedTimeoutMinutes) * time.Minute
	if ctx.At().Sub(resp.CreatedAt) <= timeout {
		return signals.AssignmentDecision{}, nil
	}

	d := signals.AssignmentDecision{
		Create:       true,
		AssigneeRole: policy.DefaultAssigneeRole,
		Priority:     signals.AssignmentRoutine,
		DueInMinutes: routineDueMinutes,
		Channels:     policy.NotificationChannels,
		Reason:       "response unacknowledged past tenant timeout",
	}
	if d.AssigneeRole == "" {
		d.AssigneeRole = signals.DefaultPolicy().DefaultAssigneeRole
	}

	if ctx.Patient != nil && ctx.Patient.CriticalAlert {
		d.Priority = signals.AssignmentUrgent
		d.DueInMinutes = criticalDueMinutes
		d.Channels = escalationChannels
		d.Reason = "unacknowledged response on patient with critical alert"
	}

	return d, nil
}

func (assignmentRules) Default() signals.AssignmentDecision {
	return signals.AssignmentDecision{}
}

func (assignmentRules) Reasoning(ctx *signals.DecisionContext, d signals.AssignmentDecision) string {
	if !d.Create {
		return "no hand-off needed"
	}
	return d.Reason
}

func (assignmentRules) Confidence(ctx *signals.DecisionContext, d signals.AssignmentDecision) float64 {
	if !d.Create {
		return 0.85
	}
	return 0.9
}
