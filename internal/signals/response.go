package signals

import "time"

// Stage names, in fixed execution order. The policy stage runs first to
// enrich the shared context; the remaining five are mutually independent but
// kept sequential for deterministic provenance ordering.
const (
	StagePolicy        = "policy"
	StageProceed       = "proceed"
	StageExecutionMode = "execution_mode"
	StageTasking       = "tasking"
	StageOutcome       = "outcome"
	StageAssignment    = "assignment"
)

// StageOrder lists the six stages in execution order.
var StageOrder = []string{
	StagePolicy,
	StageProceed,
	StageExecutionMode,
	StageTasking,
	StageOutcome,
	StageAssignment,
}

// SystemResponse is the composite result of one pipeline invocation: exactly
// one value per decision kind, plus per-stage audit provenance. Immutable
// once built.
type SystemResponse struct {
	Policy      PolicyDecision      `json:"policy"`
	Proceed     ProceedIndicator    `json:"proceed_indicator"`
	ProceedText string              `json:"proceed_text,omitempty"`
	Mode        ExecutionMode       `json:"execution_mode"`
	Tasking     TaskingDecision     `json:"tasking"`
	Outcome     OutcomeStatus       `json:"outcome"`
	Assignment  *AssignmentDecision `json:"assignment,omitempty"`

	Provenance map[string]Provenance `json:"provenance"`
	ComputedAt time.Time             `json:"computed_at"`
}

// ProceedPayload is the proceed block of the compact consumer payload.
type ProceedPayload struct {
	Indicator string `json:"indicator"`
	Color     string `json:"color"`
	Text      string `json:"text,omitempty"`
}

// TaskingPayload is the tasking block of the compact consumer payload.
type TaskingPayload struct {
	Text     string `json:"text"`
	NeedsAck bool   `json:"needs_ack"`
	Color    string `json:"color"`
	Mode     string `json:"mode"`
	ModeText string `json:"mode_text"`
}

// CompactPayload is the compact read-only projection: indicator, color, and
// short text plus the tasking summary, with no raw internals.
type CompactPayload struct {
	Proceed    ProceedPayload `json:"proceed"`
	Tasking    TaskingPayload `json:"tasking"`
	Mode       string         `json:"mode"`
	ComputedAt time.Time      `json:"computed_at"`
}

// FullPayload is the fuller projection: the compact fields plus outcome, the
// full policy, the assignment if one was created, and the full tasking
// decision.
type FullPayload struct {
	Proceed           ProceedPayload      `json:"proceed"`
	TaskingSummary    TaskingPayload      `json:"tasking_summary"`
	Mode              string              `json:"mode"`
	ExecutionModeText string              `json:"execution_mode_text"`
	Outcome           string              `json:"outcome"`
	Policy            PolicyDecision      `json:"policy"`
	Assignment        *AssignmentDecision `json:"assignment,omitempty"`
	Tasking           TaskingDecision     `json:"tasking"`
	ComputedAt        time.Time           `json:"computed_at"`
}

func (r *SystemResponse) proceedPayload() ProceedPayload {
	return ProceedPayload{
		Indicator: r.Proceed.String(),
		Color:     r.Proceed.Color(),
		Text:      r.ProceedText,
	}
}

func (r *SystemResponse) taskingPayload() TaskingPayload {
	return TaskingPayload{
		Text:     r.Tasking.Summary,
		NeedsAck: r.Tasking.NeedsAcknowledgement,
		Color:    r.Tasking.Priority.Color(),
		Mode:     r.Mode.String(),
		ModeText: r.Mode.Description(),
	}
}

// Compact builds the compact projection. Both projections are pure functions
// of the already-computed response and can never disagree on the indicator,
// mode, or tasking summary.
func (r *SystemResponse) Compact() CompactPayload {
	return CompactPayload{
		Proceed:    r.proceedPayload(),
		Tasking:    r.taskingPayload(),
		Mode:       r.Mode.String(),
		ComputedAt: r.ComputedAt,
	}
}

// Full builds the fuller projection for consumers that need outcome, policy,
// and assignment detail.
func (r *SystemResponse) Full() FullPayload {
	return FullPayload{
		Proceed:           r.proceedPayload(),
		TaskingSummary:    r.taskingPayload(),
		Mode:              r.Mode.String(),
		ExecutionModeText: r.Mode.Description(),
		Outcome:           r.Outcome.String(),
		Policy:            r.Policy,
		Assignment:        r.Assignment,
		Tasking:           r.Tasking,
		ComputedAt:        r.ComputedAt,
	}
}
