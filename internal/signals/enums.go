package signals

import "fmt"

// ProceedIndicator is the five-value traffic-light signal summarizing whether
// the case is safe to proceed on.
type ProceedIndicator string

const (
	IndicatorGrey   ProceedIndicator = "GREY"
	IndicatorGreen  ProceedIndicator = "GREEN"
	IndicatorYellow ProceedIndicator = "YELLOW"
	IndicatorBlue   ProceedIndicator = "BLUE"
	IndicatorRed    ProceedIndicator = "RED"
)

// String returns the string representation of the indicator
func (p ProceedIndicator) String() string {
	return string(p)
}

// Valid reports whether the indicator is one of the five defined values
func (p ProceedIndicator) Valid() bool {
	switch p {
	case IndicatorGrey, IndicatorGreen, IndicatorYellow, IndicatorBlue, IndicatorRed:
		return true
	}
	return false
}

// Color maps the indicator to the hex color the UI paints it with
func (p ProceedIndicator) Color() string {
	switch p {
	case IndicatorGreen:
		return "#2e7d32"
	case IndicatorYellow:
		return "#f9a825"
	case IndicatorBlue:
		return "#1565c0"
	case IndicatorRed:
		return "#c62828"
	case IndicatorGrey:
		return "#9e9e9e"
	default:
		return "#9e9e9e"
	}
}

// ParseProceedIndicator converts a config string (any case) to an indicator.
func ParseProceedIndicator(s string) (ProceedIndicator, error) {
	switch s {
	case "grey", "gray", "GREY", "GRAY":
		return IndicatorGrey, nil
	case "green", "GREEN":
		return IndicatorGreen, nil
	case "yellow", "YELLOW":
		return IndicatorYellow, nil
	case "blue", "BLUE":
		return IndicatorBlue, nil
	case "red", "RED":
		return IndicatorRed, nil
	}
	return "", fmt.Errorf("unknown proceed indicator %q", s)
}

// ExecutionMode is the recommended human/system division of labor for a
// case's pending work.
type ExecutionMode string

const (
	ModeAgentic    ExecutionMode = "AGENTIC"
	ModeCopilot    ExecutionMode = "COPILOT"
	ModeUserDriven ExecutionMode = "USER_DRIVEN"
)

// String returns the string representation of the mode
func (m ExecutionMode) String() string {
	return string(m)
}

// Valid reports whether the mode is one of the three defined values
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeAgentic, ModeCopilot, ModeUserDriven:
		return true
	}
	return false
}

// rank orders modes by restrictiveness: AGENTIC < COPILOT < USER_DRIVEN
func (m ExecutionMode) rank() int {
	switch m {
	case ModeAgentic:
		return 0
	case ModeCopilot:
		return 1
	case ModeUserDriven:
		return 2
	default:
		return 0
	}
}

// Description is the user-facing explanation of the mode
func (m ExecutionMode) Description() string {
	switch m {
	case ModeAgentic:
		return "System can handle this automatically"
	case ModeCopilot:
		return "System will assist; human review recommended"
	case ModeUserDriven:
		return "Manual handling required"
	default:
		return "Manual handling required"
	}
}

// MoreRestrictive returns the more restrictive of two modes. Ties between
// independently derived recommendations always break toward the safer mode.
func MoreRestrictive(a, b ExecutionMode) ExecutionMode {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// ParseExecutionMode converts a config string to a mode.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch s {
	case "agentic", "AGENTIC":
		return ModeAgentic, nil
	case "copilot", "COPILOT":
		return ModeCopilot, nil
	case "user_driven", "USER_DRIVEN":
		return ModeUserDriven, nil
	}
	return "", fmt.Errorf("unknown execution mode %q", s)
}

// OutcomeStatus is the acknowledgement-outcome state of the current response.
type OutcomeStatus string

const (
	OutcomePending        OutcomeStatus = "PENDING"
	OutcomeAcknowledged   OutcomeStatus = "ACKNOWLEDGED"
	OutcomeUnacknowledged OutcomeStatus = "UNACKNOWLEDGED"
	OutcomeDismissed      OutcomeStatus = "DISMISSED"
	OutcomeInvalidated    OutcomeStatus = "INVALIDATED"
)

// String returns the string representation of the status
func (o OutcomeStatus) String() string {
	return string(o)
}

// Valid reports whether the status is one of the five defined values
func (o OutcomeStatus) Valid() bool {
	switch o {
	case OutcomePending, OutcomeAcknowledged, OutcomeUnacknowledged, OutcomeDismissed, OutcomeInvalidated:
		return true
	}
	return false
}

// AssigneeClass categorizes who a pending work item is waiting on.
type AssigneeClass string

const (
	AssigneeUser    AssigneeClass = "user"
	AssigneeSystem  AssigneeClass = "system"
	AssigneePatient AssigneeClass = "patient"
)

// ValueTier is the template-declared value classification of a work item.
type ValueTier string

const (
	ValueTierLow      ValueTier = "low"
	ValueTierStandard ValueTier = "standard"
	ValueTierHigh     ValueTier = "high"
)

// TaskPriority summarizes the urgency of the pending work set.
type TaskPriority string

const (
	PriorityNone   TaskPriority = "none"
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Color maps a task priority to the hex color the tasking widget uses
func (p TaskPriority) Color() string {
	switch p {
	case PriorityHigh:
		return "#c62828"
	case PriorityMedium:
		return "#f9a825"
	case PriorityLow:
		return "#2e7d32"
	default:
		return "#9e9e9e"
	}
}

// AssignmentPriority classifies a hand-off
type AssignmentPriority string

const (
	AssignmentRoutine AssignmentPriority = "routine"
	AssignmentUrgent  AssignmentPriority = "urgent"
)
