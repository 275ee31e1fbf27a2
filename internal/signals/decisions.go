package signals

// PolicyDecision is the tenant configuration merged over built-in defaults.
// It is produced by the policy stage and read by the five downstream agents.
type PolicyDecision struct {
	ShowProceedIndicator bool   `json:"show_proceed_indicator"`
	ShowTasking          bool   `json:"show_tasking"`
	AllowManualOverride  bool   `json:"allow_manual_override"`
	Theme                string `json:"theme,omitempty"`

	// UnacknowledgedTimeoutMinutes is how long a response may sit without a
	// matching submission before it counts as unacknowledged.
	UnacknowledgedTimeoutMinutes int `json:"unacknowledged_timeout_minutes"`

	NotificationChannels []string `json:"notification_channels,omitempty"`

	// ForceProceedIndicator, when set, overrides the computed indicator.
	ForceProceedIndicator ProceedIndicator `json:"force_proceed_indicator,omitempty"`

	// ForceExecutionMode, when set, overrides the computed mode outright.
	ForceExecutionMode ExecutionMode `json:"force_execution_mode,omitempty"`

	// RequireUserDriven is the feature flag forcing USER_DRIVEN handling.
	RequireUserDriven bool `json:"require_user_driven"`

	// AssignOnTimeout mandates assignment creation for unacknowledged
	// responses, with the default assignee role and channels below.
	AssignOnTimeout     bool   `json:"assign_on_timeout"`
	DefaultAssigneeRole string `json:"default_assignee_role,omitempty"`
}

// DefaultPolicy returns the built-in tenant policy defaults.
func DefaultPolicy() PolicyDecision {
	return PolicyDecision{
		ShowProceedIndicator:         true,
		ShowTasking:                  true,
		AllowManualOverride:          true,
		Theme:                        "standard",
		UnacknowledgedTimeoutMinutes: 30,
		NotificationChannels:         []string{"dashboard"},
		AssignOnTimeout:              false,
		DefaultAssigneeRole:          "care_coordinator",
	}
}

// TaskingMode indicates the shape of the pending work set; the summary string
// shown to the user derives from it and never enumerates literal tasks.
type TaskingMode string

const (
	TaskingModeSystemProcessing TaskingMode = "system_processing"
	TaskingModeAutoReady        TaskingMode = "auto_ready"
	TaskingModeUserAction       TaskingMode = "user_action"
	TaskingModeAwaitingPatient  TaskingMode = "awaiting_patient"
	TaskingModeNone             TaskingMode = "none"
)

// TaskingDecision is the per-case tasking summary.
type TaskingDecision struct {
	Summary              string       `json:"summary"`
	Mode                 TaskingMode  `json:"mode"`
	Priority             TaskPriority `json:"priority"`
	UserTasks            int          `json:"user_tasks"`
	SystemTasks          int          `json:"system_tasks"`
	PatientTasks         int          `json:"patient_tasks"`
	NeedsAcknowledgement bool         `json:"needs_acknowledgement"`

	// InferredTasks is the small fixed task list the fallback path derives
	// from snapshot flags when no structured work items exist yet.
	InferredTasks []string `json:"inferred_tasks,omitempty"`
}

// AssignmentDecision is the notification/assignment hand-off decision.
type AssignmentDecision struct {
	Create       bool               `json:"create"`
	AssigneeRole string             `json:"assignee_role,omitempty"`
	Priority     AssignmentPriority `json:"priority,omitempty"`
	DueInMinutes int                `json:"due_in_minutes,omitempty"`
	Channels     []string           `json:"channels,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}
