package signals

import (
	"time"

	"github.com/caresignal/caresignal/internal/bottleneck"
)

// PatientSnapshot carries the raw patient flags the caller pre-fetched.
// It backs the fallback heuristics when no probability record or structured
// work items are available yet.
type PatientSnapshot struct {
	Verified                bool     `json:"verified"`
	DataComplete            bool     `json:"data_complete"`
	CriticalAlert           bool     `json:"critical_alert"`
	NeedsReview             bool     `json:"needs_review"`
	AdditionalInfoAvailable bool     `json:"additional_info_available"`
	Warnings                []string `json:"warnings,omitempty"`
	DateOfBirth             string   `json:"dob,omitempty"`
	Labels                  []string `json:"labels,omitempty"`
}

// WorkItem is one pending work item with its template attributes.
type WorkItem struct {
	ID                      string        `json:"id"`
	Title                   string        `json:"title,omitempty"`
	AssigneeClass           AssigneeClass `json:"assignee_class"`
	SystemExecutable        bool          `json:"system_executable"`
	ValueTier               ValueTier     `json:"value_tier,omitempty"`
	Blocking                bool          `json:"is_blocking"`
	SuccessRate             float64       `json:"success_rate"`
	SuccessRateThreshold    float64       `json:"success_rate_threshold"`
	RequiresHuman           bool          `json:"requires_human"`
	AlwaysRequiresOversight bool          `json:"always_requires_oversight"`
}

// LowSuccessRate reports whether the item's historical success rate falls
// below its own template threshold.
func (w WorkItem) LowSuccessRate() bool {
	return w.SuccessRateThreshold > 0 && w.SuccessRate < w.SuccessRateThreshold
}

// UserPreference is the stored per-user oversight preference.
type UserPreference struct {
	AlwaysRequireOversight bool `json:"always_require_oversight"`
}

// ResponseRecord is the most recent system response shown to the user.
type ResponseRecord struct {
	ID          string    `json:"id"`
	Invalidated bool      `json:"invalidated"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmissionRecord is the most recent acknowledgement submission. It may
// reference an older response than the current one, in which case it does not
// acknowledge the current response.
type SubmissionRecord struct {
	ID         string    `json:"id"`
	ResponseID string    `json:"response_id"`
	Dismissed  bool      `json:"dismissed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Acknowledges reports whether the submission references the given response.
func (s *SubmissionRecord) Acknowledges(resp *ResponseRecord) bool {
	return s != nil && resp != nil && s.ResponseID == resp.ID
}

// DecisionContext is the input bag threaded through one pipeline invocation.
// It is created per request by the caller, lives for one invocation, and is
// never persisted. All inputs are pre-fetched before the pipeline runs; no
// agent performs I/O.
//
// Policy is the single exception to immutability: the orchestrator writes the
// policy stage's merged decision into it exactly once, before any of the
// other five agents run.
type DecisionContext struct {
	TenantID   string `json:"tenant_id"`
	PatientKey string `json:"patient_key,omitempty"`
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id,omitempty"`

	Patient    *PatientSnapshot       `json:"patient,omitempty"`
	Assessment *bottleneck.Assessment `json:"assessment,omitempty"`

	WorkItems        []WorkItem        `json:"work_items,omitempty"`
	Preference       *UserPreference   `json:"preference,omitempty"`
	LatestResponse   *ResponseRecord   `json:"latest_response,omitempty"`
	LatestSubmission *SubmissionRecord `json:"latest_submission,omitempty"`

	// TenantConfig is the raw tenant-supplied policy configuration, merged
	// over built-in defaults by the policy agent.
	TenantConfig map[string]interface{} `json:"tenant_config,omitempty"`

	// Policy is set once by the orchestrator from the policy stage's output.
	Policy *PolicyDecision `json:"-"`

	// Now pins the evaluation clock; zero means time.Now. Tests inject it.
	Now time.Time `json:"-"`
}

// At returns the evaluation time for elapsed-time rules.
func (c *DecisionContext) At() time.Time {
	if c.Now.IsZero() {
		return time.Now().UTC()
	}
	return c.Now
}

// EffectivePolicy returns the enriched policy, or built-in defaults when the
// policy stage has not run (direct agent use in tests).
func (c *DecisionContext) EffectivePolicy() PolicyDecision {
	if c.Policy != nil {
		return *c.Policy
	}
	return DefaultPolicy()
}
