package bottleneck

import (
	"time"
)

// FactorType names a bottleneck category: what is blocking a patient's case
// from reaching a payable/resolved state. The factor label is the only join
// between the probability view and the resolution-plan view - there is no
// foreign key between the two record kinds.
type FactorType string

const (
	FactorEligibility   FactorType = "eligibility"
	FactorCoverage      FactorType = "coverage"
	FactorAttendance    FactorType = "attendance"
	FactorBilling       FactorType = "billing_errors"
	FactorDocumentation FactorType = "documentation"
)

// Severity classifies a problem entry
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// PlanStatus is the lifecycle state of a resolution plan
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusResolved  PlanStatus = "RESOLVED"
	PlanStatusEscalated PlanStatus = "ESCALATED"
)

// OverrideStatus is the claim a human makes about a factor
type OverrideStatus string

const (
	OverrideResolved   OverrideStatus = "resolved"
	OverrideUnresolved OverrideStatus = "unresolved"
)

// OverrideSource identifies which surface the override was entered against
type OverrideSource int

const (
	// SourceAssessment - override entered against the probability (Layer-1) view
	SourceAssessment OverrideSource = 1
	// SourcePlan - override entered against the resolution-plan (Layer-2) view
	SourcePlan OverrideSource = 2
)

// ResolutionTypeUserOverride stamps plans resolved through the cascade rather
// than by the batch derivation jobs.
const ResolutionTypeUserOverride = "user_override"

// ProblemEntry is one record in an assessment's append-only problem log.
// Machine-derived entries carry question/reason/severity; manual override
// entries carry status/actor. The log is never rewritten, only appended to,
// so the original machine assessment stays auditable.
type ProblemEntry struct {
	Factor   FactorType `json:"factor"`
	Question string     `json:"question,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Severity Severity   `json:"severity,omitempty"`

	// Set only on manual override entries
	Override  OverrideStatus `json:"override_status,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitzero"`
}

// IsOverride reports whether the entry records a manual override rather than
// a machine-derived problem.
func (p ProblemEntry) IsOverride() bool {
	return p.Override != ""
}

// Assessment is the Layer-1 record: a probability-derived bottleneck summary
// for one patient. Produced by batch derivation jobs; the cascade only ever
// appends override entries to its problem log.
type Assessment struct {
	ID                  string                 `json:"id"`
	TenantID            string                 `json:"tenant_id"`
	PatientKey          string                 `json:"patient_key"`
	OverallProbability  float64                `json:"overall_probability"`
	FactorProbabilities map[FactorType]float64 `json:"factor_probabilities,omitempty"`
	LowestFactor        FactorType             `json:"lowest_factor,omitempty"`
	Problems            []ProblemEntry         `json:"problems,omitempty"`
	ComputedAt          time.Time              `json:"computed_at"`
}

// WeakestFactor returns the sub-factor with the lowest probability and that
// probability. LowestFactor takes precedence when set; otherwise the factor
// map is scanned.
func (a *Assessment) WeakestFactor() (FactorType, float64) {
	if a.LowestFactor != "" {
		if p, ok := a.FactorProbabilities[a.LowestFactor]; ok {
			return a.LowestFactor, p
		}
		return a.LowestFactor, a.OverallProbability
	}

	var weakest FactorType
	lowest := 1.1
	for f, p := range a.FactorProbabilities {
		if p < lowest || (p == lowest && f < weakest) {
			weakest = f
			lowest = p
		}
	}
	if weakest == "" {
		return "", a.OverallProbability
	}
	return weakest, lowest
}

// MentionsFactor reports whether the assessment names the factor, either as
// its lowest factor or in any problem entry.
func (a *Assessment) MentionsFactor(factor FactorType) bool {
	if a.LowestFactor == factor {
		return true
	}
	for _, p := range a.Problems {
		if p.Factor == factor {
			return true
		}
	}
	return false
}

// PlanStep is one ordered step of a resolution plan, tagged with the factor
// it addresses.
type PlanStep struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"sequence"`
	Factor      FactorType `json:"factor"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
}

// AuditNote is one record in a plan's append-only note log.
type AuditNote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ResolutionPlan is the Layer-2 record: the gap-tracking view of the same
// underlying patient case. Mutated by batch derivation jobs and, on manual
// override, by the cascade. Never deleted; history is carried in Notes.
type ResolutionPlan struct {
	ID             string       `json:"id"`
	TenantID       string       `json:"tenant_id"`
	PatientKey     string       `json:"patient_key"`
	Status         PlanStatus   `json:"status"`
	GapTypes       []FactorType `json:"gap_types,omitempty"`
	Steps          []PlanStep   `json:"steps,omitempty"`
	Notes          []AuditNote  `json:"notes,omitempty"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy     string       `json:"resolved_by,omitempty"`
	ResolutionType string       `json:"resolution_type,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CoversFactor reports whether the plan tracks the factor, through its
// gap-type set or any individual step's factor type.
func (p *ResolutionPlan) CoversFactor(factor FactorType) bool {
	for _, g := range p.GapTypes {
		if g == factor {
			return true
		}
	}
	for _, s := range p.Steps {
		if s.Factor == factor {
			return true
		}
	}
	return false
}

// Override is one human assertion about a factor's resolved state, entered
// against either layer.
type Override struct {
	PatientKey string         `json:"patient_key"`
	Factor     FactorType     `json:"factor"`
	Status     OverrideStatus `json:"status"`
	Actor      string         `json:"actor"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     OverrideSource `json:"source"`
}
