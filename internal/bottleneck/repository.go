package bottleneck

import (
	"context"
	"time"
)

// Repository is the storage abstraction the cascade writes through. Both
// bottleneck record kinds are owned by the same process and store; the
// cascade performs its read-then-write sequence inside a single transaction
// via InTx.
type Repository interface {
	// FindActivePlansByFactor returns the patient's ACTIVE resolution plans
	// whose gap-type set or step factor types include the factor.
	FindActivePlansByFactor(ctx context.Context, patientKey string, factor FactorType) ([]*ResolutionPlan, error)

	// TransitionResolved moves a plan to RESOLVED and stamps resolved-at/by
	// and resolution-type user_override. Resolving an already-resolved plan
	// is a no-op; the transition is one-directional.
	TransitionResolved(ctx context.Context, plan *ResolutionPlan, actor string, at time.Time) error

	// AppendAuditNote appends a note to the plan's note log.
	AppendAuditNote(ctx context.Context, plan *ResolutionPlan, note AuditNote) error

	// FindAssessmentsByFactor returns all of the patient's assessments (not
	// only the latest) whose lowest factor equals the factor or whose problem
	// log names it.
	FindAssessmentsByFactor(ctx context.Context, patientKey string, factor FactorType) ([]*Assessment, error)

	// AppendOverrideEntry appends a structured override entry to the
	// assessment's problem log. The log is append-only.
	AppendOverrideEntry(ctx context.Context, assessment *Assessment, entry ProblemEntry) error

	// InTx runs fn inside a single transaction. Implementations without
	// transactional semantics may run fn directly.
	InTx(ctx context.Context, fn func(Repository) error) error
}
