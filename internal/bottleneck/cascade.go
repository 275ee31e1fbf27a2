package bottleneck

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cserrors "github.com/caresignal/caresignal/internal/errors"
)

// Cascade reconciles the Layer-1 probability view against the Layer-2
// resolution-plan view after a manual override on either side. The two views
// are produced by independent upstream derivations and can drift; the cascade
// propagates the human's claim across the factor-type join.
//
// The cascade is invoked exactly once per user action by the calling handler
// and never re-invokes itself, which structurally prevents oscillation
// between the two layers.
type Cascade struct {
	repo   Repository
	logger *logrus.Logger
}

// NewCascade creates a cascade over the given repository.
func NewCascade(repo Repository, logger *logrus.Logger) *Cascade {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cascade{repo: repo, logger: logger}
}

// Apply propagates a manual override to the opposite layer. It is a
// best-effort side effect of the primary user action: every failure (missing
// patient, no matching record, store unavailable) is logged and swallowed,
// never returned, so the acknowledgement/override action itself cannot fail
// on account of the cascade.
func (c *Cascade) Apply(ctx context.Context, ov Override) {
	if err := c.apply(ctx, ov); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"patient": ov.PatientKey,
			"factor":  ov.Factor,
			"status":  ov.Status,
			"source":  int(ov.Source),
		}).Warn("bottleneck cascade failed; override event remains the source of truth")
	}
}

func (c *Cascade) apply(ctx context.Context, ov Override) error {
	if ov.PatientKey == "" {
		return cserrors.CascadeError("override has no patient key")
	}
	if ov.Factor == "" {
		return cserrors.CascadeError("override has no factor")
	}
	if ov.Status != OverrideResolved && ov.Status != OverrideUnresolved {
		return cserrors.CascadeErrorf("unknown override status %q", ov.Status)
	}
	if ov.Timestamp.IsZero() {
		ov.Timestamp = time.Now().UTC()
	}

	// A failed write is logged and abandoned rather than retried: the
	// override event recorded by the calling surface is the durable record.
	switch ov.Source {
	case SourceAssessment:
		return c.repo.InTx(ctx, func(r Repository) error {
			return c.cascadeToPlans(ctx, r, ov)
		})
	case SourcePlan:
		return c.repo.InTx(ctx, func(r Repository) error {
			return c.cascadeToAssessments(ctx, r, ov)
		})
	default:
		return cserrors.CascadeErrorf("unknown override source %d", ov.Source)
	}
}

// cascadeToPlans handles an override entered against the probability view.
// A "resolved" claim transitions every matching active plan; an "unresolved"
// claim only documents - it must never silently re-open completed work.
func (c *Cascade) cascadeToPlans(ctx context.Context, r Repository, ov Override) error {
	plans, err := r.FindActivePlansByFactor(ctx, ov.PatientKey, ov.Factor)
	if err != nil {
		return cserrors.Wrap(err, cserrors.ErrorTypeCascade, cserrors.SeverityMedium, "find active plans")
	}
	if len(plans) == 0 {
		return cserrors.CascadeErrorf("no active plan tracks factor %q for patient %s", ov.Factor, ov.PatientKey)
	}

	for _, plan := range plans {
		note := AuditNote{
			ID:        uuid.NewString(),
			Actor:     ov.Actor,
			CreatedAt: ov.Timestamp,
		}

		if ov.Status == OverrideResolved {
			if err := r.TransitionResolved(ctx, plan, ov.Actor, ov.Timestamp); err != nil {
				return cserrors.Wrap(err, cserrors.ErrorTypeCascade, cserrors.SeverityMedium, "transition plan resolved")
			}
			note.Text = fmt.Sprintf("factor %s marked resolved by %s via probability view", ov.Factor, ov.Actor)
		} else {
			note.Text = fmt.Sprintf("factor %s asserted still unresolved by %s via probability view", ov.Factor, ov.Actor)
		}

		if err := r.AppendAuditNote(ctx, plan, note); err != nil {
			return cserrors.Wrap(err, cserrors.ErrorTypeCascade, cserrors.SeverityMedium, "append audit note")
		}

		c.logger.WithFields(logrus.Fields{
			"plan":    plan.ID,
			"patient": ov.PatientKey,
			"factor":  ov.Factor,
			"status":  ov.Status,
		}).Info("cascaded override to resolution plan")
	}

	return nil
}

// cascadeToAssessments handles an override entered against the plan view.
// For either status the original machine-derived assessment is preserved:
// only a structured override entry is appended to the problem log.
func (c *Cascade) cascadeToAssessments(ctx context.Context, r Repository, ov Override) error {
	assessments, err := r.FindAssessmentsByFactor(ctx, ov.PatientKey, ov.Factor)
	if err != nil {
		return cserrors.Wrap(err, cserrors.ErrorTypeCascade, cserrors.SeverityMedium, "find assessments")
	}
	if len(assessments) == 0 {
		return cserrors.CascadeErrorf("no assessment names factor %q for patient %s", ov.Factor, ov.PatientKey)
	}

	entry := ProblemEntry{
		Factor:    ov.Factor,
		Override:  ov.Status,
		Actor:     ov.Actor,
		Timestamp: ov.Timestamp,
	}

	for _, a := range assessments {
		if err := r.AppendOverrideEntry(ctx, a, entry); err != nil {
			return cserrors.Wrap(err, cserrors.ErrorTypeCascade, cserrors.SeverityMedium, "append override entry")
		}

		c.logger.WithFields(logrus.Fields{
			"assessment": a.ID,
			"patient":    ov.PatientKey,
			"factor":     ov.Factor,
			"status":     ov.Status,
		}).Info("cascaded override to assessment")
	}

	return nil
}
