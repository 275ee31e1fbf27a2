package agents

import (
	"fmt"
	"log/slog"

	"github.com/caresignal/caresignal/internal/bottleneck"
	"github.com/caresignal/caresignal/internal/signals"
)

// Probability thresholds for the traffic-light mapping. Boundaries are
// inclusive on the green side: p >= 0.85 is GREEN, p >= 0.60 is YELLOW,
// anything below is RED.
const (
	proceedGreenThreshold  = 0.85
	proceedYellowThreshold = 0.60
)

// ProceedAgent computes the traffic-light proceed indicator. Rule order:
// no patient key, policy force, additional-info flag, probability threshold,
// then the raw snapshot-flag heuristic.
type ProceedAgent struct {
	log *slog.Logger
}

// NewProceedAgent creates the proceed agent.
func NewProceedAgent(log *slog.Logger) *ProceedAgent {
	return &ProceedAgent{log: log}
}

// Evaluate runs the proceed envelope.
func (a *ProceedAgent) Evaluate(ctx *signals.DecisionContext) signals.DecisionResult[signals.ProceedIndicator] {
	return evaluate[signals.ProceedIndicator](signals.StageProceed, proceedRules{}, ctx, a.log)
}

type proceedRules struct{}

func (proceedRules) Validate(ctx *signals.DecisionContext) error {
	return requireTenant(ctx)
}

func (proceedRules) Compute(ctx *signals.DecisionContext) (signals.ProceedIndicator, error) {
	if ctx.PatientKey == "" {
		return signals.IndicatorGrey, nil
	}

	if forced := ctx.EffectivePolicy().ForceProceedIndicator; forced != "" {
		return forced, nil
	}

	if ctx.Patient != nil && ctx.Patient.AdditionalInfoAvailable {
		return signals.IndicatorBlue, nil
	}

	if ctx.Assessment != nil {
		return indicatorForProbability(ctx.Assessment.OverallProbability), nil
	}

	return indicatorFromSnapshot(ctx.Patient), nil
}

func indicatorForProbability(p float64) signals.ProceedIndicator {
	switch {
	case p >= proceedGreenThreshold:
		return signals.IndicatorGreen
	case p >= proceedYellowThreshold:
		return signals.IndicatorYellow
	default:
		return signals.IndicatorRed
	}
}

// indicatorFromSnapshot is the fallback heuristic over raw snapshot flags
// when no probability record exists yet.
func indicatorFromSnapshot(snap *signals.PatientSnapshot) signals.ProceedIndicator {
	if snap == nil {
		return signals.IndicatorGrey
	}
	switch {
	case snap.CriticalAlert:
		return signals.IndicatorRed
	case len(snap.Warnings) > 0 || snap.NeedsReview:
		return signals.IndicatorYellow
	case snap.Verified && snap.DataComplete:
		return signals.IndicatorGreen
	default:
		return signals.IndicatorGrey
	}
}

func (proceedRules) Default() signals.ProceedIndicator {
	return signals.IndicatorGrey
}

func (proceedRules) Reasoning(ctx *signals.DecisionContext, d signals.ProceedIndicator) string {
	if ctx.PatientKey == "" {
		return "no patient in context"
	}
	if ctx.EffectivePolicy().ForceProceedIndicator != "" {
		return "indicator fixed by tenant policy"
	}
	if ctx.Patient != nil && ctx.Patient.AdditionalInfoAvailable {
		return "additional information is available for this case"
	}
	if ctx.Assessment != nil {
		return weakestFactorPhrase(ctx.Assessment)
	}
	return snapshotPhrase(ctx.Patient)
}

func (proceedRules) Confidence(ctx *signals.DecisionContext, d signals.ProceedIndicator) float64 {
	switch {
	case ctx.PatientKey == "":
		return 0.5
	case ctx.Assessment != nil:
		return 0.9
	case ctx.Patient != nil:
		return 0.6
	default:
		return 0.4
	}
}

// factorPhrases maps each bottleneck factor to short user-facing phrases,
// bucketed by the sub-factor's own probability.
var factorPhrases = map[bottleneck.FactorType]map[string]string{
	bottleneck.FactorEligibility: {
		"low":    "Eligibility could not be confirmed",
		"medium": "Eligibility needs another look",
		"high":   "Eligibility looks good",
	},
	bottleneck.FactorCoverage: {
		"low":    "Coverage is likely to be denied",
		"medium": "Coverage has open questions",
		"high":   "Coverage looks good",
	},
	bottleneck.FactorAttendance: {
		"low":    "Attendance is a serious concern",
		"medium": "Attendance has been inconsistent",
		"high":   "Attendance looks good",
	},
	bottleneck.FactorBilling: {
		"low":    "Billing errors are blocking this case",
		"medium": "Billing needs cleanup",
		"high":   "Billing looks good",
	},
	bottleneck.FactorDocumentation: {
		"low":    "Required documentation is missing",
		"medium": "Documentation is incomplete",
		"high":   "Documentation looks good",
	},
}

func severityBucket(p float64) string {
	switch {
	case p < 0.5:
		return "low"
	case p < 0.8:
		return "medium"
	default:
		return "high"
	}
}

// weakestFactorPhrase derives the user-facing text from the assessment's
// weakest sub-factor through the fixed phrase table.
func weakestFactorPhrase(a *bottleneck.Assessment) string {
	factor, p := a.WeakestFactor()
	if factor == "" {
		return fmt.Sprintf("Overall payability estimated at %.0f%%", a.OverallProbability*100)
	}
	if phrases, ok := factorPhrases[factor]; ok {
		return phrases[severityBucket(p)]
	}
	return fmt.Sprintf("Weakest factor %s at %.0f%%", factor, p*100)
}

func snapshotPhrase(snap *signals.PatientSnapshot) string {
	if snap == nil {
		return "no assessment or patient data available yet"
	}
	switch {
	case snap.CriticalAlert:
		return "critical alert on patient record"
	case len(snap.Warnings) > 0:
		return fmt.Sprintf("%d warning(s) on patient record", len(snap.Warnings))
	case snap.NeedsReview:
		return "patient record flagged for review"
	case snap.Verified && snap.DataComplete:
		return "patient record verified and complete"
	default:
		return "patient record incomplete"
	}
}
