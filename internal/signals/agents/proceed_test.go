package agents

import (
	"testing"

	"github.com/caresignal/caresignal/internal/bottleneck"
	"github.com/caresignal/caresignal/internal/signals"
)

func TestIndicatorForProbability(t *testing.T) {
	tests := []struct {
		name     string
		prob     float64
		expected signals.ProceedIndicator
	}{
		{"Certain payable", 1.0, signals.IndicatorGreen},
		{"Green boundary", 0.85, signals.IndicatorGreen},
		{"Just below green", 0.84, signals.IndicatorYellow},
		{"Mid yellow", 0.70, signals.IndicatorYellow},
		{"Yellow boundary", 0.60, signals.IndicatorYellow},
		{"Just below yellow", 0.59, signals.IndicatorRed},
		{"Very low", 0.1, signals.IndicatorRed},
		{"Zero", 0.0, signals.IndicatorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := indicatorForProbability(tt.prob); got != tt.expected {
				t.Errorf("indicatorForProbability(%.2f) = %v, want %v", tt.prob, got, tt.expected)
			}
		})
	}
}

func TestProceedAgent_NoPatientKey(t *testing.T) {
	agent := NewProceedAgent(nil)

	// No patient key means GREY regardless of any other signal in scope.
	ctx := &signals.DecisionContext{
		TenantID: "t1",
		Patient:  &signals.PatientSnapshot{CriticalAlert: true},
		Assessment: &bottleneck.Assessment{
			TenantID:           "t1",
			OverallProbability: 0.99,
		},
	}

	res := agent.Evaluate(ctx)
	if res.Value != signals.IndicatorGrey {
		t.Errorf("indicator = %v, want %v", res.Value, signals.IndicatorGrey)
	}
	if res.Degraded() {
		t.Errorf("expected clean result, got errors: %v", res.Errors)
	}
}

func TestProceedAgent_ForceWinsOverProbability(t *testing.T) {
	agent := NewProceedAgent(nil)

	policy := signals.DefaultPolicy()
	policy.ForceProceedIndicator = signals.IndicatorBlue
	ctx := &signals.DecisionContext{
		TenantID:   "t1",
		PatientKey: "p1",
		Policy:     &policy,
		Assessment: &bottleneck.Assessment{
			TenantID:           "t1",
			PatientKey:         "p1",
			OverallProbability: 0.92, // would be GREEN on its own
		},
	}

	res := agent.Evaluate(ctx)
	if res.Value != signals.IndicatorBlue {
		t.Errorf("indicator = %v, want %v", res.Value, signals.IndicatorBlue)
	}
}

func TestProceedAgent_AdditionalInfoBeatsAssessment(t *testing.T) {
	agent := NewProceedAgent(nil)

	ctx := &signals.DecisionContext{
		TenantID:   "t1",
		PatientKey: "p1",
		Patient:    &signals.PatientSnapshot{AdditionalInfoAvailable: true},
		Assessment: &bottleneck.Assessment{
			TenantID:           "t1",
			PatientKey:         "p1",
			OverallProbability: 0.90,
		},
	}

	res := agent.Evaluate(ctx)
	if res.Value != signals.IndicatorBlue {
		t.Errorf("indicator = %v, want %v", res.Value, signals.IndicatorBlue)
	}
}

func TestProceedAgent_SnapshotFallback(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *signals.PatientSnapshot
		expected signals.ProceedIndicator
	}{
		{"Critical alert", &signals.PatientSnapshot{CriticalAlert: true, Verified: true, DataComplete: true}, signals.IndicatorRed},
		{"Warnings present", &signals.PatientSnapshot{Warnings: []string{"lapsed consent"}, Verified: true, DataComplete: true}, signals.IndicatorYellow},
		{"Needs review", &signals.PatientSnapshot{NeedsReview: true}, signals.IndicatorYellow},
		{"Verified and complete", &signals.PatientSnapshot{Verified: true, DataComplete: true}, signals.IndicatorGreen},
		{"Verified but incomplete", &signals.PatientSnapshot{Verified: true}, signals.IndicatorGrey},
		{"No snapshot at all", nil, signals.IndicatorGrey},
	}

	agent := NewProceedAgent(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &signals.DecisionContext{
				TenantID:   "t1",
				PatientKey: "p1",
				Patient:    tt.snapshot,
			}
			res := agent.Evaluate(ctx)
			if res.Value != tt.expected {
				t.Errorf("indicator = %v, want %v", res.Value, tt.expected)
			}
		})
	}
}

func TestProceedAgent_MissingTenantFallsBack(t *testing.T) {
	agent := NewProceedAgent(nil)

	res := agent.Evaluate(&signals.DecisionContext{PatientKey: "p1"})
	if res.Value != signals.IndicatorGrey {
		t.Errorf("indicator = %v, want default %v", res.Value, signals.IndicatorGrey)
	}
	if !res.Degraded() {
		t.Error("expected a captured validation error")
	}
	if res.Confidence != fallbackConfidence {
		t.Errorf("confidence = %.2f, want %.2f", res.Confidence, fallbackConfidence)
	}
}

func TestWeakestFactorPhrase(t *testing.T) {
	tests := []struct {
		name       string
		assessment *bottleneck.Assessment
		expected   string
	}{
		{
			"Low eligibility",
			&bottleneck.Assessment{
				OverallProbability:  0.4,
				LowestFactor:        bottleneck.FactorEligibility,
				FactorProbabilities: map[bottleneck.FactorType]float64{bottleneck.FactorEligibility: 0.3},
			},
			"Eligibility could not be confirmed",
		},
		{
			"Medium coverage",
			&bottleneck.Assessment{
				OverallProbability:  0.7,
				LowestFactor:        bottleneck.FactorCoverage,
				FactorProbabilities: map[bottleneck.FactorType]float64{bottleneck.FactorCoverage: 0.65},
			},
			"Coverage has open questions",
		},
		{
			"High attendance",
			&bottleneck.Assessment{
				OverallProbability:  0.9,
				LowestFactor:        bottleneck.FactorAttendance,
				FactorProbabilities: map[bottleneck.FactorType]float64{bottleneck.FactorAttendance: 0.85},
			},
			"Attendance looks good",
		},
		{
			"No factor breakdown",
			&bottleneck.Assessment{OverallProbability: 0.75},
			"Overall payability estimated at 75%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weakestFactorPhrase(tt.assessment); got != tt.expected {
				t.Errorf("weakestFactorPhrase() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSeverityBucket(t *testing.T) {
	tests := []struct {
		prob     float64
		expected string
	}{
		{0.0, "low"},
		{0.49, "low"},
		{0.5, "medium"},
		{0.79, "medium"},
		{0.8, "high"},
		{1.0, "high"},
	}

	for _, tt := range tests {
		if got := severityBucket(tt.prob); got != tt.expected {
			t.Errorf("severityBucket(%.2f) = %q, want %q", tt.prob, got, tt.expected)
		}
	}
}
