package agents

import (
	"errors"
	"testing"

	cserrors "github.com/caresignal/caresignal/internal/errors"
	"github.com/caresignal/caresignal/internal/signals"
)

type stubRules struct {
	validateErr error
	computeErr  error
	panicWith   interface{}
	value       string
}

func (s stubRules) Validate(ctx *signals.DecisionContext) error { return s.validateErr }

func (s stubRules) Compute(ctx *signals.DecisionContext) (string, error) {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.value, s.computeErr
}

func (s stubRules) Default() string { return "default" }

func (s stubRules) Reasoning(ctx *signals.DecisionContext, d string) string { return "stub" }

func (s stubRules) Confidence(ctx *signals.DecisionContext, d string) float64 { return 0.9 }

func TestEvaluate_Success(t *testing.T) {
	res := evaluate[string]("stub", stubRules{value: "computed"}, &signals.DecisionContext{TenantID: "t1"}, nil)

	if res.Value != "computed" {
		t.Errorf("value = %q, want %q", res.Value, "computed")
	}
	if res.Degraded() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
	if res.Confidence != 0.9 {
		t.Errorf("confidence = %.2f, want 0.9", res.Confidence)
	}
}

func TestEvaluate_NilContext(t *testing.T) {
	res := evaluate[string]("stub", stubRules{value: "computed"}, nil, nil)

	// A nil context is substituted with an empty one; whether that passes
	// validation is up to the rules, and the stub accepts anything.
	if res.Value != "computed" {
		t.Errorf("value = %q, want %q", res.Value, "computed")
	}
}

func TestEvaluate_ValidationFailure(t *testing.T) {
	vErr := cserrors.ValidationError("bad input")
	res := evaluate[string]("stub", stubRules{validateErr: vErr}, &signals.DecisionContext{}, nil)

	if res.Value != "default" {
		t.Errorf("value = %q, want default", res.Value)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], vErr) {
		t.Errorf("errors = %v, want the validation error", res.Errors)
	}
	if res.Confidence != fallbackConfidence {
		t.Errorf("confidence = %.2f, want %.2f", res.Confidence, fallbackConfidence)
	}
}

func TestEvaluate_ComputeFailure(t *testing.T) {
	cErr := errors.New("boom")
	res := evaluate[string]("stub", stubRules{computeErr: cErr}, &signals.DecisionContext{TenantID: "t1"}, nil)

	if res.Value != "default" {
		t.Errorf("value = %q, want default", res.Value)
	}
	if !res.Degraded() {
		t.Error("expected a captured compute error")
	}
}

func TestEvaluate_PanicRecovery(t *testing.T) {
	res := evaluate[string]("stub", stubRules{panicWith: "nil map write"}, &signals.DecisionContext{TenantID: "t1"}, nil)

	if res.Value != "default" {
		t.Errorf("value = %q, want default", res.Value)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	if !cserrors.IsType(res.Errors[0], cserrors.ErrorTypeAgentCompute) {
		t.Errorf("error type = %v, want agent-compute", res.Errors[0])
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, expected float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); got != tt.expected {
			t.Errorf("clamp01(%.2f) = %.2f, want %.2f", tt.in, got, tt.expected)
		}
	}
}
