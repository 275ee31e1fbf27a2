package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleResponse() *SystemResponse {
	return &SystemResponse{
		Policy:      DefaultPolicy(),
		Proceed:     IndicatorYellow,
		ProceedText: "Coverage has open questions",
		Mode:        ModeCopilot,
		Tasking: TaskingDecision{
			Summary:              "2 action(s) need attention",
			Mode:                 TaskingModeUserAction,
			Priority:             PriorityMedium,
			UserTasks:            2,
			NeedsAcknowledgement: true,
		},
		Outcome: OutcomePending,
		Assignment: &AssignmentDecision{
			Create:       true,
			AssigneeRole: "care_coordinator",
			Priority:     AssignmentRoutine,
		},
		Provenance: map[string]Provenance{},
		ComputedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestProjectionsAgree(t *testing.T) {
	resp := sampleResponse()
	compact := resp.Compact()
	full := resp.Full()

	// Both projections derive from the same response and must agree on the
	// shared fields.
	assert.Equal(t, compact.Proceed, full.Proceed)
	assert.Equal(t, compact.Tasking, full.TaskingSummary)
	assert.Equal(t, compact.Mode, full.Mode)
	assert.Equal(t, compact.ComputedAt, full.ComputedAt)
}

func TestCompactPayloadFields(t *testing.T) {
	resp := sampleResponse()
	compact := resp.Compact()

	assert.Equal(t, "YELLOW", compact.Proceed.Indicator)
	assert.Equal(t, IndicatorYellow.Color(), compact.Proceed.Color)
	assert.Equal(t, "Coverage has open questions", compact.Proceed.Text)
	assert.Equal(t, "2 action(s) need attention", compact.Tasking.Text)
	assert.True(t, compact.Tasking.NeedsAck)
	assert.Equal(t, PriorityMedium.Color(), compact.Tasking.Color)
	assert.Equal(t, "COPILOT", compact.Mode)
}

func TestFullPayloadCarriesDetail(t *testing.T) {
	resp := sampleResponse()
	full := resp.Full()

	assert.Equal(t, ModeCopilot.Description(), full.ExecutionModeText)
	assert.Equal(t, "PENDING", full.Outcome)
	assert.Equal(t, resp.Policy, full.Policy)
	assert.Equal(t, resp.Tasking, full.Tasking)
	assert.NotNil(t, full.Assignment)
	assert.Equal(t, "care_coordinator", full.Assignment.AssigneeRole)
}

func TestFullPayloadWithoutAssignment(t *testing.T) {
	resp := sampleResponse()
	resp.Assignment = nil

	assert.Nil(t, resp.Full().Assignment)
}
