package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caresignal/caresignal/internal/signals"
)

func TestPolicyAgent_DefaultsWithoutConfig(t *testing.T) {
	agent := NewPolicyAgent(nil)

	res := agent.Evaluate(&signals.DecisionContext{TenantID: "t1"})
	assert.Equal(t, signals.DefaultPolicy(), res.Value)
	assert.Equal(t, 0.8, res.Confidence)
}

func TestPolicyAgent_MergesTenantConfig(t *testing.T) {
	agent := NewPolicyAgent(nil)

	// Values shaped the way encoding/json decodes them: float64 numbers,
	// []interface{} lists.
	ctx := &signals.DecisionContext{
		TenantID: "t1",
		TenantConfig: map[string]interface{}{
			"show_proceed_indicator":         false,
			"theme":                          "high_contrast",
			"unacknowledged_timeout_minutes": float64(45),
			"notification_channels":          []interface{}{"sms", "dashboard"},
			"require_user_driven":            true,
			"default_assignee_role":          "intake_nurse",
			"force_proceed_indicator":        "blue",
		},
	}

	res := agent.Evaluate(ctx)
	assert.False(t, res.Value.ShowProceedIndicator)
	assert.True(t, res.Value.ShowTasking) // untouched default
	assert.Equal(t, "high_contrast", res.Value.Theme)
	assert.Equal(t, 45, res.Value.UnacknowledgedTimeoutMinutes)
	assert.Equal(t, []string{"sms", "dashboard"}, res.Value.NotificationChannels)
	assert.True(t, res.Value.RequireUserDriven)
	assert.Equal(t, "intake_nurse", res.Value.DefaultAssigneeRole)
	assert.Equal(t, signals.IndicatorBlue, res.Value.ForceProceedIndicator)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestPolicyAgent_IgnoresMalformedValues(t *testing.T) {
	agent := NewPolicyAgent(nil)

	ctx := &signals.DecisionContext{
		TenantID: "t1",
		TenantConfig: map[string]interface{}{
			"unacknowledged_timeout_minutes": "soon",
			"force_proceed_indicator":        "purple",
			"force_execution_mode":           "autopilot",
			"show_tasking":                   "yes",
		},
	}

	res := agent.Evaluate(ctx)
	defaults := signals.DefaultPolicy()
	assert.Equal(t, defaults.UnacknowledgedTimeoutMinutes, res.Value.UnacknowledgedTimeoutMinutes)
	assert.Equal(t, defaults.ShowTasking, res.Value.ShowTasking)
	assert.Empty(t, res.Value.ForceProceedIndicator)
	assert.Empty(t, res.Value.ForceExecutionMode)
	assert.Empty(t, res.Errors)
}

func TestPolicyAgent_ParsesForcedModeAliases(t *testing.T) {
	agent := NewPolicyAgent(nil)

	tests := []struct {
		raw      string
		expected signals.ExecutionMode
	}{
		{"agentic", signals.ModeAgentic},
		{"COPILOT", signals.ModeCopilot},
		{"user_driven", signals.ModeUserDriven},
	}

	for _, tt := range tests {
		ctx := &signals.DecisionContext{
			TenantID:     "t1",
			TenantConfig: map[string]interface{}{"force_execution_mode": tt.raw},
		}
		res := agent.Evaluate(ctx)
		assert.Equal(t, tt.expected, res.Value.ForceExecutionMode, "raw %q", tt.raw)
	}
}

func TestPolicyAgent_MissingTenant(t *testing.T) {
	agent := NewPolicyAgent(nil)

	res := agent.Evaluate(&signals.DecisionContext{})
	assert.Equal(t, signals.DefaultPolicy(), res.Value)
	assert.True(t, res.Degraded())
	assert.Equal(t, fallbackConfidence, res.Confidence)
}
