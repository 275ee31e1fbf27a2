package agents

import (
	"log/slog"

	"github.com/caresignal/caresignal/internal/signals"
)

// PolicyAgent merges tenant-supplied configuration over built-in defaults.
// There is no branching logic beyond field-by-field override. Its output is
// written back into the shared context by the orchestrator before any other
// agent runs - the only cross-agent side effect in the pipeline.
type PolicyAgent struct {
	log *slog.Logger
}

// NewPolicyAgent creates the policy agent.
func NewPolicyAgent(log *slog.Logger) *PolicyAgent {
	return &PolicyAgent{log: log}
}

// Evaluate runs the policy envelope.
func (a *PolicyAgent) Evaluate(ctx *signals.DecisionContext) signals.DecisionResult[signals.PolicyDecision] {
	return evaluate[signals.PolicyDecision](signals.StagePolicy, policyRules{log: a.log}, ctx, a.log)
}

type policyRules struct {
	log *slog.Logger
}

func (policyRules) Validate(ctx *signals.DecisionContext) error {
	return requireTenant(ctx)
}

func (r policyRules) Compute(ctx *signals.DecisionContext) (signals.PolicyDecision, error) {
	d := signals.DefaultPolicy()
	cfg := ctx.TenantConfig
	if len(cfg) == 0 {
		return d, nil
	}

	// Unrecognized or malformed values are a ConfigError concern and are
	// ignored: the field keeps its default and the computed logic applies.
	readBool(cfg, "show_proceed_indicator", &d.ShowProceedIndicator)
	readBool(cfg, "show_tasking", &d.ShowTasking)
	readBool(cfg, "allow_manual_override", &d.AllowManualOverride)
	readBool(cfg, "require_user_driven", &d.RequireUserDriven)
	readBool(cfg, "assign_on_timeout", &d.AssignOnTimeout)
	readString(cfg, "theme", &d.Theme)
	readString(cfg, "default_assignee_role", &d.DefaultAssigneeRole)
	readInt(cfg, "unacknowledged_timeout_minutes", &d.UnacknowledgedTimeoutMinutes)
	readStrings(cfg, "notification_channels", &d.NotificationChannels)

	if raw, ok := stringValue(cfg, "force_proceed_indicator"); ok {
		if ind, err := signals.ParseProceedIndicator(raw); err == nil {
			d.ForceProceedIndicator = ind
		} else if r.log != nil {
			r.log.Debug("ignoring unrecognized policy override", "key", "force_proceed_indicator", "value", raw)
		}
	}
	if raw, ok := stringValue(cfg, "force_execution_mode"); ok {
		if mode, err := signals.ParseExecutionMode(raw); err == nil {
			d.ForceExecutionMode = mode
		} else if r.log != nil {
			r.log.Debug("ignoring unrecognized policy override", "key", "force_execution_mode", "value", raw)
		}
	}

	return d, nil
}

func (policyRules) Default() signals.PolicyDecision {
	return signals.DefaultPolicy()
}

func (policyRules) Reasoning(ctx *signals.DecisionContext, d signals.PolicyDecision) string {
	if len(ctx.TenantConfig) == 0 {
		return "no tenant configuration present; built-in defaults apply"
	}
	return "tenant configuration merged over built-in defaults"
}

func (policyRules) Confidence(ctx *signals.DecisionContext, d signals.PolicyDecision) float64 {
	if len(ctx.TenantConfig) == 0 {
		return 0.8
	}
	return 1.0
}

// Config map readers. Each leaves the target untouched when the key is absent
// or the value has an unexpected shape.

func readBool(cfg map[string]interface{}, key string, dst *bool) {
	if v, ok := cfg[key].(bool); ok {
		*dst = v
	}
}

func readString(cfg map[string]interface{}, key string, dst *string) {
	if v, ok := stringValue(cfg, key); ok {
		*dst = v
	}
}

func stringValue(cfg map[string]interface{}, key string) (string, bool) {
	v, ok := cfg[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func readInt(cfg map[string]interface{}, key string, dst *int) {
	switch v := cfg[key].(type) {
	case int:
		if v > 0 {
			*dst = v
		}
	case float64:
		// JSON numbers decode as float64
		if v > 0 {
			*dst = int(v)
		}
	}
}

func readStrings(cfg map[string]interface{}, key string, dst *[]string) {
	switch v := cfg[key].(type) {
	case []string:
		if len(v) > 0 {
			*dst = v
		}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
