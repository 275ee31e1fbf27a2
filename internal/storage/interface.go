package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/caresignal/caresignal/internal/bottleneck"
	"github.com/caresignal/caresignal/internal/signals"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store defines the storage interface. It owns both bottleneck record kinds
// (the cascade writes through the embedded Repository), tenant policy
// configuration, and the append-only decision log of computed responses.
type Store interface {
	bottleneck.Repository

	// Assessment (Layer-1) operations
	SaveAssessment(ctx context.Context, a *bottleneck.Assessment) error
	GetAssessments(ctx context.Context, patientKey string) ([]*bottleneck.Assessment, error)

	// Resolution plan (Layer-2) operations
	SavePlan(ctx context.Context, p *bottleneck.ResolutionPlan) error
	GetPlan(ctx context.Context, id string) (*bottleneck.ResolutionPlan, error)

	// Tenant policy operations
	SaveTenantPolicy(ctx context.Context, tenantID string, cfg map[string]interface{}) error
	GetTenantPolicy(ctx context.Context, tenantID string) (map[string]interface{}, error)

	// Decision log operations (append-only, audit/replay)
	SaveDecisionLog(ctx context.Context, log *DecisionLog) error
	GetDecisionLogs(ctx context.Context, patientKey string, limit int) ([]*DecisionLog, error)

	// Close connection
	Close() error
}

// DecisionLog is one persisted pipeline result.
type DecisionLog struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	PatientKey string    `db:"patient_key" json:"patient_key"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Proceed    string    `db:"proceed" json:"proceed"`
	Mode       string    `db:"mode" json:"mode"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Summary    string    `db:"summary" json:"summary"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	ComputedAt time.Time `db:"computed_at" json:"computed_at"`
}

// NewDecisionLog converts one computed response into its audit record. The
// payload carries the full projection so a response can be replayed for a
// consumer without recomputation.
func NewDecisionLog(dc *signals.DecisionContext, resp *signals.SystemResponse) (*DecisionLog, error) {
	payload, err := json.Marshal(resp.Full())
	if err != nil {
		return nil, err
	}
	return &DecisionLog{
		ID:         uuid.NewString(),
		TenantID:   dc.TenantID,
		PatientKey: dc.PatientKey,
		SessionID:  dc.SessionID,
		Proceed:    resp.Proceed.String(),
		Mode:       resp.Mode.String(),
		Outcome:    resp.Outcome.String(),
		Summary:    resp.Tasking.Summary,
		Payload:    payload,
		ComputedAt: resp.ComputedAt,
	}, nil
}
