package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/caresignal/caresignal/internal/bottleneck"
)

// schema is shared between the Postgres and SQLite backends; column types are
// kept to the portable subset both understand. JSON-shaped columns are stored
// as TEXT and marshalled in Go so factor matching against steps and problem
// entries stays driver-independent.
const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	patient_key TEXT NOT NULL,
	overall_probability REAL NOT NULL,
	lowest_factor TEXT,
	factor_probabilities TEXT,
	problems TEXT,
	computed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_patient ON assessments(patient_key);

CREATE TABLE IF NOT EXISTS resolution_plans (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	patient_key TEXT NOT NULL,
	status TEXT NOT NULL,
	gap_types TEXT,
	steps TEXT,
	notes TEXT,
	resolved_at TIMESTAMP,
	resolved_by TEXT,
	resolution_type TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_patient ON resolution_plans(patient_key, status);

CREATE TABLE IF NOT EXISTS tenant_policies (
	tenant_id TEXT PRIMARY KEY,
	config TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	patient_key TEXT,
	session_id TEXT,
	proceed TEXT,
	mode TEXT,
	outcome TEXT,
	summary TEXT,
	payload TEXT,
	computed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_log_patient ON decision_log(patient_key, computed_at);
`

// sqlStore is the shared query core for both SQL backends. q points at the
// database normally and at the open transaction inside InTx; every query
// goes through q so transactional and non-transactional paths share one
// implementation.
type sqlStore struct {
	db     *sqlx.DB
	q      sqlx.ExtContext
	logger *logrus.Logger
	inTx   bool
}

func newSQLStore(db *sqlx.DB, logger *logrus.Logger) *sqlStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &sqlStore{db: db, q: db, logger: logger}
}

func (s *sqlStore) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// InTx runs fn inside a single transaction; the cascade's read-then-write
// sequence executes under it. Nested calls reuse the open transaction.
func (s *sqlStore) InTx(ctx context.Context, fn func(bottleneck.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &sqlStore{db: s.db, q: tx, logger: s.logger, inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}
	return tx.Commit()
}

// row types

type assessmentRow struct {
	ID                  string         `db:"id"`
	TenantID            string         `db:"tenant_id"`
	PatientKey          string         `db:"patient_key"`
	OverallProbability  float64        `db:"overall_probability"`
	LowestFactor        sql.NullString `db:"lowest_factor"`
	FactorProbabilities []byte         `db:"factor_probabilities"`
	Problems            []byte         `db:"problems"`
	ComputedAt          time.Time      `db:"computed_at"`
}

func (r assessmentRow) toAssessment() (*bottleneck.Assessment, error) {
	a := &bottleneck.Assessment{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		PatientKey:         r.PatientKey,
		OverallProbability: r.OverallProbability,
		LowestFactor:       bottleneck.FactorType(r.LowestFactor.String),
		ComputedAt:         r.ComputedAt,
	}
	if len(r.FactorProbabilities) > 0 {
		if err := json.Unmarshal(r.FactorProbabilities, &a.FactorProbabilities); err != nil {
			return nil, fmt.Errorf("decode factor probabilities: %w", err)
		}
	}
	if len(r.Problems) > 0 {
		if err := json.Unmarshal(r.Problems, &a.Problems); err != nil {
			return nil, fmt.Errorf("decode problems: %w", err)
		}
	}
	return a, nil
}

type planRow struct {
	ID             string         `db:"id"`
	TenantID       string         `db:"tenant_id"`
	PatientKey     string         `db:"patient_key"`
	Status         string         `db:"status"`
	GapTypes       []byte         `db:"gap_types"`
	Steps          []byte         `db:"steps"`
	Notes          []byte         `db:"notes"`
	ResolvedAt     sql.NullTime   `db:"resolved_at"`
	ResolvedBy     sql.NullString `db:"resolved_by"`
	ResolutionType sql.NullString `db:"resolution_type"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r planRow) toPlan() (*bottleneck.ResolutionPlan, error) {
	p := &bottleneck.ResolutionPlan{
		ID:             r.ID,
		TenantID:       r.TenantID,
		PatientKey:     r.PatientKey,
		Status:         bottleneck.PlanStatus(r.Status),
		ResolvedBy:     r.ResolvedBy.String,
		ResolutionType: r.ResolutionType.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ResolvedAt.Valid {
		t := r.ResolvedAt.Time
		p.ResolvedAt = &t
	}
	if len(r.GapTypes) > 0 {
		if err := json.Unmarshal(r.GapTypes, &p.GapTypes); err != nil {
			return nil, fmt.Errorf("decode plan %s gap types: %w", r.ID, err)
		}
	}
	if len(r.Steps) > 0 {
		if err := json.Unmarshal(r.Steps, &p.Steps); err != nil {
			return nil, fmt.Errorf("decode plan %s steps: %w", r.ID, err)
		}
	}
	if len(r.Notes) > 0 {
		if err := json.Unmarshal(r.Notes, &p.Notes); err != nil {
			return nil, fmt.Errorf("decode plan %s notes: %w", r.ID, err)
		}
	}
	return p, nil
}

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Assessment operations

func (s *sqlStore) SaveAssessment(ctx context.Context, a *bottleneck.Assessment) error {
	probs, err := marshalJSON(a.FactorProbabilities)
	if err != nil {
		return fmt.Errorf("encode factor probabilities: %w", err)
	}
	problems, err := marshalJSON(a.Problems)
	if err != nil {
		return fmt.Errorf("encode problems: %w", err)
	}

	query := s.q.Rebind(`
		INSERT INTO assessments (id, tenant_id, patient_key, overall_probability,
			lowest_factor, factor_probabilities, problems, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			overall_probability = EXCLUDED.overall_probability,
			lowest_factor = EXCLUDED.lowest_factor,
			factor_probabilities = EXCLUDED.factor_probabilities,
			problems = EXCLUDED.problems,
			computed_at = EXCLUDED.computed_at
	`)
	_, err = s.q.ExecContext(ctx, query,
		a.ID, a.TenantID, a.PatientKey, a.OverallProbability,
		string(a.LowestFactor), probs, problems, a.ComputedAt)
	if err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

func (s *sqlStore) GetAssessments(ctx context.Context, patientKey string) ([]*bottleneck.Assessment, error) {
	var rows []assessmentRow
	query := s.q.Rebind(`SELECT * FROM assessments WHERE patient_key = ? ORDER BY computed_at DESC`)
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, patientKey); err != nil {
		return nil, fmt.Errorf("get assessments: %w", err)
	}

	out := make([]*bottleneck.Assessment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAssessment()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// FindAssessmentsByFactor returns all of the patient's assessments naming the
// factor. Matching against the problem log lives in Go because the log is a
// JSON column.
func (s *sqlStore) FindAssessmentsByFactor(ctx context.Context, patientKey string, factor bottleneck.FactorType) ([]*bottleneck.Assessment, error) {
	all, err := s.GetAssessments(ctx, patientKey)
	if err != nil {
		return nil, err
	}
	var out []*bottleneck.Assessment
	for _, a := range all {
		if a.MentionsFactor(factor) {
			out = append(out, a)
		}
	}
	return out, nil
}

// AppendOverrideEntry appends to the assessment's problem log. The log is
// append-only: the stored machine-derived entries are reread and extended,
// never replaced.
func (s *sqlStore) AppendOverrideEntry(ctx context.Context, a *bottleneck.Assessment, entry bottleneck.ProblemEntry) error {
	var raw []byte
	query := s.q.Rebind(`SELECT problems FROM assessments WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.q, &raw, query, a.ID); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("load problems: %w", err)
	}

	var problems []bottleneck.ProblemEntry
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &problems); err != nil {
			return fmt.Errorf("decode problems: %w", err)
		}
	}
	problems = append(problems, entry)

	encoded, err := json.Marshal(problems)
	if err != nil {
		return fmt.Errorf("encode problems: %w", err)
	}

	query = s.q.Rebind(`UPDATE assessments SET problems = ? WHERE id = ?`)
	if _, err := s.q.ExecContext(ctx, query, encoded, a.ID); err != nil {
		return fmt.Errorf("append override entry: %w", err)
	}

	a.Problems = problems
	return nil
}

// Resolution plan operations

func (s *sqlStore) SavePlan(ctx context.Context, p *bottleneck.ResolutionPlan) error {
	gaps, err := marshalJSON(p.GapTypes)
	if err != nil {
		return fmt.Errorf("encode gap types: %w", err)
	}
	steps, err := marshalJSON(p.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	notes, err := marshalJSON(p.Notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}

	query := s.q.Rebind(`
		INSERT INTO resolution_plans (id, tenant_id, patient_key, status, gap_types,
			steps, notes, resolved_at, resolved_by, resolution_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			gap_types = EXCLUDED.gap_types,
			steps = EXCLUDED.steps,
			notes = EXCLUDED.notes,
			resolved_at = EXCLUDED.resolved_at,
			resolved_by = EXCLUDED.resolved_by,
			resolution_type = EXCLUDED.resolution_type,
			updated_at = EXCLUDED.updated_at
	`)
	_, err = s.q.ExecContext(ctx, query,
		p.ID, p.TenantID, p.PatientKey, string(p.Status), gaps, steps, notes,
		p.ResolvedAt, p.ResolvedBy, p.ResolutionType, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (s *sqlStore) GetPlan(ctx context.Context, id string) (*bottleneck.ResolutionPlan, error) {
	var row planRow
	query := s.q.Rebind(`SELECT * FROM resolution_plans WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.q, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return row.toPlan()
}

func (s *sqlStore) FindActivePlansByFactor(ctx context.Context, patientKey string, factor bottleneck.FactorType) ([]*bottleneck.ResolutionPlan, error) {
	var rows []planRow
	query := s.q.Rebind(`SELECT * FROM resolution_plans WHERE patient_key = ? AND status = ?`)
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, patientKey, string(bottleneck.PlanStatusActive)); err != nil {
		return nil, fmt.Errorf("find active plans: %w", err)
	}

	var out []*bottleneck.ResolutionPlan
	for _, r := range rows {
		p, err := r.toPlan()
		if err != nil {
			return nil, err
		}
		if p.CoversFactor(factor) {
			out = append(out, p)
		}
	}
	return out, nil
}

// TransitionResolved is idempotent and one-directional: resolving an
// already-resolved plan is a no-op.
func (s *sqlStore) TransitionResolved(ctx context.Context, p *bottleneck.ResolutionPlan, actor string, at time.Time) error {
	if p.Status == bottleneck.PlanStatusResolved {
		return nil
	}

	query := s.q.Rebind(`
		UPDATE resolution_plans
		SET status = ?, resolved_at = ?, resolved_by = ?, resolution_type = ?, updated_at = ?
		WHERE id = ? AND status != ?
	`)
	_, err := s.q.ExecContext(ctx, query,
		string(bottleneck.PlanStatusResolved), at, actor, bottleneck.ResolutionTypeUserOverride, at,
		p.ID, string(bottleneck.PlanStatusResolved))
	if err != nil {
		return fmt.Errorf("transition plan resolved: %w", err)
	}

	p.Status = bottleneck.PlanStatusResolved
	resolvedAt := at
	p.ResolvedAt = &resolvedAt
	p.ResolvedBy = actor
	p.ResolutionType = bottleneck.ResolutionTypeUserOverride
	p.UpdatedAt = at
	return nil
}

func (s *sqlStore) AppendAuditNote(ctx context.Context, p *bottleneck.ResolutionPlan, note bottleneck.AuditNote) error {
	var raw []byte
	query := s.q.Rebind(`SELECT notes FROM resolution_plans WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.q, &raw, query, p.ID); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("load notes: %w", err)
	}

	var notes []bottleneck.AuditNote
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &notes); err != nil {
			return fmt.Errorf("decode notes: %w", err)
		}
	}
	notes = append(notes, note)

	encoded, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}

	query = s.q.Rebind(`UPDATE resolution_plans SET notes = ?, updated_at = ? WHERE id = ?`)
	if _, err := s.q.ExecContext(ctx, query, encoded, note.CreatedAt, p.ID); err != nil {
		return fmt.Errorf("append audit note: %w", err)
	}

	p.Notes = notes
	return nil
}

// Tenant policy operations

func (s *sqlStore) SaveTenantPolicy(ctx context.Context, tenantID string, cfg map[string]interface{}) error {
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode tenant policy: %w", err)
	}

	query := s.q.Rebind(`
		INSERT INTO tenant_policies (tenant_id, config, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (tenant_id) DO UPDATE SET
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`)
	if _, err := s.q.ExecContext(ctx, query, tenantID, encoded, time.Now().UTC()); err != nil {
		return fmt.Errorf("save tenant policy: %w", err)
	}
	return nil
}

func (s *sqlStore) GetTenantPolicy(ctx context.Context, tenantID string) (map[string]interface{}, error) {
	var raw []byte
	query := s.q.Rebind(`SELECT config FROM tenant_policies WHERE tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.q, &raw, query, tenantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant policy: %w", err)
	}

	var cfg map[string]interface{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode tenant policy: %w", err)
	}
	return cfg, nil
}

// Decision log operations

func (s *sqlStore) SaveDecisionLog(ctx context.Context, log *DecisionLog) error {
	query := s.q.Rebind(`
		INSERT INTO decision_log (id, tenant_id, patient_key, session_id,
			proceed, mode, outcome, summary, payload, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.q.ExecContext(ctx, query,
		log.ID, log.TenantID, log.PatientKey, log.SessionID,
		log.Proceed, log.Mode, log.Outcome, log.Summary, log.Payload, log.ComputedAt)
	if err != nil {
		return fmt.Errorf("save decision log: %w", err)
	}
	return nil
}

func (s *sqlStore) GetDecisionLogs(ctx context.Context, patientKey string, limit int) ([]*DecisionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []*DecisionLog
	query := s.q.Rebind(`
		SELECT * FROM decision_log WHERE patient_key = ?
		ORDER BY computed_at DESC LIMIT ?
	`)
	if err := sqlx.SelectContext(ctx, s.q, &logs, query, patientKey, limit); err != nil {
		return nil, fmt.Errorf("get decision logs: %w", err)
	}
	return logs, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
