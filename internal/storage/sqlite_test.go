package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresignal/caresignal/internal/bottleneck"
	"github.com/caresignal/caresignal/internal/signals"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testAssessment() *bottleneck.Assessment {
	return &bottleneck.Assessment{
		ID:                 "a1",
		TenantID:           "t1",
		PatientKey:         "p1",
		OverallProbability: 0.55,
		LowestFactor:       bottleneck.FactorEligibility,
		FactorProbabilities: map[bottleneck.FactorType]float64{
			bottleneck.FactorEligibility: 0.3,
			bottleneck.FactorCoverage:    0.8,
		},
		Problems: []bottleneck.ProblemEntry{
			{Factor: bottleneck.FactorEligibility, Question: "Is the patient eligible?", Severity: bottleneck.SeverityHigh},
		},
		ComputedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func testPlan() *bottleneck.ResolutionPlan {
	return &bottleneck.ResolutionPlan{
		ID:         "plan1",
		TenantID:   "t1",
		PatientKey: "p1",
		Status:     bottleneck.PlanStatusActive,
		GapTypes:   []bottleneck.FactorType{bottleneck.FactorEligibility},
		Steps: []bottleneck.PlanStep{
			{ID: "s1", Sequence: 1, Factor: bottleneck.FactorEligibility, Description: "Re-verify eligibility"},
		},
		CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_AssessmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAssessment(ctx, testAssessment()))

	got, err := store.GetAssessments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	a := got[0]
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, 0.55, a.OverallProbability)
	assert.Equal(t, bottleneck.FactorEligibility, a.LowestFactor)
	assert.Equal(t, 0.3, a.FactorProbabilities[bottleneck.FactorEligibility])
	require.Len(t, a.Problems, 1)
	assert.Equal(t, bottleneck.SeverityHigh, a.Problems[0].Severity)
}

func TestSQLiteStore_AssessmentUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAssessment()
	require.NoError(t, store.SaveAssessment(ctx, a))

	a.OverallProbability = 0.9
	a.LowestFactor = bottleneck.FactorCoverage
	require.NoError(t, store.SaveAssessment(ctx, a))

	got, err := store.GetAssessments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].OverallProbability)
	assert.Equal(t, bottleneck.FactorCoverage, got[0].LowestFactor)
}

func TestSQLiteStore_PlanRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePlan(ctx, testPlan()))

	got, err := store.GetPlan(ctx, "plan1")
	require.NoError(t, err)
	assert.Equal(t, bottleneck.PlanStatusActive, got.Status)
	assert.Equal(t, []bottleneck.FactorType{bottleneck.FactorEligibility}, got.GapTypes)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "Re-verify eligibility", got.Steps[0].Description)
	assert.Nil(t, got.ResolvedAt)
}

func TestSQLiteStore_GetPlanNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPlan(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_FindActivePlansByFactor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePlan(ctx, testPlan()))

	resolved := testPlan()
	resolved.ID = "plan2"
	resolved.Status = bottleneck.PlanStatusResolved
	require.NoError(t, store.SavePlan(ctx, resolved))

	other := testPlan()
	other.ID = "plan3"
	other.GapTypes = []bottleneck.FactorType{bottleneck.FactorBilling}
	other.Steps = nil
	require.NoError(t, store.SavePlan(ctx, other))

	plans, err := store.FindActivePlansByFactor(ctx, "p1", bottleneck.FactorEligibility)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan1", plans[0].ID)
}

func TestSQLiteStore_TransitionResolved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	plan := testPlan()
	require.NoError(t, store.SavePlan(ctx, plan))

	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.TransitionResolved(ctx, plan, "nurse.jones", at))

	got, err := store.GetPlan(ctx, "plan1")
	require.NoError(t, err)
	assert.Equal(t, bottleneck.PlanStatusResolved, got.Status)
	assert.Equal(t, "nurse.jones", got.ResolvedBy)
	assert.Equal(t, bottleneck.ResolutionTypeUserOverride, got.ResolutionType)
	require.NotNil(t, got.ResolvedAt)

	// Second transition is a no-op; resolved-by does not change.
	require.NoError(t, store.TransitionResolved(ctx, got, "someone.else", at.Add(time.Hour)))
	again, err := store.GetPlan(ctx, "plan1")
	require.NoError(t, err)
	assert.Equal(t, "nurse.jones", again.ResolvedBy)
}

func TestSQLiteStore_AppendAuditNote(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	plan := testPlan()
	require.NoError(t, store.SavePlan(ctx, plan))

	note := bottleneck.AuditNote{ID: "n1", Text: "first note", Actor: "nurse.jones",
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.AppendAuditNote(ctx, plan, note))

	second := bottleneck.AuditNote{ID: "n2", Text: "second note", Actor: "nurse.jones",
		CreatedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, store.AppendAuditNote(ctx, plan, second))

	got, err := store.GetPlan(ctx, "plan1")
	require.NoError(t, err)
	require.Len(t, got.Notes, 2)
	assert.Equal(t, "first note", got.Notes[0].Text)
	assert.Equal(t, "second note", got.Notes[1].Text)
}

func TestSQLiteStore_AppendOverrideEntryPreservesLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAssessment()
	require.NoError(t, store.SaveAssessment(ctx, a))

	entry := bottleneck.ProblemEntry{
		Factor:    bottleneck.FactorEligibility,
		Override:  bottleneck.OverrideResolved,
		Actor:     "nurse.jones",
		Timestamp: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.AppendOverrideEntry(ctx, a, entry))

	got, err := store.GetAssessments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Problems, 2)
	assert.False(t, got[0].Problems[0].IsOverride())
	assert.True(t, got[0].Problems[1].IsOverride())
	assert.Equal(t, bottleneck.OverrideResolved, got[0].Problems[1].Override)
}

func TestSQLiteStore_FindAssessmentsByFactor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAssessment(ctx, testAssessment()))

	unrelated := testAssessment()
	unrelated.ID = "a2"
	unrelated.LowestFactor = bottleneck.FactorAttendance
	unrelated.Problems = nil
	require.NoError(t, store.SaveAssessment(ctx, unrelated))

	got, err := store.FindAssessmentsByFactor(ctx, "p1", bottleneck.FactorEligibility)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}

func TestSQLiteStore_CascadeEndToEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePlan(ctx, testPlan()))
	require.NoError(t, store.SaveAssessment(ctx, testAssessment()))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cascade := bottleneck.NewCascade(store, logger)

	cascade.Apply(ctx, bottleneck.Override{
		PatientKey: "p1",
		Factor:     bottleneck.FactorEligibility,
		Status:     bottleneck.OverrideResolved,
		Actor:      "nurse.jones",
		Timestamp:  time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Source:     bottleneck.SourceAssessment,
	})

	plan, err := store.GetPlan(ctx, "plan1")
	require.NoError(t, err)
	assert.Equal(t, bottleneck.PlanStatusResolved, plan.Status)
	assert.Equal(t, bottleneck.ResolutionTypeUserOverride, plan.ResolutionType)
	require.Len(t, plan.Notes, 1)
}

func TestSQLiteStore_TenantPolicyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := map[string]interface{}{
		"show_proceed_indicator": true,
		"theme":                  "high_contrast",
	}
	require.NoError(t, store.SaveTenantPolicy(ctx, "t1", cfg))

	got, err := store.GetTenantPolicy(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, true, got["show_proceed_indicator"])
	assert.Equal(t, "high_contrast", got["theme"])

	_, err = store.GetTenantPolicy(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_DecisionLogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dc := &signals.DecisionContext{TenantID: "t1", PatientKey: "p1", SessionID: "sess-1"}
	resp := &signals.SystemResponse{
		Policy:     signals.DefaultPolicy(),
		Proceed:    signals.IndicatorYellow,
		Mode:       signals.ModeCopilot,
		Tasking:    signals.TaskingDecision{Summary: "2 action(s) need attention"},
		Outcome:    signals.OutcomePending,
		ComputedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	log, err := NewDecisionLog(dc, resp)
	require.NoError(t, err)
	require.NoError(t, store.SaveDecisionLog(ctx, log))

	logs, err := store.GetDecisionLogs(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "YELLOW", logs[0].Proceed)
	assert.Equal(t, "COPILOT", logs[0].Mode)
	assert.Equal(t, "2 action(s) need attention", logs[0].Summary)
	assert.NotEmpty(t, logs[0].Payload)
}

func TestSQLiteStore_InTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	plan := testPlan()
	require.NoError(t, store.SavePlan(ctx, plan))

	sentinel := errors.New("abort")
	err := store.InTx(ctx, func(r bottleneck.Repository) error {
		if err := r.TransitionResolved(ctx, plan, "nurse.jones", time.Now().UTC()); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := store.GetPlan(ctx, "plan1")
	require.NoError(t, err)
	assert.Equal(t, bottleneck.PlanStatusActive, got.Status)
}
