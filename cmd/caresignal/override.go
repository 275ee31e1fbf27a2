package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caresignal/caresignal/internal/audit"
	"github.com/caresignal/caresignal/internal/bottleneck"
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Record a manual bottleneck override and cascade it to the other layer",
	Long: `Records a human assertion that a bottleneck factor is resolved or still
unresolved, entered against either the probability view (source 1) or the
resolution-plan view (source 2).

The override event is appended to the audit log first - that record is the
durable source of truth. The cascade to the opposite layer is best-effort:
failures are logged and never fail the override itself.`,
	RunE: runOverride,
}

func init() {
	overrideCmd.Flags().String("patient", "", "Patient key (required)")
	overrideCmd.Flags().String("factor", "", "Bottleneck factor, e.g. eligibility, coverage (required)")
	overrideCmd.Flags().String("status", "resolved", "Claimed status: resolved or unresolved")
	overrideCmd.Flags().Int("source", 1, "Surface the override was entered on: 1=probability view, 2=plan view")
	overrideCmd.Flags().String("actor", "", "User making the claim (required)")
	overrideCmd.Flags().String("reason", "", "Optional free-text reason")

	overrideCmd.MarkFlagRequired("patient")
	overrideCmd.MarkFlagRequired("factor")
	overrideCmd.MarkFlagRequired("actor")
}

func runOverride(cmd *cobra.Command, args []string) error {
	patient, _ := cmd.Flags().GetString("patient")
	factor, _ := cmd.Flags().GetString("factor")
	statusRaw, _ := cmd.Flags().GetString("status")
	source, _ := cmd.Flags().GetInt("source")
	actor, _ := cmd.Flags().GetString("actor")
	reason, _ := cmd.Flags().GetString("reason")

	status := bottleneck.OverrideStatus(statusRaw)
	if status != bottleneck.OverrideResolved && status != bottleneck.OverrideUnresolved {
		return fmt.Errorf("status must be resolved or unresolved, got %q", statusRaw)
	}
	if source != int(bottleneck.SourceAssessment) && source != int(bottleneck.SourcePlan) {
		return fmt.Errorf("source must be 1 or 2, got %d", source)
	}

	now := time.Now().UTC()

	// The audit record comes first: it survives even when the cascade or the
	// store is unavailable.
	log := audit.NewLog(cfg.Audit.OverrideLogPath)
	if err := log.Record(audit.OverrideEvent{
		Timestamp:  now,
		Actor:      actor,
		PatientKey: patient,
		Factor:     bottleneck.FactorType(factor),
		Status:     status,
		Source:     source,
		Reason:     reason,
	}); err != nil {
		return fmt.Errorf("record override event: %w", err)
	}

	store, err := openStore()
	if err != nil {
		logger.WithError(err).Warn("Store unavailable; override recorded but not cascaded")
		return nil
	}
	defer store.Close()

	cascade := bottleneck.NewCascade(store, logger)
	cascade.Apply(cmd.Context(), bottleneck.Override{
		PatientKey: patient,
		Factor:     bottleneck.FactorType(factor),
		Status:     status,
		Actor:      actor,
		Timestamp:  now,
		Source:     bottleneck.OverrideSource(source),
	})

	fmt.Printf("Override recorded: patient=%s factor=%s status=%s source=%d\n",
		patient, factor, status, source)
	return nil
}
