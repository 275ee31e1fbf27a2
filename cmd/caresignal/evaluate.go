package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/caresignal/caresignal/internal/config"
	"github.com/caresignal/caresignal/internal/logging"
	"github.com/caresignal/caresignal/internal/output"
	"github.com/caresignal/caresignal/internal/pipeline"
	"github.com/caresignal/caresignal/internal/signals"
	"github.com/caresignal/caresignal/internal/storage"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [context.json]",
	Short: "Run the decision pipeline over a pre-fetched patient context",
	Long: `Reads a decision context (patient snapshot, probability assessment,
pending work items, prior responses, tenant configuration) from a JSON file or
stdin, runs the six-agent pipeline, and prints the resulting signals.

The pipeline is total: every decision field is populated even when context
fields are missing, degrading to safe defaults rather than failing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().Bool("quiet", false, "Output one-line summary")
	evaluateCmd.Flags().Bool("json", false, "Output compact machine-readable payload")
	evaluateCmd.Flags().Bool("full", false, "Output full machine-readable payload")
	evaluateCmd.Flags().Bool("save", false, "Persist the result to the decision log")
	evaluateCmd.Flags().String("tenant-policy", "", "Tenant policy YAML overriding the context's tenant config")

	evaluateCmd.MarkFlagsMutuallyExclusive("quiet", "json", "full")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	dc, err := readContext(args)
	if err != nil {
		return err
	}

	if policyFile, _ := cmd.Flags().GetString("tenant-policy"); policyFile != "" {
		tenantCfg, err := config.LoadTenantPolicy(policyFile)
		if err != nil {
			return err
		}
		dc.TenantConfig = tenantCfg
	}

	orch := pipeline.New(logging.Default())
	resp := orch.Compute(dc)

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := saveDecision(cmd.Context(), dc, resp); err != nil {
			// Persistence trouble degrades to a warning; the computed signals
			// still go to the consumer.
			logger.WithError(err).Warn("Failed to persist decision log")
		}
	}

	return formatterFromFlags(cmd).Format(resp, os.Stdout)
}

func readContext(args []string) (*signals.DecisionContext, error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open context file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var dc signals.DecisionContext
	if err := json.NewDecoder(r).Decode(&dc); err != nil {
		return nil, fmt.Errorf("decode decision context: %w", err)
	}
	return &dc, nil
}

func formatterFromFlags(cmd *cobra.Command) output.Formatter {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return output.NewFormatter(output.VerbosityQuiet)
	}
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return output.NewFormatter(output.VerbosityJSON)
	}
	if full, _ := cmd.Flags().GetBool("full"); full {
		return output.NewFormatter(output.VerbosityJSONFull)
	}
	return output.NewFormatter(output.GetDefaultVerbosity())
}

func saveDecision(ctx context.Context, dc *signals.DecisionContext, resp *signals.SystemResponse) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	log, err := storage.NewDecisionLog(dc, resp)
	if err != nil {
		return err
	}
	return store.SaveDecisionLog(ctx, log)
}
