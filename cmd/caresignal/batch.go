package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/caresignal/caresignal/internal/logging"
	"github.com/caresignal/caresignal/internal/pipeline"
	"github.com/caresignal/caresignal/internal/signals"
	"github.com/caresignal/caresignal/internal/storage"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Evaluate a directory of decision contexts and persist the results",
	Long: `Runs the pipeline over every *.json decision context in a directory.
Evaluations run concurrently; the pipeline itself is stateless across
invocations and shares nothing but the backing store, whose writes are
rate-limited.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("workers", 4, "Concurrent evaluations")
	batchCmd.Flags().Float64("store-rate", 50, "Max decision-log writes per second")
}

func runBatch(cmd *cobra.Command, args []string) error {
	files, err := filepath.Glob(filepath.Join(args[0], "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no context files in %s", args[0])
	}

	workers, _ := cmd.Flags().GetInt("workers")
	storeRate, _ := cmd.Flags().GetFloat64("store-rate")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	orch := pipeline.New(logging.Default())
	limiter := rate.NewLimiter(rate.Limit(storeRate), 1)

	var saved, degraded atomic.Int64

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)

	for _, file := range files {
		file := file // per-iteration copy; module builds with pre-1.22 loopvar semantics
		g.Go(func() error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			var dc signals.DecisionContext
			if err := json.Unmarshal(raw, &dc); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}

			resp := orch.Compute(&dc)
			for _, p := range resp.Provenance {
				if len(p.Errors) > 0 {
					degraded.Add(1)
					break
				}
			}

			log, err := storage.NewDecisionLog(&dc, resp)
			if err != nil {
				return fmt.Errorf("encode decision log for %s: %w", file, err)
			}

			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			if err := store.SaveDecisionLog(ctx, log); err != nil {
				return fmt.Errorf("save decision log for %s: %w", file, err)
			}

			saved.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Evaluated %d context(s): %d saved, %d with degraded stages\n",
		len(files), saved.Load(), degraded.Load())
	return nil
}
