package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/balancer"
	"github.com/sorry-currents/shardctl/internal/model"
	"github.com/sorry-currents/shardctl/internal/orchestrator"
	"github.com/sorry-currents/shardctl/internal/present"
)

var (
	planShards            int
	planTargetDurationSec int
	planMaxShards         int
	planTimingPath        string
	planTestDir           string
	// planOutputFile is the shard-plan destination path; named distinctly
	// from the persistent -o/--output format flag, which this command also
	// honors for its own stdout rendering (table vs json).
	planOutputFile    string
	planOutputMatrix  bool
	planStrategy      string
	planRiskFactor    int
	planDefaultTimeout int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Produce a shard assignment from historical timing data",
	Long: `plan reads the rolling timing corpus (cold-start tolerant), resolves a
shard count either from --shards or by deriving it from --target-duration,
and balances file-grouped test workloads across that many shards using the
requested strategy.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planShards, "shards", 0, "Explicit shard count (mutually exclusive with --target-duration)")
	planCmd.Flags().IntVar(&planTargetDurationSec, "target-duration", 0, "Target per-shard duration in seconds; derives the shard count")
	planCmd.Flags().IntVar(&planMaxShards, "max-shards", 8, "Upper bound on a derived shard count")
	planCmd.Flags().StringVar(&planTimingPath, "timing", "", "Path to the timing corpus (default: config corpus.timing_file)")
	planCmd.Flags().StringVar(&planTestDir, "test-dir", "", "Directory to discover test files from (cold-start file listing)")
	planCmd.Flags().StringVar(&planOutputFile, "output-file", "", "Write the plan to this path instead of stdout")
	planCmd.Flags().BoolVar(&planOutputMatrix, "output-matrix", false, "Also emit a {include:[{shardIndex,shardTotal},...]} matrix descriptor")
	planCmd.Flags().StringVar(&planStrategy, "strategy", "", fmt.Sprintf("Balancing strategy (%s)", strings.Join(balancer.Names(), ", ")))
	planCmd.Flags().IntVar(&planRiskFactor, "risk-factor", -1, "Standard-deviation multiplier padding each estimate")
	planCmd.Flags().IntVar(&planDefaultTimeout, "default-timeout", -1, "Default duration (ms) for never-before-seen tests")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planShards > 0 && planTargetDurationSec > 0 {
		return fmt.Errorf("--shards and --target-duration are mutually exclusive")
	}

	cfg := GetConfig()

	timingPath := planTimingPath
	if timingPath == "" {
		timingPath = cfg.Corpus.TimingFile
	}
	strategy := planStrategy
	if strategy == "" {
		strategy = cfg.Balancer.Strategy
	}
	riskFactor := planRiskFactor
	if riskFactor < 0 {
		riskFactor = cfg.Balancer.RiskFactor
	}
	defaultTimeout := planDefaultTimeout
	if defaultTimeout < 0 {
		defaultTimeout = cfg.Balancer.DefaultDurationMS
	}
	maxShards := planMaxShards
	if !cmd.Flags().Changed("max-shards") && cfg.Balancer.MaxShards > 0 {
		maxShards = cfg.Balancer.MaxShards
	}

	plan, err := orchestrator.Plan(orchestrator.PlanOptions{
		TimingPath:        timingPath,
		TestDir:           planTestDir,
		ShardCount:        planShards,
		TargetDurationMS:  planTargetDurationSec * 1000,
		MaxShards:         maxShards,
		Strategy:          strategy,
		RiskFactor:        riskFactor,
		DefaultDurationMS: defaultTimeout,
	})
	if err != nil {
		return err
	}

	if planOutputFile != "" {
		if err := orchestrator.WritePlan(planOutputFile, plan); err != nil {
			return err
		}
	} else if err := renderPlan(cfg.Output, plan); err != nil {
		return err
	}

	if planOutputMatrix {
		if err := emitMatrix(plan); err != nil {
			return err
		}
	}

	return nil
}

// renderPlan writes plan to stdout as a table or as indented JSON depending
// on the resolved output format.
func renderPlan(format string, plan model.ShardPlan) error {
	if format == "json" {
		return writeJSON(os.Stdout, plan)
	}
	return present.RenderShardPlan(os.Stdout, plan)
}

// matrixDescriptor is the CI-bridge shape §6 documents: a single JSON object
// printed to stdout and, when GITHUB_OUTPUT is set, appended there as
// matrix=<json>.
type matrixDescriptor struct {
	Include []matrixEntry `json:"include"`
}

type matrixEntry struct {
	ShardIndex int `json:"shardIndex"`
	ShardTotal int `json:"shardTotal"`
}

// emitMatrix prints the matrix descriptor to stdout and, if GITHUB_OUTPUT is
// set, appends "matrix=<json>\n" to that file so a GitHub Actions job can
// consume it as a step output.
func emitMatrix(plan model.ShardPlan) error {
	total := len(plan.Assignments)
	m := matrixDescriptor{Include: make([]matrixEntry, total)}
	for i := range plan.Assignments {
		m.Include[i] = matrixEntry{ShardIndex: plan.Assignments[i].ShardIndex, ShardTotal: total}
	}

	buf, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal matrix descriptor: %w", err)
	}
	fmt.Println(string(buf))

	if outPath := os.Getenv("GITHUB_OUTPUT"); outPath != "" {
		f, err := os.OpenFile(outPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open GITHUB_OUTPUT: %w", err)
		}
		defer f.Close()
		if _, err := fmt.Fprintf(f, "matrix=%s\n", buf); err != nil {
			return fmt.Errorf("append to GITHUB_OUTPUT: %w", err)
		}
	}
	return nil
}

// writeJSON marshals v as two-space-indented JSON terminated with a
// trailing newline, matching the on-disk wire format's conventions even for
// stdout output.
func writeJSON(w *os.File, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
