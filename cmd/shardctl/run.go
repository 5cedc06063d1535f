package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/orchestrator"
	"github.com/sorry-currents/shardctl/internal/runident"
)

var (
	runShardPlanPath string
	runShardIndex    int
	runRunID         string
)

var runCmd = &cobra.Command{
	Use:   "run -- [args...]",
	Short: "Execute one shard's share of the suite",
	Long: `run resolves this shard's file assignment from --shard-plan (if given)
and spawns the configured test-runner command, passing the assignment's
files or a native --shard=i/N flag, inheriting stdio, and propagating the
child's exit code as its own. Trailing arguments after "--" are forwarded
to the child runner.`,
	RunE: runRun,
	Args: cobra.ArbitraryArgs,
}

func init() {
	runCmd.Flags().StringVar(&runShardPlanPath, "shard-plan", "", "Path to a shard-plan.json written by plan")
	runCmd.Flags().IntVar(&runShardIndex, "shard-index", 1, "This shard's 1-based index")
	runCmd.Flags().StringVar(&runRunID, "run-id", "", "Run identifier (default: resolved from CI env, see internal/runident)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	runID := runident.Resolve(runRunID, os.Getenv)

	command := cfg.Runner.Command
	fields := strings.Fields(command)
	binary := command
	var baseArgs []string
	if len(fields) > 0 {
		binary = fields[0]
		baseArgs = fields[1:]
	}
	baseArgs = append(baseArgs, cfg.Runner.Args...)
	baseArgs = append(baseArgs, args...)

	exitCode, err := orchestrator.Run(context.Background(), orchestrator.RunOptions{
		Command:    binary,
		Args:       baseArgs,
		PlanPath:   runShardPlanPath,
		ShardIndex: runShardIndex,
		RunID:      runID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(exitCode)
	return nil
}
