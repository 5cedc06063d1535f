package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/orchestrator"
	"github.com/sorry-currents/shardctl/internal/present"
	"github.com/sorry-currents/shardctl/internal/runident"
)

var (
	mergeInputDir  string
	mergeOutputDir string
	mergeRunID     string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine per-shard results into a unified run record",
	Long: `merge discovers every *run-result*.json under --input, validates and
deduplicates retries, recomputes summary/status from the combined test
list, writes the merged record to --output-dir, and folds the observations
into the timing and history corpora. It exits 2 if zero shard files survive
validation.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeInputDir, "input", ".shardctl/shards", "Directory to discover per-shard result files under")
	// Named --output-dir, distinct from the persistent -o/--output format
	// flag: pflag would silently let this local flag shadow the inherited
	// one rather than panic, which would make -o mean two different things
	// depending on which subcommand it's attached to.
	mergeCmd.Flags().StringVar(&mergeOutputDir, "output-dir", "", "Data directory to write merged-run-result.json and corpora into (default: config base dir)")
	mergeCmd.Flags().StringVar(&mergeRunID, "run-id", "", "Run identifier stamped on the merged record")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	outDir := mergeOutputDir
	if outDir == "" {
		outDir = cfg.BaseDir
	}

	runID := runident.Resolve(mergeRunID, os.Getenv)

	result, err := orchestrator.Merge(orchestrator.MergeOptions{
		InputDir:    mergeInputDir,
		OutputPath:  outDir + "/merged-run-result.json",
		RunID:       runID,
		Concurrency: 0,
		TimingPath:  cfg.Corpus.TimingFile,
		HistoryPath: cfg.Corpus.HistoryFile,
	})
	if err != nil {
		return err
	}

	if cfg.Output == "json" {
		return writeJSON(os.Stdout, result.Run)
	}
	return present.RenderRunSummary(os.Stdout, result.Run)
}
