package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/config"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
	baseDir string

	// loadedConfig is populated by PersistentPreRunE before any subcommand
	// runs, merging flags/env/project/home config per internal/config's
	// precedence rules.
	loadedConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shardctl",
	Short: "Shard, run, and report on a sharded end-to-end test suite",
	Long: `shardctl balances a browser end-to-end test suite across parallel CI
shards, merges their results into one authoritative run record, and feeds
rolling timing/history corpora back into the next plan.

Core Commands:
  plan     Produce a shard assignment from historical timing data
  run      Execute one shard's share of the suite
  merge    Combine per-shard results into a unified run record
  report   Render a summary of the merged run
  history  List rolling per-test statistics
  notify   Post the merged run's summary to configured integrations`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			os.Setenv("SHARDCTL_CONFIG", cfgFile)
		}
		var flagOverrides *config.Config
		if cmd.Flags().Changed("output") || cmd.Flags().Changed("base-dir") {
			flagOverrides = &config.Config{Output: output, BaseDir: baseDir}
		}
		cfg, err := config.Load(flagOverrides)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		loadedConfig = cfg
		return nil
	},
}

// Execute runs the root command, exiting with status 2 on any operational
// error (test failures from `run` are reported via os.Exit with the
// command's own resolved exit code, set directly in run.go).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .shardctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Data directory (default: .shardctl)")
}

// GetConfig returns the merged configuration resolved by PersistentPreRunE.
func GetConfig() *config.Config {
	if loadedConfig == nil {
		return config.Default()
	}
	return loadedConfig
}

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}
