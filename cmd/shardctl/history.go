package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/orchestrator"
	"github.com/sorry-currents/shardctl/internal/present"
)

var (
	historyFlaky   bool
	historySlow    bool
	historyFailing bool
	historyLimit   int
	historyFormat  string
	historyPath    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List rolling per-test statistics",
	Long:  `history reads the history corpus and prints a filtered, sorted listing.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyFlaky, "flaky", false, "Only list tests with a non-zero flakiness rate, sorted by flakiness")
	historyCmd.Flags().BoolVar(&historySlow, "slow", false, "Sort by average duration descending")
	historyCmd.Flags().BoolVar(&historyFailing, "failing", false, "Only list tests with a non-zero failure rate, sorted by failure rate")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to print")
	historyCmd.Flags().StringVar(&historyFormat, "format", "table", "Output format (table, json)")
	historyCmd.Flags().StringVar(&historyPath, "input", "", "Path to the history corpus (default: config corpus.history_file)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	path := historyPath
	if path == "" {
		path = cfg.Corpus.HistoryFile
	}

	entries, err := orchestrator.History(orchestrator.HistoryOptions{
		Path:    path,
		Flaky:   historyFlaky,
		Slow:    historySlow,
		Failing: historyFailing,
		Limit:   historyLimit,
	})
	if err != nil {
		return err
	}

	if historyFormat == "json" {
		return writeJSON(os.Stdout, entries)
	}
	return present.RenderHistory(os.Stdout, entries)
}
