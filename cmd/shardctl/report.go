package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/orchestrator"
	"github.com/sorry-currents/shardctl/internal/present"
)

var (
	reportFormat      string
	reportInputDir    string
	reportOutputDir   string
	reportWithHistory bool
	reportOpen        bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a summary of the merged run",
	Long: `report reads the merged run record (and optionally the history corpus),
clusters its failures, and renders the result as HTML, Markdown, or JSON.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "Report format (html, json, markdown)")
	reportCmd.Flags().StringVar(&reportInputDir, "input", "", "Data directory containing merged-run-result.json (default: config base dir)")
	// Named --output-dir for the same reason as merge's flag of the same
	// name: keeps the persistent -o/--output format flag usable here too.
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "", "Directory to write the report into (default: config base dir/report)")
	reportCmd.Flags().BoolVar(&reportWithHistory, "history", false, "Include history-corpus context in the report")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "Print the written report's path to stderr for the caller to open")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	inDir := reportInputDir
	if inDir == "" {
		inDir = cfg.BaseDir
	}
	outDir := reportOutputDir
	if outDir == "" {
		outDir = filepath.Join(cfg.BaseDir, "report")
	}

	data, err := orchestrator.Report(orchestrator.ReportOptions{
		InputPath:   filepath.Join(inDir, "merged-run-result.json"),
		HistoryPath: cfg.Corpus.HistoryFile,
		WithHistory: reportWithHistory,
	})
	if err != nil {
		return err
	}

	var name string
	switch reportFormat {
	case "json":
		name = "report.json"
	case "html":
		name = "index.html"
	case "markdown", "":
		name = "report.md"
	default:
		return fmt.Errorf("unknown report format %q", reportFormat)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create report output dir: %w", err)
	}
	path := filepath.Join(outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	switch reportFormat {
	case "json":
		if err := writeJSON(os.Stdout, data); err != nil {
			return err
		}
		if err := writeJSON(f, data); err != nil {
			return err
		}
	case "html":
		if err := present.RenderHTMLReport(f, data.Run, data.Clusters); err != nil {
			return err
		}
	default:
		if err := present.RenderMarkdownReport(f, data.Run, data.Clusters); err != nil {
			return err
		}
	}

	if reportOpen {
		fmt.Fprintf(os.Stderr, "report written to %s\n", path)
	}
	return nil
}
