package present

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/sorry-currents/shardctl/internal/cluster"
	"github.com/sorry-currents/shardctl/internal/model"
)

// RenderMarkdownReport writes a run record and its failure clusters as a
// Markdown document. Templating is deliberately thin here — the spec treats
// the full HTML/Markdown report renderer as an external collaborator
// (§1: "its templating logic is not the hard part"); this is enough for a
// standalone `shardctl report --format markdown` artifact.
func RenderMarkdownReport(w io.Writer, run model.RunResult, clusters []cluster.FailureCluster) error {
	fmt.Fprintf(w, "# Test Run %s\n\n", run.RunID)
	fmt.Fprintf(w, "Status: **%s**  \n", run.Status)
	fmt.Fprintf(w, "Duration: %s  \n", humanizeDuration(run.DurationMS))
	fmt.Fprintf(w, "Shards: %d\n\n", run.ShardCount)

	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|---|---|")
	fmt.Fprintf(w, "| Total | %d |\n", run.Summary.Total)
	fmt.Fprintf(w, "| Passed | %d |\n", run.Summary.Passed)
	fmt.Fprintf(w, "| Failed | %d |\n", run.Summary.Failed)
	fmt.Fprintf(w, "| Flaky | %d |\n", run.Summary.Flaky)
	fmt.Fprintf(w, "| Skipped | %d |\n", run.Summary.Skipped)

	if len(clusters) > 0 {
		fmt.Fprintln(w, "\n## Failure Clusters")
		for _, c := range clusters {
			fmt.Fprintf(w, "\n- **%s** (%d tests: %s)\n", c.NormalizedMessage, c.Count, strings.Join(c.Files, ", "))
		}
	}
	return nil
}

// RenderHTMLReport writes a minimal standalone HTML report for the merged
// run. It is a static summary page, not a rich template — see the doc
// comment on RenderMarkdownReport for why this stays thin.
func RenderHTMLReport(w io.Writer, run model.RunResult, clusters []cluster.FailureCluster) error {
	fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>Run %s</title></head><body>\n", html.EscapeString(run.RunID))
	fmt.Fprintf(w, "<h1>Test Run %s</h1>\n", html.EscapeString(run.RunID))
	fmt.Fprintf(w, "<p>Status: <strong>%s</strong> &mdash; %s &mdash; %d shards</p>\n",
		html.EscapeString(string(run.Status)), humanizeDuration(run.DurationMS), run.ShardCount)

	fmt.Fprintln(w, "<table border=\"1\"><tr><th>Total</th><th>Passed</th><th>Failed</th><th>Flaky</th><th>Skipped</th></tr>")
	fmt.Fprintf(w, "<tr><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr></table>\n",
		run.Summary.Total, run.Summary.Passed, run.Summary.Failed, run.Summary.Flaky, run.Summary.Skipped)

	if len(clusters) > 0 {
		fmt.Fprintln(w, "<h2>Failure Clusters</h2><ul>")
		for _, c := range clusters {
			fmt.Fprintf(w, "<li><strong>%s</strong> (%d tests: %s)</li>\n",
				html.EscapeString(c.NormalizedMessage), c.Count, html.EscapeString(strings.Join(c.Files, ", ")))
		}
		fmt.Fprintln(w, "</ul>")
	}

	fmt.Fprintln(w, "</body></html>")
	return nil
}
