package present

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sorry-currents/shardctl/internal/model"
)

// statusColor returns the fatih/color styler for a run or test status;
// TTY-detection (whether to actually emit escape codes) is handled by the
// color package itself based on the destination writer.
func statusColor(status string) *color.Color {
	switch status {
	case string(model.RunStatusPassed), string(model.StatusPassed):
		return color.New(color.FgGreen)
	case string(model.RunStatusFailed), string(model.StatusFailed):
		return color.New(color.FgRed)
	case string(model.RunStatusTimedOut), string(model.StatusTimedOut):
		return color.New(color.FgYellow)
	case string(model.RunStatusInterrupted):
		return color.New(color.FgMagenta)
	case string(model.StatusSkipped):
		return color.New(color.FgCyan)
	default:
		return color.New(color.Reset)
	}
}

// RenderRunSummary writes a one-shard/merged RunResult as an aligned
// summary table with a colorized status line, comma-grouped counts, and a
// humanized duration.
func RenderRunSummary(w io.Writer, run model.RunResult) error {
	c := statusColor(string(run.Status))
	fmt.Fprintf(w, "%s  (%s)\n\n", c.Sprint(run.Status), humanizeDuration(run.DurationMS))

	t := NewTable(w, "METRIC", "VALUE")
	t.AddRow("Total", humanize.Comma(int64(run.Summary.Total)))
	t.AddRow("Passed", humanize.Comma(int64(run.Summary.Passed)))
	t.AddRow("Failed", humanize.Comma(int64(run.Summary.Failed)))
	t.AddRow("Flaky", humanize.Comma(int64(run.Summary.Flaky)))
	t.AddRow("Skipped", humanize.Comma(int64(run.Summary.Skipped)))
	t.AddRow("Duration", humanizeDuration(run.DurationMS))
	t.AddRow("Shards", humanize.Comma(int64(run.ShardCount)))
	return t.Render()
}

// RenderFailedTests writes one row per failed/timedOut test, file and title
// columns with the test's first error truncated to keep lines scannable.
func RenderFailedTests(w io.Writer, tests []model.TestResult) error {
	t := NewTable(w, "FILE", "TITLE", "ERROR")
	t.SetMaxWidth(2, 80)
	for _, tr := range tests {
		if tr.Status != model.StatusFailed && tr.Status != model.StatusTimedOut {
			continue
		}
		msg := ""
		if len(tr.Errors) > 0 {
			msg = tr.Errors[0].Message
		}
		t.AddRow(tr.File, tr.Title, msg)
	}
	return t.Render()
}

// RenderShardPlan writes one row per shard assignment with a humanized
// estimated duration.
func RenderShardPlan(w io.Writer, plan model.ShardPlan) error {
	fmt.Fprintf(w, "strategy=%s  totalTests=%s\n\n", plan.Strategy, humanize.Comma(int64(plan.TotalTests)))
	t := NewTable(w, "SHARD", "FILES", "ESTIMATED")
	for _, a := range plan.Assignments {
		t.AddRow(
			fmt.Sprintf("%d", a.ShardIndex),
			humanize.Comma(int64(len(a.Files))),
			humanizeDuration(a.EstimatedDuration),
		)
	}
	return t.Render()
}

// humanizeDuration renders a millisecond count as a short human duration
// string; sub-second values are shown in milliseconds since Go's
// time.Duration rounds them away to "0s".
func humanizeDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	return d.Round(time.Second).String()
}
