package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sorry-currents/shardctl/internal/model"
)

func TestTableAlignsColumnsWithHeaderSeparator(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "NAME", "COUNT")
	tbl.AddRow("alpha", "1")
	tbl.AddRow("beta", "22")
	if err := tbl.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "----") {
		t.Fatalf("expected header and separator row, got %q", out)
	}
}

func TestTableTruncatesOverWidthCells(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "MSG")
	tbl.SetMaxWidth(0, 10)
	tbl.AddRow("this message is definitely too long")
	tbl.Render()
	if !strings.Contains(buf.String(), "...") {
		t.Fatalf("expected truncated cell with ellipsis, got %q", buf.String())
	}
}

func TestRenderRunSummaryIncludesCounts(t *testing.T) {
	var buf bytes.Buffer
	run := model.RunResult{
		Status:     model.RunStatusFailed,
		DurationMS: 65000,
		Summary:    model.SummaryCounts{Total: 120, Passed: 100, Failed: 15, Flaky: 3, Skipped: 2},
		ShardCount: 4,
	}
	if err := RenderRunSummary(&buf, run); err != nil {
		t.Fatalf("RenderRunSummary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "120") || !strings.Contains(out, "failed") {
		t.Fatalf("expected summary counts and status in output, got %q", out)
	}
}

func TestHumanizeDurationSubSecondShowsMilliseconds(t *testing.T) {
	if got := humanizeDuration(250); got != "250ms" {
		t.Fatalf("expected sub-second duration in ms, got %q", got)
	}
}

func TestHumanizeDurationRoundsToSeconds(t *testing.T) {
	if got := humanizeDuration(65000); got != "1m5s" {
		t.Fatalf("expected rounded duration 1m5s, got %q", got)
	}
}

func TestRenderFailedTestsOnlyIncludesFailedAndTimedOut(t *testing.T) {
	var buf bytes.Buffer
	tests := []model.TestResult{
		{File: "a.spec.ts", Title: "passes", Status: model.StatusPassed},
		{File: "b.spec.ts", Title: "times out", Status: model.StatusTimedOut},
		{File: "c.spec.ts", Title: "fails", Status: model.StatusFailed, Errors: []model.TestError{{Message: "boom"}}},
	}
	RenderFailedTests(&buf, tests)
	out := buf.String()
	if strings.Contains(out, "passes") {
		t.Fatalf("expected passed test excluded from failed-tests table, got %q", out)
	}
	if !strings.Contains(out, "times out") || !strings.Contains(out, "fails") {
		t.Fatalf("expected failed and timedOut tests included, got %q", out)
	}
}

func TestSortHistoryByFlakinessDescending(t *testing.T) {
	entries := []model.TestHistoryEntry{
		{Identity: "low", FlakinessRate: 0.1},
		{Identity: "high", FlakinessRate: 0.9},
	}
	sorted := SortHistory(entries, HistorySortFlakiness)
	if sorted[0].Identity != "high" {
		t.Fatalf("expected highest flakiness first, got %+v", sorted)
	}
}

func TestRenderShardPlanShowsStrategyName(t *testing.T) {
	var buf bytes.Buffer
	plan := model.ShardPlan{
		Strategy:   "lpt",
		TotalTests: 10,
		Assignments: []model.ShardAssignment{
			{ShardIndex: 1, Files: []string{"a.spec.ts", "b.spec.ts"}, EstimatedDuration: 4000},
		},
	}
	RenderShardPlan(&buf, plan)
	if !strings.Contains(buf.String(), "lpt") {
		t.Fatalf("expected strategy name in output, got %q", buf.String())
	}
}
