package present

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/sorry-currents/shardctl/internal/model"
)

// HistorySort orders history-entry listings.
type HistorySort string

const (
	HistorySortFlakiness HistorySort = "flakiness"
	HistorySortFailure   HistorySort = "failure"
	HistorySortDuration  HistorySort = "duration"
)

// SortHistory returns a sorted copy of entries per by, descending.
func SortHistory(entries []model.TestHistoryEntry, by HistorySort) []model.TestHistoryEntry {
	sorted := append([]model.TestHistoryEntry(nil), entries...)
	less := func(i, j int) bool {
		switch by {
		case HistorySortFailure:
			return sorted[i].FailureRate > sorted[j].FailureRate
		case HistorySortDuration:
			return sorted[i].AvgDurationMS > sorted[j].AvgDurationMS
		default:
			return sorted[i].FlakinessRate > sorted[j].FlakinessRate
		}
	}
	sort.SliceStable(sorted, less)
	return sorted
}

// RenderHistory writes a history-entry table: identity, totals, rounded
// rates as percentages, and a humanized average duration.
func RenderHistory(w io.Writer, entries []model.TestHistoryEntry) error {
	t := NewTable(w, "TEST", "RUNS", "FLAKY%", "FAIL%", "AVG")
	for _, e := range entries {
		t.AddRow(
			e.Identity,
			humanize.Comma(int64(e.TotalRuns)),
			fmt.Sprintf("%.2f%%", e.FlakinessRate*100),
			fmt.Sprintf("%.2f%%", e.FailureRate*100),
			humanizeDuration(e.AvgDurationMS),
		)
	}
	return t.Render()
}
