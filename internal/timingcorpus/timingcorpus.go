// Package timingcorpus persists and updates per-test duration statistics: a
// bounded rolling window of recent durations, a running average, an
// EMA-approximate p95, and a population standard deviation. It is read by
// the balancer to produce risk-adjusted estimates and written after every
// merge.
package timingcorpus

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/sorry-currents/shardctl/internal/model"
)

// Read loads the timing corpus at path. A nonexistent file is a cold start,
// not an error, and yields an empty slice. Malformed JSON or a schema
// violation is an error. Both envelope and bare-array forms are accepted.
func Read(path string) ([]model.ShardTimingEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read timing corpus %s: %w", path, err)
	}

	entries, err := model.UnmarshalEnvelope[[]model.ShardTimingEntry](raw)
	if err != nil {
		return nil, fmt.Errorf("parse timing corpus %s: %w", path, err)
	}

	for _, e := range entries {
		if err := model.ValidateShardTimingEntry(e); err != nil {
			return nil, fmt.Errorf("validate timing corpus %s: %w", path, err)
		}
	}

	return entries, nil
}

// Write atomically persists entries to path as an envelope-wrapped,
// two-space-indented JSON document with a trailing newline. Parent
// directories are created as needed.
func Write(path string, entries []model.ShardTimingEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", path, err)
	}

	buf, err := model.MarshalEnvelope(entries)
	if err != nil {
		return fmt.Errorf("marshal timing corpus: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write temp timing corpus: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp timing corpus into place: %w", err)
	}
	return nil
}

// Update folds a batch of test results into an existing corpus snapshot and
// returns the new snapshot. existing is not mutated. Tests with status
// skipped or interrupted do not affect the corpus (they carry no meaningful
// duration signal). Entries not observed in this batch are preserved
// unchanged.
func Update(existing []model.ShardTimingEntry, results []model.TestResult) []model.ShardTimingEntry {
	byID := make(map[string]model.ShardTimingEntry, len(existing))
	order := make([]string, 0, len(existing))
	for _, e := range existing {
		byID[e.TestID] = e
		order = append(order, e.TestID)
	}

	for _, r := range results {
		if r.Status == model.StatusSkipped || r.Status == model.StatusInterrupted {
			continue
		}

		cur, ok := byID[r.Identity]
		if !ok {
			byID[r.Identity] = model.ShardTimingEntry{
				TestID:        r.Identity,
				File:          r.File,
				Project:       r.Project,
				AvgDurationMS: r.DurationMS,
				P95DurationMS: r.DurationMS,
				Samples:       1,
				StddevMS:      0,
				LastDurations: []int{r.DurationMS},
			}
			order = append(order, r.Identity)
			continue
		}

		byID[r.Identity] = applyObservation(cur, r.DurationMS)
	}

	updated := make([]model.ShardTimingEntry, 0, len(order))
	for _, id := range order {
		updated = append(updated, byID[id])
	}
	return updated
}

// applyObservation folds one new duration observation into an existing
// entry per the §4.C update rule: capped sample count, running average,
// EMA-approximate p95, bounded FIFO window, and population stddev over that
// window.
func applyObservation(e model.ShardTimingEntry, duration int) model.ShardTimingEntry {
	newSamples := e.Samples + 1
	if newSamples > model.MaxTimingSamples {
		newSamples = model.MaxTimingSamples
	}

	newAvg := roundInt((float64(e.AvgDurationMS)*float64(e.Samples) + float64(duration)) / float64(e.Samples+1))

	var p95Candidate float64
	if float64(duration) > float64(e.P95DurationMS) {
		p95Candidate = float64(duration)
	} else {
		p95Candidate = 0.95*float64(e.P95DurationMS) + 0.05*float64(duration)
	}
	newP95 := roundInt(math.Max(float64(e.P95DurationMS), p95Candidate))

	window := append(append([]int(nil), e.LastDurations...), duration)
	if len(window) > model.MaxTimingWindow {
		window = window[len(window)-model.MaxTimingWindow:]
	}

	e.Samples = newSamples
	e.AvgDurationMS = newAvg
	e.P95DurationMS = newP95
	e.LastDurations = window
	e.StddevMS = populationStddev(window)
	return e
}

// populationStddev computes the population (not sample) standard deviation
// of window, rounded to the nearest integer millisecond. A single-element or
// empty window yields 0 by construction — the population formula divides by
// N, not N-1, so a lone value has zero deviation from its own mean.
func populationStddev(window []int) int {
	if len(window) <= 1 {
		return 0
	}
	var sum float64
	for _, v := range window {
		sum += float64(v)
	}
	mean := sum / float64(len(window))

	var sumSq float64
	for _, v := range window {
		d := float64(v) - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(window))
	return roundInt(math.Sqrt(variance))
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

// SortByTestID returns entries sorted by test id, for stable output and
// deterministic test assertions.
func SortByTestID(entries []model.ShardTimingEntry) []model.ShardTimingEntry {
	sorted := append([]model.ShardTimingEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TestID < sorted[j].TestID })
	return sorted
}
