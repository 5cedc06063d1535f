// Package orchestrator implements the plan/run/merge/report/notify/history
// state machine that glues the domain packages together into the commands
// exposed by cmd/shardctl. Every function here is a thin, testable driver:
// it reads whatever corpora/plans it needs from disk, delegates the actual
// computation to the domain packages, and writes back whatever the
// operation is documented to persist.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sorry-currents/shardctl/internal/balancer"
	"github.com/sorry-currents/shardctl/internal/cluster"
	"github.com/sorry-currents/shardctl/internal/executor"
	"github.com/sorry-currents/shardctl/internal/historycorpus"
	"github.com/sorry-currents/shardctl/internal/model"
	"github.com/sorry-currents/shardctl/internal/notify"
	"github.com/sorry-currents/shardctl/internal/present"
	"github.com/sorry-currents/shardctl/internal/report"
	"github.com/sorry-currents/shardctl/internal/timingcorpus"
)

// testFileSuffixes are the conventional Playwright/Jest spec-file markers
// recognized during --test-dir discovery.
var testFileSuffixes = []string{".spec.ts", ".spec.js", ".test.ts", ".test.js"}

// PlanOptions configures the plan operation.
type PlanOptions struct {
	TimingPath       string
	TestDir          string
	ShardCount       int // 0 means "derive from TargetDurationMS"
	TargetDurationMS int
	MaxShards        int
	Strategy         string
	RiskFactor       int
	DefaultDurationMS int
}

// Plan produces a ShardPlan: it loads the timing corpus (cold-start
// tolerant), resolves the file set either from the timing corpus alone or
// from a --test-dir discovery merged with the corpus's per-file estimates,
// derives a shard count when one wasn't given explicitly, and balances with
// the requested strategy.
func Plan(opts PlanOptions) (model.ShardPlan, error) {
	corpus, err := timingcorpus.Read(opts.TimingPath)
	if err != nil {
		return model.ShardPlan{}, fmt.Errorf("read timing corpus: %w", err)
	}

	strategy, err := balancer.Lookup(opts.Strategy)
	if err != nil {
		return model.ShardPlan{}, err
	}

	// Cold start: no historical durations and no file listing to fall back
	// on. There is nothing to balance, so emit N placeholder assignments and
	// let the executor fall through to the child runner's native shard-of-N
	// mode for each one (see §4.E Cold-start behavior).
	if len(corpus) == 0 && strings.TrimSpace(opts.TestDir) == "" {
		shardCount := opts.ShardCount
		if shardCount <= 0 {
			shardCount = opts.MaxShards
		}
		plan := balancer.ColdStartPlan(shardCount, opts.Strategy)
		if err := model.ValidateShardPlan(plan); err != nil {
			return model.ShardPlan{}, fmt.Errorf("generated plan failed validation: %w", err)
		}
		return plan, nil
	}

	entries, err := buildTimingEntries(opts, corpus)
	if err != nil {
		return model.ShardPlan{}, err
	}

	shardCount := opts.ShardCount
	if shardCount <= 0 {
		shardCount = balancer.CalculateOptimalShardCount(entries, opts.TargetDurationMS, opts.MaxShards)
	}

	plan := strategy.Balance(entries, shardCount)
	if err := model.ValidateShardPlan(plan); err != nil {
		return model.ShardPlan{}, fmt.Errorf("generated plan failed validation: %w", err)
	}
	return plan, nil
}

// buildTimingEntries resolves the balancer's input list. With no --test-dir,
// every corpus entry becomes one balancer entry (risk-adjusted). With
// --test-dir, the discovered file set is authoritative: files present in the
// corpus get the sum of their tests' risk-adjusted estimates, files absent
// from the corpus get the configured default.
func buildTimingEntries(opts PlanOptions, corpus []model.ShardTimingEntry) ([]model.TestTimingEntry, error) {
	if strings.TrimSpace(opts.TestDir) == "" {
		entries := make([]model.TestTimingEntry, len(corpus))
		for i, e := range corpus {
			entries[i] = model.TestTimingEntry{
				TestID:            e.TestID,
				File:              e.File,
				EstimatedDuration: balancer.EstimateDuration(&e, opts.RiskFactor, opts.DefaultDurationMS),
				StddevMS:          e.StddevMS,
			}
		}
		return entries, nil
	}

	files, err := discoverTestFiles(opts.TestDir)
	if err != nil {
		return nil, fmt.Errorf("discover test files: %w", err)
	}

	byFile := make(map[string][]model.ShardTimingEntry)
	for _, e := range corpus {
		byFile[e.File] = append(byFile[e.File], e)
	}

	entries := make([]model.TestTimingEntry, 0, len(files))
	for _, f := range files {
		existing, ok := byFile[f]
		if !ok {
			entries = append(entries, model.TestTimingEntry{
				TestID:            f,
				File:              f,
				EstimatedDuration: opts.DefaultDurationMS,
			})
			continue
		}
		for _, e := range existing {
			entries = append(entries, model.TestTimingEntry{
				TestID:            e.TestID,
				File:              e.File,
				EstimatedDuration: balancer.EstimateDuration(&e, opts.RiskFactor, opts.DefaultDurationMS),
				StddevMS:          e.StddevMS,
			})
		}
	}
	return entries, nil
}

// discoverTestFiles walks dir for files whose name carries a recognized
// spec/test suffix, returning paths relative to dir in lexical order (via
// filepath.WalkDir's own traversal order).
func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, suffix := range testFileSuffixes {
			if strings.HasSuffix(d.Name(), suffix) {
				rel, relErr := filepath.Rel(dir, path)
				if relErr != nil {
					rel = path
				}
				files = append(files, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// RunOptions configures one shard's child-process execution.
type RunOptions struct {
	Command    string
	Args       []string
	PlanPath   string
	ShardIndex int
	RunID      string
}

// Run resolves this shard's assignment from the plan on disk (if any) and
// spawns the child runner, returning its exit code.
func Run(ctx context.Context, opts RunOptions) (int, error) {
	var assignment *model.ShardAssignment
	shardTotal := 0

	if plan, err := readPlanIfExists(opts.PlanPath); err == nil && plan != nil {
		shardTotal = len(plan.Assignments)
		for i := range plan.Assignments {
			if plan.Assignments[i].ShardIndex == opts.ShardIndex {
				assignment = &plan.Assignments[i]
				break
			}
		}
	} else if err != nil {
		return -1, fmt.Errorf("read shard plan: %w", err)
	}

	spec := executor.Spec{
		Command:    opts.Command,
		Args:       opts.Args,
		RunID:      opts.RunID,
		Assignment: assignment,
		ShardIndex: opts.ShardIndex,
		ShardTotal: shardTotal,
	}
	return executor.Run(ctx, spec)
}

func readPlanIfExists(path string) (*model.ShardPlan, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var plan model.ShardPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse shard plan %s: %w", path, err)
	}
	return &plan, nil
}

// WritePlan atomically persists a plan to path as plain (non-enveloped)
// two-space-indented JSON — the on-disk layout documents shard-plan.json as
// "versioned-free", unlike the corpora and merged run result.
func WritePlan(path string, plan model.ShardPlan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", path, err)
	}
	buf, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shard plan: %w", err)
	}
	buf = append(buf, '\n')
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write temp shard plan: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp shard plan into place: %w", err)
	}
	return nil
}

// MergeOptions configures the merge operation.
type MergeOptions struct {
	InputDir    string
	OutputPath  string
	RunID       string
	Concurrency int
	TimingPath  string
	HistoryPath string
}

// MergeResult is everything a merge invocation produces, for the command
// layer to render.
type MergeResult struct {
	Run      model.RunResult
	Clusters []cluster.FailureCluster
}

// Merge discovers and merges per-shard records, persists the merged record,
// and folds its test observations into the timing and history corpora. The
// three writes run in that order; the first one that fails returns its
// error, the writes after it are skipped, and earlier writes are not rolled
// back.
func Merge(opts MergeOptions) (MergeResult, error) {
	merged, err := report.Merge(opts.InputDir, opts.RunID, opts.Concurrency)
	if err != nil {
		return MergeResult{}, err
	}

	deduped := report.DeduplicateRetries(merged.Tests)
	merged.Tests = deduped
	merged.Summary = model.ComputeSummary(deduped)
	merged.Status = model.ComputeStatus(deduped)

	if err := report.Write(opts.OutputPath, merged); err != nil {
		return MergeResult{}, fmt.Errorf("write merged run result: %w", err)
	}

	if err := updateTimingCorpus(opts.TimingPath, deduped); err != nil {
		return MergeResult{}, fmt.Errorf("update timing corpus: %w", err)
	}
	if err := updateHistoryCorpus(opts.HistoryPath, deduped); err != nil {
		return MergeResult{}, fmt.Errorf("update history corpus: %w", err)
	}

	return MergeResult{Run: merged, Clusters: cluster.Cluster(deduped)}, nil
}

func updateTimingCorpus(path string, tests []model.TestResult) error {
	existing, err := timingcorpus.Read(path)
	if err != nil {
		return err
	}
	updated := timingcorpus.Update(existing, tests)
	return timingcorpus.Write(path, timingcorpus.SortByTestID(updated))
}

func updateHistoryCorpus(path string, tests []model.TestResult) error {
	existing, err := historycorpus.Read(path)
	if err != nil {
		return err
	}
	updated := historycorpus.Update(existing, tests)
	return historycorpus.Write(path, updated)
}

// ReportOptions configures the report operation.
type ReportOptions struct {
	InputPath   string
	HistoryPath string
	WithHistory bool
}

// ReportData is everything the report renderer (outside this package's
// scope — see the notification/report split in the system overview) needs
// to produce HTML/Markdown/JSON output.
type ReportData struct {
	Run      model.RunResult
	Clusters []cluster.FailureCluster
	History  []model.TestHistoryEntry
}

// Report reads the merged run record (and optionally the history corpus)
// and clusters its failures, leaving templating to the caller.
func Report(opts ReportOptions) (ReportData, error) {
	run, err := report.Read(opts.InputPath)
	if err != nil {
		return ReportData{}, fmt.Errorf("read merged run result: %w", err)
	}

	data := ReportData{
		Run:      run,
		Clusters: cluster.Cluster(run.Tests),
	}

	if opts.WithHistory {
		history, err := historycorpus.Read(opts.HistoryPath)
		if err != nil {
			return ReportData{}, fmt.Errorf("read history corpus: %w", err)
		}
		data.History = history
	}
	return data, nil
}

// HistoryOptions configures the history listing operation.
type HistoryOptions struct {
	Path   string
	Flaky  bool
	Slow   bool
	Failing bool
	Limit  int
}

// History reads the history corpus and applies the requested filter/limit,
// sorted by the dimension implied by the filter (flakiness, duration, or
// failure rate respectively; unfiltered listings sort by flakiness).
func History(opts HistoryOptions) ([]model.TestHistoryEntry, error) {
	entries, err := historycorpus.Read(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("read history corpus: %w", err)
	}

	filtered := entries
	sortBy := present.HistorySortFlakiness
	switch {
	case opts.Flaky:
		filtered = filterHistory(entries, func(e model.TestHistoryEntry) bool { return e.FlakinessRate > 0 })
		sortBy = present.HistorySortFlakiness
	case opts.Slow:
		sortBy = present.HistorySortDuration
	case opts.Failing:
		filtered = filterHistory(entries, func(e model.TestHistoryEntry) bool { return e.FailureRate > 0 })
		sortBy = present.HistorySortFailure
	}

	sorted := present.SortHistory(filtered, sortBy)
	if opts.Limit > 0 && len(sorted) > opts.Limit {
		sorted = sorted[:opts.Limit]
	}
	return sorted, nil
}

func filterHistory(entries []model.TestHistoryEntry, keep func(model.TestHistoryEntry) bool) []model.TestHistoryEntry {
	out := make([]model.TestHistoryEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// NotifyOptions configures the notify operation.
type NotifyOptions struct {
	InputPath string
	ReportURL string
	Targets   []notify.Target
	Client    *http.Client
}

// Notify reads the merged run record, builds one payload per integration
// kind present among the targets, and sends them all concurrently. Send
// failures are never fatal — they are returned alongside a nil error so the
// caller can warn and still exit 0, per the notify command's contract.
func Notify(ctx context.Context, opts NotifyOptions) ([]notify.SendResult, error) {
	run, err := report.Read(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read merged run result: %w", err)
	}

	payloads := map[string]any{
		"github-comment": notify.BuildGitHubCommentBody(run, notify.CommentOptions{ReportURL: opts.ReportURL}),
		"github-status":  notify.BuildGitHubStatusPayload(run),
		"slack":          notify.BuildSlackPayload(run, opts.ReportURL),
		"webhook":        notify.BuildWebhookPayload(run),
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	return notify.SendAll(ctx, client, opts.Targets, payloads), nil
}
