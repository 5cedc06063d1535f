// Package report discovers per-shard result files, validates each, and
// merges the survivors into one unified RunResult. The merge is the join
// barrier across otherwise memory-isolated shards: no ordering is assumed,
// and summary counts are always recomputed from the combined test list
// rather than summed across shards.
package report

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sorry-currents/shardctl/internal/model"
	"github.com/sorry-currents/shardctl/internal/worker"
)

// ErrNoValidShards is returned by Merge when every discovered shard file
// failed to parse or validate.
var ErrNoValidShards = fmt.Errorf("no valid shard result files found")

// Discover recursively walks root collecting paths whose base name contains
// "run-result" and ends in ".json" — the per-shard reporter's
// run-result.json naming convention, one file per shard subdirectory.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".json") && strings.Contains(name, "run-result") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover shard results under %s: %w", root, err)
	}
	return paths, nil
}

// shardFile is the outcome of reading and validating one discovered path.
type shardFile struct {
	result model.RunResult
}

// loadShard reads, parses, and validates one shard file. A failure here is
// logged by the caller and the shard is skipped — it never aborts the
// merge.
func loadShard(path string) (shardFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return shardFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	res, err := model.UnmarshalEnvelope[model.RunResult](raw)
	if err != nil {
		return shardFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := model.ValidateRunResult(res); err != nil {
		return shardFile{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return shardFile{result: res}, nil
}

// Merge discovers and validates every shard file under root using a bounded
// worker pool, then combines the survivors into a single merged RunResult.
// Invalid shards are logged and skipped. A zero-valid-shard outcome is
// fatal: it returns ErrNoValidShards.
func Merge(root string, runID string, concurrency int) (model.RunResult, error) {
	paths, err := Discover(root)
	if err != nil {
		return model.RunResult{}, err
	}
	if len(paths) == 0 {
		return model.RunResult{}, ErrNoValidShards
	}

	pool := worker.NewPool[shardFile](concurrency)
	results := pool.Process(paths, loadShard)

	var shards []model.RunResult
	for _, r := range results {
		if r.Err != nil {
			log.Printf("skipping invalid shard result: %v", r.Err)
			continue
		}
		shards = append(shards, r.Value.result)
	}

	if len(shards) == 0 {
		return model.RunResult{}, ErrNoValidShards
	}

	return mergeShards(runID, shards), nil
}

// mergeShards combines validated shard records: concatenates test lists,
// recomputes summary and status from the combined list, takes the max
// shard duration, and inherits environment/git/config from the
// first shard in read order.
func mergeShards(runID string, shards []model.RunResult) model.RunResult {
	var tests []model.TestResult
	maxDuration := 0
	statuses := make([]model.RunStatus, 0, len(shards))

	for _, s := range shards {
		tests = append(tests, s.Tests...)
		if s.DurationMS > maxDuration {
			maxDuration = s.DurationMS
		}
		statuses = append(statuses, s.Status)
	}

	first := shards[0]
	shardCount := first.ShardCount
	if shardCount == 0 {
		shardCount = len(shards)
	}

	merged := model.RunResult{
		RunID:       runID,
		Timestamp:   first.Timestamp,
		DurationMS:  maxDuration,
		Status:      model.MergeStatus(statuses),
		Summary:     model.ComputeSummary(tests),
		ShardCount:  shardCount,
		Tests:       tests,
		Environment: first.Environment,
		Git:         first.Git,
		Config:      first.Config,
	}
	return merged
}

// Write atomically persists the merged record to path as an
// envelope-wrapped JSON document.
func Write(path string, result model.RunResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", path, err)
	}
	buf, err := model.MarshalEnvelope(result)
	if err != nil {
		return fmt.Errorf("marshal merged run result: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write temp merged run result: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp merged run result into place: %w", err)
	}
	return nil
}

// Read loads a previously written merged record from path.
func Read(path string) (model.RunResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.RunResult{}, fmt.Errorf("read merged run result %s: %w", path, err)
	}
	res, err := model.UnmarshalEnvelope[model.RunResult](raw)
	if err != nil {
		return model.RunResult{}, fmt.Errorf("parse merged run result %s: %w", path, err)
	}
	return res, nil
}

// DeduplicateRetries keeps, for each test identity, only the observation
// with the greatest retry count — the per-shard reporter's contract for
// collapsing repeated onTestEnd callbacks into one terminal observation.
// Ties keep the first-encountered observation.
func DeduplicateRetries(tests []model.TestResult) []model.TestResult {
	index := make(map[string]int)
	var out []model.TestResult
	for _, t := range tests {
		i, ok := index[t.Identity]
		if !ok {
			index[t.Identity] = len(out)
			out = append(out, t)
			continue
		}
		if t.Retries > out[i].Retries {
			out[i] = t
		}
	}
	return out
}
