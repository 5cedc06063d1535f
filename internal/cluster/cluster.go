// Package cluster groups failing and timed-out test observations by
// normalized error fingerprint, producing the failure clusters the report
// and notify commands summarize.
package cluster

import (
	"sort"

	"github.com/sorry-currents/shardctl/internal/model"
	"github.com/sorry-currents/shardctl/internal/normalize"
)

// FailureCluster groups every test observation that produced the same
// normalized error message.
type FailureCluster struct {
	NormalizedMessage string
	Count             int
	TestIDs           []string
	Files             []string
	ExampleStack      string
}

// Cluster groups failing/timedOut tests in results by each error entry's
// normalized message — a test with multiple errors contributes to multiple
// clusters. Tests with no recorded error, or with any other status, are
// excluded. Clusters are sorted by count descending, with ties broken by
// first-encountered message order. The example stack is the most recently
// encountered one for that fingerprint (last write wins, which for a single
// pass over results in file order is simply the last matching observation).
func Cluster(results []model.TestResult) []FailureCluster {
	index := make(map[string]int)
	var clusters []FailureCluster

	for _, r := range results {
		if r.Status != model.StatusFailed && r.Status != model.StatusTimedOut {
			continue
		}

		for _, e := range r.Errors {
			fp := normalize.Normalize(e.Message)
			i, ok := index[fp]
			if !ok {
				index[fp] = len(clusters)
				clusters = append(clusters, FailureCluster{
					NormalizedMessage: fp,
					Count:             0,
				})
				i = len(clusters) - 1
			}

			c := &clusters[i]
			c.Count++
			c.TestIDs = append(c.TestIDs, r.Identity)
			if !containsString(c.Files, r.File) {
				c.Files = append(c.Files, r.File)
			}
			if e.Stack != "" {
				c.ExampleStack = e.Stack
			}
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool { return clusters[i].Count > clusters[j].Count })
	return clusters
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
