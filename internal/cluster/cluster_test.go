package cluster

import (
	"testing"

	"github.com/sorry-currents/shardctl/internal/model"
)

func TestClusterGroupsByNormalizedMessage(t *testing.T) {
	results := []model.TestResult{
		{Identity: "t1", File: "a.spec.ts", Status: model.StatusFailed, Errors: []model.TestError{
			{Message: "Timeout at 2024-01-01T00:00:00Z waiting for selector"},
		}},
		{Identity: "t2", File: "b.spec.ts", Status: model.StatusTimedOut, Errors: []model.TestError{
			{Message: "Timeout at 2025-05-05T05:05:05Z waiting for selector"},
		}},
		{Identity: "t3", File: "c.spec.ts", Status: model.StatusFailed, Errors: []model.TestError{
			{Message: "element not found: #submit"},
		}},
	}
	clusters := Cluster(results)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].Count != 2 {
		t.Fatalf("expected larger cluster first with count 2, got %d", clusters[0].Count)
	}
	if len(clusters[0].TestIDs) != 2 || len(clusters[0].Files) != 2 {
		t.Fatalf("expected 2 test ids and 2 files in largest cluster, got %+v", clusters[0])
	}
}

func TestClusterExcludesPassedAndSkipped(t *testing.T) {
	results := []model.TestResult{
		{Identity: "t1", Status: model.StatusPassed, Errors: []model.TestError{{Message: "transient"}}},
		{Identity: "t2", Status: model.StatusSkipped, Errors: []model.TestError{{Message: "transient"}}},
	}
	if got := Cluster(results); len(got) != 0 {
		t.Fatalf("expected no clusters from passed/skipped tests, got %+v", got)
	}
}

func TestClusterExcludesErrorlessFailures(t *testing.T) {
	results := []model.TestResult{{Identity: "t1", Status: model.StatusFailed}}
	if got := Cluster(results); len(got) != 0 {
		t.Fatalf("expected no cluster for a failure with no recorded error, got %+v", got)
	}
}

func TestClusterStableTieBreakByFirstEncountered(t *testing.T) {
	results := []model.TestResult{
		{Identity: "t1", Status: model.StatusFailed, Errors: []model.TestError{{Message: "error B"}}},
		{Identity: "t2", Status: model.StatusFailed, Errors: []model.TestError{{Message: "error A"}}},
	}
	clusters := Cluster(results)
	if len(clusters) != 2 || clusters[0].NormalizedMessage != "error B" {
		t.Fatalf("expected stable first-encountered order for equal counts, got %+v", clusters)
	}
}

func TestClusterCountsEachErrorEntrySeparately(t *testing.T) {
	results := []model.TestResult{
		{Identity: "t1", File: "a.spec.ts", Status: model.StatusFailed, Errors: []model.TestError{
			{Message: "first failure"},
			{Message: "second failure"},
		}},
	}
	clusters := Cluster(results)
	if len(clusters) != 2 {
		t.Fatalf("expected one cluster per error entry, got %d", len(clusters))
	}
	for _, c := range clusters {
		if c.Count != 1 || len(c.TestIDs) != 1 || c.TestIDs[0] != "t1" {
			t.Fatalf("expected the single test to contribute once per cluster, got %+v", c)
		}
	}
}

func TestClusterExampleStackMostRecentWins(t *testing.T) {
	results := []model.TestResult{
		{Identity: "t1", Status: model.StatusFailed, Errors: []model.TestError{{Message: "boom", Stack: "stack-1"}}},
		{Identity: "t2", Status: model.StatusFailed, Errors: []model.TestError{{Message: "boom", Stack: "stack-2"}}},
	}
	clusters := Cluster(results)
	if clusters[0].ExampleStack != "stack-2" {
		t.Fatalf("expected most recent stack to win, got %q", clusters[0].ExampleStack)
	}
}
