package balancer

import (
	"testing"

	"github.com/sorry-currents/shardctl/internal/model"
)

func entries(pairs ...struct {
	file string
	ms   int
}) []model.TestTimingEntry {
	var out []model.TestTimingEntry
	for _, p := range pairs {
		out = append(out, model.TestTimingEntry{File: p.file, EstimatedDuration: p.ms})
	}
	return out
}

func TestLPTScenario1FourFilesTwoShards(t *testing.T) {
	in := []model.TestTimingEntry{
		{File: "a.spec.ts", EstimatedDuration: 10000},
		{File: "b.spec.ts", EstimatedDuration: 10000},
		{File: "c.spec.ts", EstimatedDuration: 2000},
		{File: "d.spec.ts", EstimatedDuration: 3000},
	}
	strat, err := Lookup("lpt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	plan := strat.Balance(in, 2)

	if plan.MaxShardDuration != 13000 {
		t.Fatalf("expected maxShardDuration 13000, got %d", plan.MaxShardDuration)
	}
	if plan.MinShardDuration != 12000 {
		t.Fatalf("expected minShardDuration 12000, got %d", plan.MinShardDuration)
	}
	if plan.ImprovementPercent == nil || int(*plan.ImprovementPercent) != -4 {
		t.Fatalf("expected improvement-percent -4, got %v", plan.ImprovementPercent)
	}

	var gotAD, gotBC bool
	for _, a := range plan.Assignments {
		files := map[string]bool{}
		for _, f := range a.Files {
			files[f] = true
		}
		if files["a.spec.ts"] && files["d.spec.ts"] && len(a.Files) == 2 {
			gotAD = true
		}
		if files["b.spec.ts"] && files["c.spec.ts"] && len(a.Files) == 2 {
			gotBC = true
		}
	}
	if !gotAD || !gotBC {
		t.Fatalf("expected {a,d} and {b,c} shards, got %+v", plan.Assignments)
	}
}

func TestPlanConservationCount(t *testing.T) {
	in := entries(
		struct {
			file string
			ms   int
		}{"a", 100},
		struct {
			file string
			ms   int
		}{"b", 200},
		struct {
			file string
			ms   int
		}{"c", 50},
	)
	for _, name := range Names() {
		strat, _ := Lookup(name)
		plan := strat.Balance(in, 2)
		seen := map[string]int{}
		for _, a := range plan.Assignments {
			for _, f := range a.Files {
				seen[f]++
			}
		}
		if len(seen) != 3 {
			t.Fatalf("%s: expected 3 distinct files in plan, got %d", name, len(seen))
		}
		for f, c := range seen {
			if c != 1 {
				t.Fatalf("%s: file %s appears in %d assignments, want 1", name, f, c)
			}
		}
	}
}

func TestPlanConservationDuration(t *testing.T) {
	in := []model.TestTimingEntry{
		{File: "a", EstimatedDuration: 111},
		{File: "a", EstimatedDuration: 222},
		{File: "b", EstimatedDuration: 333},
	}
	for _, name := range Names() {
		strat, _ := Lookup(name)
		plan := strat.Balance(in, 2)
		sum := 0
		for _, a := range plan.Assignments {
			sum += a.EstimatedDuration
		}
		if sum != 666 {
			t.Fatalf("%s: expected total duration 666, got %d", name, sum)
		}
	}
}

func TestRoundRobinFairnessByFileCount(t *testing.T) {
	in := entries(
		struct {
			file string
			ms   int
		}{"a", 1},
		struct {
			file string
			ms   int
		}{"b", 1},
		struct {
			file string
			ms   int
		}{"c", 1},
		struct {
			file string
			ms   int
		}{"d", 1},
		struct {
			file string
			ms   int
		}{"e", 1},
	)
	strat, _ := Lookup("round-robin")
	plan := strat.Balance(in, 2)
	min, max := -1, -1
	for _, a := range plan.Assignments {
		n := len(a.Files)
		if min == -1 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	if max-min > 1 {
		t.Fatalf("expected round-robin fairness within 1, got min=%d max=%d", min, max)
	}
}

func TestFileGroupCohesionAllTestsFromFileShareAssignment(t *testing.T) {
	in := []model.TestTimingEntry{
		{TestID: "t1", File: "a.spec.ts", EstimatedDuration: 100},
		{TestID: "t2", File: "a.spec.ts", EstimatedDuration: 200},
		{TestID: "t3", File: "b.spec.ts", EstimatedDuration: 50},
	}
	strat, _ := Lookup("file-group")
	plan := strat.Balance(in, 2)
	occurrences := map[string]int{}
	for _, a := range plan.Assignments {
		for _, f := range a.Files {
			occurrences[f]++
		}
	}
	if occurrences["a.spec.ts"] != 1 {
		t.Fatalf("expected file a.spec.ts cohesive in a single assignment, occurred in %d", occurrences["a.spec.ts"])
	}
}

func TestLookupUnknownStrategyErrors(t *testing.T) {
	if _, err := Lookup("bogus"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestCalculateOptimalShardCountEmptyEntriesIsOne(t *testing.T) {
	if got := CalculateOptimalShardCount(nil, 30000, 8); got != 1 {
		t.Fatalf("expected 1 for empty entries, got %d", got)
	}
}

func TestCalculateOptimalShardCountNonPositiveTargetIsOne(t *testing.T) {
	in := entries(struct {
		file string
		ms   int
	}{"a", 1000})
	if got := CalculateOptimalShardCount(in, 0, 8); got != 1 {
		t.Fatalf("expected 1 for zero target duration, got %d", got)
	}
	if got := CalculateOptimalShardCount(in, -5, 8); got != 1 {
		t.Fatalf("expected 1 for negative target duration, got %d", got)
	}
}

func TestCalculateOptimalShardCountClampsToFileCount(t *testing.T) {
	var in []model.TestTimingEntry
	for i := 0; i < 240; i++ {
		in = append(in, model.TestTimingEntry{File: "f", EstimatedDuration: 1000})
	}
	// total = 240000ms across one file aggregate; target 30000ms -> ideal ceil(240000/30000)=8.
	got := CalculateOptimalShardCount(in, 30000, 8)
	if got != 1 {
		// single file aggregate clamps upper bound to fileCount=1 regardless of ideal.
		t.Fatalf("expected clamp to file count 1, got %d", got)
	}
}

func TestCalculateOptimalShardCountClampsToMaxShards(t *testing.T) {
	var in []model.TestTimingEntry
	for i := 0; i < 20; i++ {
		in = append(in, model.TestTimingEntry{File: string(rune('a' + i)), EstimatedDuration: 30000})
	}
	got := CalculateOptimalShardCount(in, 30000, 8)
	if got != 8 {
		t.Fatalf("expected clamp to maxShards 8, got %d", got)
	}
}

func TestRiskAdjustScenario6VariancePadding(t *testing.T) {
	cases := []struct {
		risk int
		want int
	}{
		{0, 5000},
		{1, 6000},
		{2, 7000},
	}
	for _, c := range cases {
		if got := RiskAdjust(5000, 1000, c.risk); got != c.want {
			t.Errorf("RiskAdjust(5000,1000,%d) = %d, want %d", c.risk, got, c.want)
		}
	}
}

func TestRiskAdjustZeroStddevIgnoresRiskFactor(t *testing.T) {
	if got := RiskAdjust(5000, 0, 2); got != 5000 {
		t.Fatalf("expected zero-stddev estimate to equal avg regardless of risk factor, got %d", got)
	}
}

func TestEstimateDurationFallsBackToDefaultForUnseenTest(t *testing.T) {
	if got := EstimateDuration(nil, 1, DefaultDurationMS); got != DefaultDurationMS {
		t.Fatalf("expected default duration for nil entry, got %d", got)
	}
}

func TestColdStartPlanScenario2EightPlaceholderAssignments(t *testing.T) {
	plan := ColdStartPlan(8, "lpt")
	if len(plan.Assignments) != 8 {
		t.Fatalf("expected 8 placeholder assignments, got %d", len(plan.Assignments))
	}
	for i, a := range plan.Assignments {
		if a.ShardIndex != i+1 {
			t.Fatalf("assignment %d: want shardIndex %d, got %d", i, i+1, a.ShardIndex)
		}
		if len(a.Files) != 0 || a.EstimatedDuration != 0 {
			t.Fatalf("expected empty placeholder assignment, got %+v", a)
		}
	}
	if plan.TotalTests != 0 {
		t.Fatalf("expected zero total tests for a cold-start plan, got %d", plan.TotalTests)
	}
}

func TestColdStartPlanClampsBelowOneToOne(t *testing.T) {
	plan := ColdStartPlan(0, "lpt")
	if len(plan.Assignments) != 1 {
		t.Fatalf("expected at least 1 placeholder assignment, got %d", len(plan.Assignments))
	}
}

func TestEffectiveShardCountClampsToFileCount(t *testing.T) {
	if got := effectiveShardCount(100, 3); got != 3 {
		t.Fatalf("expected clamp to file count 3, got %d", got)
	}
	if got := effectiveShardCount(0, 3); got != 1 {
		t.Fatalf("expected minimum 1 shard when shardCount<1 but files exist, got %d", got)
	}
	if got := effectiveShardCount(5, 0); got != 0 {
		t.Fatalf("expected 0 shards for 0 files, got %d", got)
	}
}
