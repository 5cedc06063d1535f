package model

import "testing"

func TestDetectFlaky(t *testing.T) {
	cases := []struct {
		status  Status
		retries int
		want    bool
	}{
		{StatusPassed, 0, false},
		{StatusPassed, 1, true},
		{StatusPassed, 3, true},
		{StatusFailed, 1, false},
		{StatusTimedOut, 1, false}, // preserved: timedOut is never flaky even with retries
		{StatusSkipped, 0, false},
	}
	for _, c := range cases {
		if got := DetectFlaky(c.status, c.retries); got != c.want {
			t.Errorf("DetectFlaky(%s, %d) = %v, want %v", c.status, c.retries, got, c.want)
		}
	}
}

func TestComputeStatusPriority(t *testing.T) {
	tests := []TestResult{
		{Status: StatusPassed},
		{Status: StatusFailed},
		{Status: StatusInterrupted},
	}
	if got := ComputeStatus(tests); got != RunStatusInterrupted {
		t.Fatalf("expected interrupted, got %s", got)
	}
}

func TestComputeStatusEmptyIsPassed(t *testing.T) {
	if got := ComputeStatus(nil); got != RunStatusPassed {
		t.Fatalf("expected passed for empty test list, got %s", got)
	}
}

func TestMergeStatusPriority(t *testing.T) {
	got := MergeStatus([]RunStatus{RunStatusPassed, RunStatusFailed, RunStatusInterrupted})
	if got != RunStatusInterrupted {
		t.Fatalf("expected interrupted, got %s", got)
	}
}

func TestComputeSummaryExcludesFlakyFromPassed(t *testing.T) {
	tests := []TestResult{
		{Status: StatusPassed, IsFlaky: false},
		{Status: StatusPassed, IsFlaky: true, Retries: 1},
		{Status: StatusFailed},
		{Status: StatusTimedOut},
		{Status: StatusSkipped},
	}
	s := ComputeSummary(tests)
	if s.Total != 5 {
		t.Fatalf("expected total 5, got %d", s.Total)
	}
	if s.Passed != 1 {
		t.Fatalf("expected 1 non-flaky passed, got %d", s.Passed)
	}
	if s.Failed != 2 {
		t.Fatalf("expected failed+timedOut=2, got %d", s.Failed)
	}
	if s.Flaky != 1 {
		t.Fatalf("expected 1 flaky, got %d", s.Flaky)
	}
	if s.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", s.Skipped)
	}
}

func TestValidateTestResultRejectsFlakyInvariantViolation(t *testing.T) {
	tr := TestResult{
		Identity: "abc1234567890123",
		Status:   StatusFailed,
		IsFlaky:  true, // invalid: failed tests can never be flaky
		WorkerID: 0,
	}
	if err := ValidateTestResult(tr); err == nil {
		t.Fatal("expected validation error for isFlaky invariant violation")
	}
}

func TestValidateTestResultAcceptsUnassignedSkipped(t *testing.T) {
	tr := TestResult{
		Identity: "abc1234567890123",
		Status:   StatusSkipped,
		WorkerID: -1,
	}
	if err := ValidateTestResult(tr); err != nil {
		t.Fatalf("expected -1 worker id to be legal for skipped test, got %v", err)
	}
}

func TestValidateShardTimingEntrySingleSampleZeroStddev(t *testing.T) {
	e := ShardTimingEntry{TestID: "t1", Samples: 1, StddevMS: 0}
	if err := ValidateShardTimingEntry(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := ShardTimingEntry{TestID: "t1", Samples: 1, StddevMS: 5}
	if err := ValidateShardTimingEntry(bad); err == nil {
		t.Fatal("expected error: samples=1 must imply stddev=0")
	}
}

func TestValidateShardPlanRejectsDuplicateFile(t *testing.T) {
	p := ShardPlan{
		Assignments: []ShardAssignment{
			{ShardIndex: 1, Files: []string{"a.spec.ts"}},
			{ShardIndex: 2, Files: []string{"a.spec.ts"}},
		},
	}
	if err := ValidateShardPlan(p); err == nil {
		t.Fatal("expected duplicate-file error")
	}
}

func TestValidateShardPlanRejectsNonContiguousIndices(t *testing.T) {
	p := ShardPlan{
		Assignments: []ShardAssignment{
			{ShardIndex: 1, Files: []string{"a.spec.ts"}},
			{ShardIndex: 3, Files: []string{"b.spec.ts"}},
		},
	}
	if err := ValidateShardPlan(p); err == nil {
		t.Fatal("expected non-contiguous shard index error")
	}
}

func TestValidateShardPlanRejectsEmptyAssignments(t *testing.T) {
	if err := ValidateShardPlan(ShardPlan{}); err == nil {
		t.Fatal("expected empty-plan error")
	}
}

func TestValidateShardPlanAcceptsColdStartPlaceholders(t *testing.T) {
	p := ShardPlan{
		Assignments: []ShardAssignment{
			{ShardIndex: 1, Files: []string{}},
			{ShardIndex: 2, Files: []string{}},
		},
	}
	if err := ValidateShardPlan(p); err != nil {
		t.Fatalf("unexpected error for empty-file placeholder assignments: %v", err)
	}
}
