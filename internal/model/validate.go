package model

import (
	"strconv"
	"strings"
)

// ValidateTestResult enforces the §3 TestResult constraints: non-empty
// identity (file and title are not checked), enum membership for Status, non-negative duration and
// retries, a legal worker id, a positive shard index when present, and the
// isFlaky invariant.
func ValidateTestResult(t TestResult) error {
	if strings.TrimSpace(t.Identity) == "" {
		return newValidationError("TestResult", "Identity", ErrEmptyID)
	}
	if !validStatuses[t.Status] {
		return newValidationError("TestResult", "Status", ErrInvalidStatus)
	}
	if t.DurationMS < 0 {
		return newValidationError("TestResult", "DurationMS", ErrNegativeDuration)
	}
	if t.Retries < 0 {
		return newValidationError("TestResult", "Retries", ErrNegativeDuration)
	}
	if t.WorkerID < -1 {
		return newValidationError("TestResult", "WorkerID", ErrInvalidWorkerID)
	}
	if t.ShardIndex != 0 && t.ShardIndex < 1 {
		return newValidationError("TestResult", "ShardIndex", ErrInvalidShardIndex)
	}
	if t.IsFlaky != DetectFlaky(t.Status, t.Retries) {
		return newValidationError("TestResult", "IsFlaky", ErrIsFlakyInvariant)
	}
	return nil
}

// ValidateRunResult enforces the §3 RunResult constraints on the merged or
// per-shard record: non-empty run id, non-negative duration, a positive
// shard index when present, and a valid entry for every test. Summary and
// status are not recomputed or compared against the test list.
func ValidateRunResult(r RunResult) error {
	if strings.TrimSpace(r.RunID) == "" {
		return newValidationError("RunResult", "RunID", ErrEmptyID)
	}
	if r.DurationMS < 0 {
		return newValidationError("RunResult", "DurationMS", ErrNegativeDuration)
	}
	if r.ShardIndex != 0 && r.ShardIndex < 1 {
		return newValidationError("RunResult", "ShardIndex", ErrInvalidShardIndex)
	}
	for i, t := range r.Tests {
		if err := ValidateTestResult(t); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Field = "Tests[" + strconv.Itoa(i) + "]." + ve.Field
			}
			return err
		}
	}
	return nil
}

// ValidateShardTimingEntry enforces the §3 ShardTimingEntry constraints.
func ValidateShardTimingEntry(e ShardTimingEntry) error {
	if strings.TrimSpace(e.TestID) == "" {
		return newValidationError("ShardTimingEntry", "TestID", ErrEmptyID)
	}
	if e.Samples < 1 {
		return newValidationError("ShardTimingEntry", "Samples", ErrNegativeDuration)
	}
	if e.StddevMS < 0 {
		return newValidationError("ShardTimingEntry", "StddevMS", ErrNegativeDuration)
	}
	if len(e.LastDurations) > MaxTimingWindow {
		return newValidationError("ShardTimingEntry", "LastDurations", ErrNegativeDuration)
	}
	if e.Samples == 1 && e.StddevMS != 0 {
		return newValidationError("ShardTimingEntry", "StddevMS", ErrNegativeDuration)
	}
	return nil
}

// ValidateTestHistoryEntry enforces the §3 TestHistoryEntry constraints.
func ValidateTestHistoryEntry(e TestHistoryEntry) error {
	if strings.TrimSpace(e.Identity) == "" {
		return newValidationError("TestHistoryEntry", "Identity", ErrEmptyID)
	}
	if e.FlakinessRate < 0 || e.FlakinessRate > 1 {
		return newValidationError("TestHistoryEntry", "FlakinessRate", ErrInvalidRate)
	}
	if e.FailureRate < 0 || e.FailureRate > 1 {
		return newValidationError("TestHistoryEntry", "FailureRate", ErrInvalidRate)
	}
	if len(e.LastDurations) > MaxHistoryWindow {
		return newValidationError("TestHistoryEntry", "LastDurations", ErrNegativeDuration)
	}
	if len(e.TopErrors) > MaxTopErrors {
		return newValidationError("TestHistoryEntry", "TopErrors", ErrNegativeDuration)
	}
	return nil
}

// ValidateShardPlan enforces the §3 ShardPlan constraints: at least one
// assignment, contiguous 1..N shard indices, and no file appearing in more
// than one assignment.
func ValidateShardPlan(p ShardPlan) error {
	if len(p.Assignments) == 0 {
		return newValidationError("ShardPlan", "Assignments", ErrEmptyShardPlan)
	}
	seen := make(map[string]bool, p.TotalTests)
	for i, a := range p.Assignments {
		if a.ShardIndex != i+1 {
			return newValidationError("ShardPlan", "Assignments", ErrInvalidShardIndex)
		}
		for _, f := range a.Files {
			if seen[f] {
				return newValidationError("ShardPlan", "Assignments", ErrDuplicateFile)
			}
			seen[f] = true
		}
	}
	return nil
}
