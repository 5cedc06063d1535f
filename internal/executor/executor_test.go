package executor

import (
	"context"
	"os"
	"testing"

	"github.com/sorry-currents/shardctl/internal/model"
)

func TestBuildArgsSmartShardModeCarriesFiles(t *testing.T) {
	spec := Spec{
		Args:       []string{"test"},
		Assignment: &model.ShardAssignment{ShardIndex: 1, Files: []string{"a.spec.ts", "b.spec.ts"}},
	}
	args := BuildArgs(spec)
	want := []string{"test", "a.spec.ts", "b.spec.ts"}
	if len(args) != len(want) {
		t.Fatalf("got %v want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("got %v want %v", args, want)
		}
	}
}

func TestBuildArgsNativeShardModeWhenNoAssignment(t *testing.T) {
	spec := Spec{Args: []string{"test"}, ShardIndex: 2, ShardTotal: 4}
	args := BuildArgs(spec)
	want := []string{"test", "--shard=2/4"}
	if len(args) != 2 || args[1] != want[1] {
		t.Fatalf("got %v want %v", args, want)
	}
}

func TestBuildArgsNativeShardModeWhenAssignmentEmptyFallsThrough(t *testing.T) {
	spec := Spec{ShardIndex: 3, ShardTotal: 4, Assignment: &model.ShardAssignment{ShardIndex: 3, Files: nil}}
	args := BuildArgs(spec)
	if len(args) != 1 || args[0] != "--shard=3/4" {
		t.Fatalf("expected native-mode fallthrough args, got %v", args)
	}
}

func TestRunEmptyAssignmentShortCircuitsExitZero(t *testing.T) {
	spec := Spec{
		Command:    "false", // would exit 1 if actually invoked
		Assignment: &model.ShardAssignment{ShardIndex: 1, Files: nil},
	}
	code, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected immediate exit 0 for empty assignment, got %d", code)
	}
}

func TestRunPropagatesChildExitCode(t *testing.T) {
	spec := Spec{
		Command:    "sh",
		Args:       []string{"-c", "exit 7"},
		RunID:      "run-1",
		ShardIndex: 1,
		ShardTotal: 1,
	}
	code, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 7 {
		t.Fatalf("expected propagated exit code 7, got %d", code)
	}
}

func TestRunSuccessIsExitZero(t *testing.T) {
	spec := Spec{Command: "true", RunID: "run-1", ShardIndex: 1, ShardTotal: 1}
	code, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
}

func TestRunPassesRunIDThroughEnvironmentNotArgs(t *testing.T) {
	spec := Spec{
		Command:    "sh",
		Args:       []string{"-c", `test "$` + RunIDEnvVar + `" = "run-xyz"`},
		RunID:      "run-xyz",
		ShardIndex: 1,
		ShardTotal: 1,
	}
	code, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected run-id to be visible via %s env var, got exit %d", RunIDEnvVar, code)
	}
}

func TestRunMissingCommandReturnsSpawnError(t *testing.T) {
	spec := Spec{Command: "definitely-not-a-real-binary-xyz", ShardIndex: 1, ShardTotal: 1}
	_, err := Run(context.Background(), spec)
	if err == nil {
		t.Fatal("expected spawn error for nonexistent binary")
	}
}

func TestFirstNonNilPrefersExplicit(t *testing.T) {
	if got := firstNonNil(os.Stdout, os.Stderr); got != os.Stdout {
		t.Fatal("expected explicit file to win")
	}
	if got := firstNonNil(nil, os.Stderr); got != os.Stderr {
		t.Fatal("expected fallback when explicit is nil")
	}
}
