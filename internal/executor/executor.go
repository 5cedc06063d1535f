// Package executor spawns the child test-runner process for one shard
// assignment: smart-shard mode passes explicit file paths, native-shard mode
// passes a --shard=i/N flag, and the run-id is always threaded through an
// environment variable so it never collides with the child's own flag
// parsing.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/sorry-currents/shardctl/internal/model"
)

// RunIDEnvVar is the environment variable the child reporter reads its
// run-id from.
const RunIDEnvVar = "SHARDCTL_RUN_ID"

// Spec describes one child-process invocation.
type Spec struct {
	// Command is the runner binary (e.g. "npx"); its arguments go in Args.
	Command string
	Args    []string

	RunID string

	// Assignment is this shard's file list, when a plan exists. Nil means
	// no plan entry exists for this shard index — the cold-start case that
	// falls through to native-shard mode.
	Assignment *model.ShardAssignment

	// ShardIndex and ShardTotal describe this shard's native-mode
	// coordinates, used when Assignment is nil or when the caller forces
	// native mode.
	ShardIndex int
	ShardTotal int

	// Stdout, Stderr, Stdin default to the process's own streams when nil.
	Stdout, Stderr *os.File
	Stdin          *os.File

	Env []string
}

// BuildArgs derives the child argument vector for a spec: smart-shard mode
// (explicit file list) when an assignment is present and non-empty,
// native-shard mode (--shard=i/N) otherwise.
func BuildArgs(spec Spec) []string {
	args := append([]string(nil), spec.Args...)
	if spec.Assignment != nil && len(spec.Assignment.Files) > 0 {
		return append(args, spec.Assignment.Files...)
	}
	return append(args, fmt.Sprintf("--shard=%d/%d", spec.ShardIndex, spec.ShardTotal))
}

// Run spawns the child process described by spec and waits for it to
// terminate, returning the child's exit code. An assignment present but
// with zero files short-circuits to exit 0 without spawning anything. A
// missing assignment (nil) falls through to native-shard mode, letting the
// child runner itself select its slice of the suite.
func Run(ctx context.Context, spec Spec) (int, error) {
	if spec.Assignment != nil && len(spec.Assignment.Files) == 0 {
		return 0, nil
	}

	args := BuildArgs(spec)
	cmd := exec.CommandContext(ctx, spec.Command, args...)

	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", RunIDEnvVar, spec.RunID))

	cmd.Stdout = firstNonNil(spec.Stdout, os.Stdout)
	cmd.Stderr = firstNonNil(spec.Stderr, os.Stderr)
	cmd.Stdin = firstNonNil(spec.Stdin, os.Stdin)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("spawn %s: %w", spec.Command, err)
}

func firstNonNil(f *os.File, fallback *os.File) *os.File {
	if f != nil {
		return f
	}
	return fallback
}
