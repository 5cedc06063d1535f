package normalize

import "testing"

func TestNormalizeTimestampEquivalence(t *testing.T) {
	a := Normalize("Timeout at 2024-01-01T00:00:00Z for test abc")
	b := Normalize("Timeout at 2025-06-15T12:30:00Z for test abc")
	if a != b {
		t.Fatalf("expected identical normalization, got %q vs %q", a, b)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	messages := []string{
		"connection refused on 127.0.0.1:54231",
		"lock held by pid 48213 at /tmp/playwright-artifacts-x92/trace.zip",
		"segfault at address 0x7ffabc123456 in process 9981",
		"duplicate request id 5f2a1e4c-9b3d-4a7e-8c21-0a1b2c3d4e5f",
	}
	for _, m := range messages {
		once := Normalize(m)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: once=%q twice=%q", m, once, twice)
		}
	}
}

func TestNormalizeUUIDCaseInsensitive(t *testing.T) {
	a := Normalize("session 5F2A1E4C-9B3D-4A7E-8C21-0A1B2C3D4E5F failed")
	b := Normalize("session 5f2a1e4c-9b3d-4a7e-8c21-0a1b2c3d4e5f failed")
	if a != b {
		t.Fatalf("expected case-insensitive UUID normalization, got %q vs %q", a, b)
	}
}

func TestNormalizePort(t *testing.T) {
	got := Normalize("dial tcp 127.0.0.1:54231: connect: connection refused")
	want := "dial tcp 127.0.0.1:<PORT>: connect: connection refused"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeTempPathPosixAndWindows(t *testing.T) {
	posix := Normalize("artifact saved to /tmp/pw-artifacts-8821/screenshot.png")
	if posix != "artifact saved to <TMPDIR>" {
		t.Fatalf("posix temp path not normalized: %q", posix)
	}
	windows := Normalize(`artifact saved to C:\Temp\pw-artifacts-8821\screenshot.png`)
	if windows == "" || windows == `artifact saved to C:\Temp\pw-artifacts-8821\screenshot.png` {
		t.Fatalf("windows temp path not normalized: %q", windows)
	}
}

func TestNormalizeHexAddress(t *testing.T) {
	got := Normalize("panic: nil pointer dereference at 0x7ffabc123456")
	want := "panic: nil pointer dereference at <ADDR>"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizePidAndProcess(t *testing.T) {
	if got := Normalize("orphaned pid 12345 detected"); got != "orphaned pid <PID> detected" {
		t.Fatalf("pid token not normalized: %q", got)
	}
	if got := Normalize("process 99 exited unexpectedly"); got != "pid <PID> exited unexpectedly" {
		t.Fatalf("process token not normalized: %q", got)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("error:   multiple    spaces\tand\ntabs")
	want := "error: multiple spaces and tabs"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeStableUnderCombinedVolatility(t *testing.T) {
	a := Normalize("Timeout at 2024-01-01T00:00:00Z connecting to 127.0.0.1:54231 (pid 111, /tmp/a/b)")
	b := Normalize("Timeout at 2025-09-09T09:09:09Z connecting to 127.0.0.1:54987 (pid 222, /tmp/x/y)")
	if a != b {
		t.Fatalf("expected combined-volatility equivalence, got %q vs %q", a, b)
	}
}
