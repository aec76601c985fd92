package logging

import "testing"

func TestSanitizeHashesIdentifierKeys(t *testing.T) {
	out := sanitize([]any{"user_id", "u-123", "message", "hello"})
	if out[1] == "u-123" {
		t.Error("user_id value should be hashed, not logged raw")
	}
	if out[3] != "hello" {
		t.Errorf("non-sensitive value should pass through unchanged, got %v", out[3])
	}
}

func TestSanitizeRedactsSensitiveKeys(t *testing.T) {
	out := sanitize([]any{"race_date", "2026-04-25"})
	if out[1] != "[REDACTED]" {
		t.Errorf("race_date should be redacted, got %v", out[1])
	}
}

func TestSanitizeHandlesOddLengthArgs(t *testing.T) {
	out := sanitize([]any{"key1", "val1", "dangling"})
	if len(out) != 3 {
		t.Fatalf("expected 3 elements preserved, got %d", len(out))
	}
	if out[2] != "dangling" {
		t.Errorf("trailing unpaired key should pass through, got %v", out[2])
	}
}

func TestHashValueIsDeterministicWithinProcess(t *testing.T) {
	a := hashValue("athlete-42")
	b := hashValue("athlete-42")
	if a != b {
		t.Errorf("hashValue should be deterministic within a process: %q != %q", a, b)
	}
	if a == "" {
		t.Error("expected non-empty hash")
	}
}

func TestNewBuildsLoggerForKnownModes(t *testing.T) {
	if _, err := New("development"); err != nil {
		t.Errorf("New(development): %v", err)
	}
	if _, err := New("production"); err != nil {
		t.Errorf("New(production): %v", err)
	}
}
