package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"api_key", "sk-123", "lecture", "java", "dangling"})
	want := []interface{}{"api_key", "[REDACTED]", "lecture", "java", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("kv[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asc.log")
	log, err := New("debug", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("lecture loaded", "lecture", "java", "authorization", "Bearer abc")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "lecture loaded") {
		t.Errorf("expected message in log, got %q", out)
	}
	if strings.Contains(out, "Bearer abc") {
		t.Errorf("authorization value should be redacted, got %q", out)
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().With("k", "v").Error("ignored")
}
