package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	err := Setup(LogConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = Setup(DefaultConfig()) })

	l := WithRunID("batch", "run-123")
	l.Info().Int("batch", 2).Msg("batch written")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"component":"batch"`, `"run_id":"run-123"`, `"batch":2`, `"message":"batch written"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup(LogConfig{Level: "loud", Format: "console", Output: "stderr"}); err == nil {
		t.Fatal("Setup() with unknown level should fail")
	}
}
