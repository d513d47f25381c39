package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	log, err := build(true, false, []string{path})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	log.Debug("hidden")
	log.Named("matching").Info("matching stage")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry at info level, got %d: %s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	for key, want := range map[string]string{
		"msg":     "matching stage",
		"level":   "info",
		"logger":  "matching",
		"service": service,
	} {
		if entry[key] != want {
			t.Fatalf("%s = %v, want %q", key, entry[key], want)
		}
	}
	if _, ok := entry["caller"]; ok {
		t.Fatal("caller should only be logged in debug mode")
	}
}

func TestBuildDebugConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	log, err := build(false, true, []string{path})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	log.Debug("prompt sent")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "debug") || !strings.Contains(out, "prompt sent") {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Fatalf("expected caller in debug output: %s", out)
	}
}
