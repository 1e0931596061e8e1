package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// setupTestDir resets the global sink and returns a temp directory for logs
func setupTestDir(t *testing.T) string {
	t.Helper()

	_ = Close()
	runID = ""
	runIDOnce = sync.Once{}

	t.Cleanup(func() {
		_ = Close()
	})
	return t.TempDir()
}

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestInitWritesRunLogFile(t *testing.T) {
	dir := setupTestDir(t)

	if err := Init(Options{Dir: dir, Level: "debug"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	path := LogPath()
	if filepath.Dir(path) != dir {
		t.Errorf("Expected log in %s, got %s", dir, path)
	}
	if filepath.Base(path) != RunID()+".log" {
		t.Errorf("Expected file named after run ID, got %s", filepath.Base(path))
	}

	logger := NewLogger("session")
	logger.Debugf("Debug message")
	logger.Infof("Login for %s", "user")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}

	wantLevels := []string{"debug", "info", "warn", "error"}
	for i, entry := range entries {
		if entry["level"] != wantLevels[i] {
			t.Errorf("Entry %d: expected level %s, got %v", i, wantLevels[i], entry["level"])
		}
		if entry["logger"] != "session" {
			t.Errorf("Entry %d: expected logger 'session', got %v", i, entry["logger"])
		}
		if entry["run_id"] != RunID() {
			t.Errorf("Entry %d: expected run_id %s, got %v", i, RunID(), entry["run_id"])
		}
	}
	if entries[1]["msg"] != "Login for user" {
		t.Errorf("Unexpected message %v", entries[1]["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := setupTestDir(t)

	if err := Init(Options{Dir: dir, Level: "warn"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	path := LogPath()

	logger := NewLogger("runner")
	logger.Debugf("hidden")
	logger.Infof("hidden")
	logger.Warnf("shown")
	_ = Close()

	entries := readEntries(t, path)
	if len(entries) != 1 || entries[0]["msg"] != "shown" {
		t.Errorf("Expected only the warning, got %v", entries)
	}
}

func TestMultipleComponentsShareFile(t *testing.T) {
	dir := setupTestDir(t)
	if err := Init(Options{Dir: dir}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	path := LogPath()

	NewLogger("component1").Infof("Message from component1")
	NewLogger("component2").Infof("Message from component2")
	_ = Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	for _, name := range []string{`"component1"`, `"component2"`} {
		if !strings.Contains(string(content), name) {
			t.Errorf("Log missing %s entries", name)
		}
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	dir := setupTestDir(t)
	if err := Init(Options{Dir: dir, Level: "verbose"}); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestInitFallsBackToStderr(t *testing.T) {
	dir := setupTestDir(t)
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	err := Init(Options{Dir: filepath.Join(blocker, "logs")})
	if err == nil {
		t.Fatal("Expected error when log dir cannot be created")
	}
	if LogPath() != "" {
		t.Errorf("Expected no log path in fallback mode, got %q", LogPath())
	}
	// Fallback logger must still be usable
	NewLogger("fallback").Infof("still works")
}

func TestRunIDStable(t *testing.T) {
	setupTestDir(t)

	id1 := RunID()
	id2 := RunID()
	if id1 != id2 {
		t.Errorf("Expected consistent run ID, got %q and %q", id1, id2)
	}
	if !strings.Contains(id1, "-") {
		t.Errorf("Expected UUID-like run ID, got %q", id1)
	}
}

func TestCloseTwice(t *testing.T) {
	dir := setupTestDir(t)
	if err := Init(Options{Dir: dir}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestWithAndNamed(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := FromZap(zap.New(core), "session").Named("login").With("account", "admin")

	logger.Infof("logged in")

	if logger.Component() != "session.login" {
		t.Errorf("Unexpected component %q", logger.Component())
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected one entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "session.login" {
		t.Errorf("Unexpected logger name %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["account"] != "admin" {
		t.Errorf("Missing account field: %v", entries[0].ContextMap())
	}
}

func TestFromZaptest(t *testing.T) {
	logger := FromZap(zaptest.NewLogger(t), "test")
	logger.Debugf("goes to t.Log")
	NewNop().Errorf("discarded")
}
