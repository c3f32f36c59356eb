package logger

import (
	"encoding/json"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// reset restores the default logger state after a test.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = LevelInfo
	jsonFormat = false
	logger = stdlog.New(os.Stdout, "", 0)
}

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	t.Cleanup(reset)

	path := filepath.Join(t.TempDir(), "out.log")
	if err := Configure("WARN", "text", path); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	out := string(content)
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("Expected DEBUG and INFO to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("Expected WARN and ERROR to be written, got: %s", out)
	}
}

func TestSetLevel_CaseInsensitive(t *testing.T) {
	t.Cleanup(reset)

	SetLevel("debug")

	mu.Lock()
	level := currentLevel
	mu.Unlock()

	if level != LevelDebug {
		t.Errorf("Expected LevelDebug, got %v", level)
	}
}

func TestConfigure_JSONFormat(t *testing.T) {
	t.Cleanup(reset)

	path := filepath.Join(t.TempDir(), "out.log")
	if err := Configure("INFO", "json", path); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	Info("hello %s", "world")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entry map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("Expected valid JSON log line, got %q: %v", content, err)
	}
	if entry["level"] != "INFO" {
		t.Errorf("Expected level INFO, got %q", entry["level"])
	}
	if entry["message"] != "hello world" {
		t.Errorf("Expected formatted message, got %q", entry["message"])
	}
}

func TestConfigure_BadFilePath(t *testing.T) {
	t.Cleanup(reset)

	err := Configure("INFO", "text", "/nonexistent-dir/deeper/out.log")
	if err == nil {
		t.Fatal("Expected error for unwritable log path, got nil")
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(42):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
