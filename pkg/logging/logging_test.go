package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, test := range tests {
		if got := test.level.SlogLevel(); got != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, got, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"loud":    LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("test-subsystem", "test message %d", 42)
	Debug("test-subsystem", "hidden debug")

	output := buf.String()
	if !strings.Contains(output, "test message 42") {
		t.Error("Expected log message to appear in CLI output")
	}
	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in CLI output")
	}
	if strings.Contains(output, "hidden debug") {
		t.Error("Expected debug message to be filtered at info level")
	}
}

func TestErrorIncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("Writer", errors.New("disk full"), "write failed")

	output := buf.String()
	if !strings.Contains(output, "write failed") || !strings.Contains(output, "disk full") {
		t.Errorf("Expected message and error in output, got %q", output)
	}
}

func TestInitForFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "startup.log")

	var buf bytes.Buffer
	if err := InitForFile(LevelInfo, &buf, path); err != nil {
		t.Fatalf("InitForFile failed: %v", err)
	}
	Warn("Housekeeping", "purged %d entries", 3)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "purged 3 entries") {
		t.Errorf("Expected log file to contain message, got %q", string(data))
	}
	if !strings.Contains(buf.String(), "purged 3 entries") {
		t.Error("Expected message to also reach the console writer")
	}
}

func TestSubsystemLogger(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	var l Logger = NewSubsystemLogger("Engine")
	l.Log("step 1 of 9")
	Discard.Log("never seen")

	output := buf.String()
	if !strings.Contains(output, "step 1 of 9") || !strings.Contains(output, "Engine") {
		t.Errorf("unexpected output %q", output)
	}
	if strings.Contains(output, "never seen") {
		t.Error("Discard logger must not write")
	}
}
