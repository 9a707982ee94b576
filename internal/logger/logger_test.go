package logger

import (
	"bytes"
	"geocapture/internal/config"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("hello %s", "info")
	l.Warning("hello %s", "warning")
	l.Error("hello %s", "error")

	for _, level := range []string{"info", "warning", "error"} {
		data, err := os.ReadFile(filepath.Join(dir, level+".log"))
		if err != nil {
			t.Fatalf("Failed to read %s.log: %v", level, err)
		}
		if !strings.Contains(string(data), "hello "+level) {
			t.Errorf("Expected %s.log to contain the message, got %q", level, string(data))
		}
	}
}

func TestCleanLogs_TruncatesFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Warning("to be removed")
	if err := l.CleanLogs("warning.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Failed to read warning.log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty warning.log, got %q", string(data))
	}
}

func TestCleanLogs_InfoStaysEmpty(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("to be removed")
	if err := l.CleanLogs("info.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "info.log"))
	if err != nil {
		t.Fatalf("Failed to read info.log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty info.log, got %q", string(data))
	}

	warnings, _ := os.ReadFile(filepath.Join(dir, "warning.log"))
	if !strings.Contains(string(warnings), "info.log has been cleared") {
		t.Errorf("Expected the confirmation in warning.log, got %q", string(warnings))
	}
}

func TestNewWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Error("upload failed: %v", "boom")

	if !strings.Contains(buf.String(), "ERROR") || !strings.Contains(buf.String(), "upload failed: boom") {
		t.Errorf("Unexpected output: %q", buf.String())
	}
	if err := l.CleanLogs("error.log"); err != nil {
		t.Errorf("CleanLogs on a writer logger should be a no-op, got %v", err)
	}
}
