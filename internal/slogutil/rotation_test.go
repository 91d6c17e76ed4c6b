package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fredwork/internal/config"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100B", 100},
		{"1kb", 1024},
		{"10KB", 10240},
		{"10MB", 10 * 1024 * 1024},
		{" 2 mb ", 2 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
		{"-1MB", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_RotatesAtMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fredwork.log")

	rf, err := OpenRotatingFile(path, 30, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	defer rf.Close()

	line := []byte("0123456789abcdefghij\n") // 21 bytes
	for i := 0; i < 4; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", filepath.Base(p), err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected at most 2 backups, found .3")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, line) {
		t.Errorf("current file = %q, want a single line", data)
	}
}

func TestRotatingFile_NoRotationWhenUnbounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fredwork.log")

	rf, err := OpenRotatingFile(path, 0, 3)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		_, _ = rf.Write([]byte("line\n"))
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup expected with maxSize 0")
	}
	if err := rf.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestRotatingFile_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fredwork.log")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rf, err := OpenRotatingFile(path, 1024, 1)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	_, _ = rf.Write([]byte("new\n"))
	_ = rf.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "old\nnew\n" {
		t.Errorf("file = %q, want appended content", data)
	}
}

func TestSetup_Console(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LoggingConfig{Format: "human", Level: "debug"}

	logger, closer, err := Setup(cfg, &buf, nil)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	logger.Debug("ready", "port", 7878)
	if !strings.Contains(buf.String(), "[debug] ready | port=7878") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestSetup_JSONAndOverride(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LoggingConfig{Format: "json", Level: "debug"}

	logger, closer, err := Setup(cfg, &buf, slog.LevelError)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	logger.Warn("dropped")
	logger.Error("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("override level should filter warn, got: %s", output)
	}
	if !strings.Contains(output, `"msg":"kept"`) {
		t.Errorf("expected JSON record, got: %s", output)
	}
}

func TestSetup_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "fredwork.log")
	cfg := config.LoggingConfig{Format: "json", Level: "info", File: path, MaxSize: "1MB", MaxBackups: 1}

	logger, closer, err := Setup(cfg, &buf, nil)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info("to both")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "[info] to both") {
		t.Errorf("file should use the human format, got: %s", data)
	}
	if !strings.Contains(buf.String(), `"msg":"to both"`) {
		t.Errorf("console should use JSON, got: %s", buf.String())
	}
}
