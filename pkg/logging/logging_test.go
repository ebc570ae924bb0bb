package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	cases := map[LogLevel]string{
		LevelDebug:    "DEBUG",
		LevelInfo:     "INFO",
		LevelWarn:     "WARN",
		LevelError:    "ERROR",
		LogLevel(42):  "UNKNOWN",
		LogLevel(-1):  "UNKNOWN",
		LogLevel(100): "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestCLIModeLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("Test", "debug message")
	Info("Test", "info message")
	Warn("Test", "warn message")
	Error("Test", errors.New("boom"), "error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("expected debug/info suppressed at warn level, got: %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("expected warn message in output, got: %s", out)
	}
	if !strings.Contains(out, "error message") || !strings.Contains(out, "boom") {
		t.Errorf("expected error message with error attribute, got: %s", out)
	}
	if !strings.Contains(out, "subsystem=Test") {
		t.Errorf("expected subsystem attribute, got: %s", out)
	}
}

func TestTUIModeDeliversToChannel(t *testing.T) {
	ch := InitForTUI(LevelDebug)
	defer CloseTUIChannel()

	Info("Dashboard", "hello %s", "world")

	select {
	case entry := <-ch:
		if entry.Subsystem != "Dashboard" {
			t.Errorf("Subsystem = %q, want %q", entry.Subsystem, "Dashboard")
		}
		if entry.Message != "hello world" {
			t.Errorf("Message = %q, want %q", entry.Message, "hello world")
		}
		if entry.Level != LevelInfo {
			t.Errorf("Level = %v, want %v", entry.Level, LevelInfo)
		}
	default:
		t.Fatal("expected an entry on the TUI channel")
	}
}
