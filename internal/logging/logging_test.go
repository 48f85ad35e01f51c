package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewWritesToTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("order applied", "quality_score", 87)
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "order applied") || !strings.Contains(out, "quality_score=87") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatal("debug line leaked at info level")
	}
}

func TestLevelVarChangesAtRuntime(t *testing.T) {
	var buf bytes.Buffer
	logger, level, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("before")
	level.Set(slog.LevelDebug)
	logger.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "verbose"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("order.id-x"); got != "ORDER_ID_X" {
		t.Fatalf("expected ORDER_ID_X, got %s", got)
	}
}
