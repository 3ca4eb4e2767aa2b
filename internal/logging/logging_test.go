package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("info", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hidden")
	log.Info("job finished", zap.String("job", "a.js"))
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %q", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, `"job": "a.js"`) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewOff(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("off", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Error("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if _, _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
	lvl, ok, err := ParseLevel("")
	if err != nil || !ok || lvl.String() != DefaultLevel {
		t.Fatalf("ParseLevel(\"\") = %v %v %v", lvl, ok, err)
	}
}
