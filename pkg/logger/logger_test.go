package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestNewLogsComponentField(t *testing.T) {
	out := captureStdout(t, func() {
		log := New("ncfiledbd", DefaultConfig())
		log.Info("starting up")
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected a single JSON log line, got %q: %v", out, err)
	}
	if entry["component"] != "ncfiledbd" {
		t.Fatalf("expected component field ncfiledbd, got %v", entry["component"])
	}
	if entry["msg"] != "starting up" {
		t.Fatalf("expected msg field, got %v", entry["msg"])
	}
}

func TestNewWithNilConfigUsesDefault(t *testing.T) {
	log := New("test", nil)
	if log.Component() != "test" {
		t.Fatalf("expected component test, got %s", log.Component())
	}
}

func TestWithFieldAddsAttribute(t *testing.T) {
	out := captureStdout(t, func() {
		log := New("ncfiledbd", DefaultConfig())
		log = log.WithField("path", "/var/lib/ncfiledb/datastores.xml")
		log.Info("bootstrap")
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected valid JSON, got %q: %v", out, err)
	}
	if entry["path"] != "/var/lib/ncfiledb/datastores.xml" {
		t.Fatalf("expected path field, got %v", entry["path"])
	}
}

func TestErrorWithCauseIncludesCauseAndAction(t *testing.T) {
	out := captureStdout(t, func() {
		log := New("ncfiledbd", &Config{Level: slog.LevelInfo})
		log.ErrorWithCause("failed to open datastore", os.ErrPermission, "permission denied", "check file ownership")
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected valid JSON, got %q: %v", out, err)
	}
	if entry["cause"] != "permission denied" {
		t.Fatalf("expected cause field, got %v", entry["cause"])
	}
	if entry["action"] != "check file ownership" {
		t.Fatalf("expected action field, got %v", entry["action"])
	}
}
