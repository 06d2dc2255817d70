package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupJSONWritesStructuredRecords(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l, err := Setup(Config{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("Setup err: %v", err)
	}

	l.Debug("hello", "repo", "x/y")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "hello" {
		t.Fatalf("expected msg hello, got %v", record["msg"])
	}
	if record["service"] != "repochat" {
		t.Fatalf("expected service attr, got %v", record["service"])
	}
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	if _, err := Setup(Config{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := Setup(Config{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
