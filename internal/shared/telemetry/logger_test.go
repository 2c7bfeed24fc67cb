package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigureWritesToFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.log")
	Configure(FileSink{Path: path, MaxSizeMB: 1})
	t.Cleanup(func() { Configure(FileSink{}) })

	Warn("registry.counter.missing", map[string]any{"key": "registryNumber"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatalf("expected a log line")
	}
	var payload map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "registry.counter.missing" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["key"] != "registryNumber" {
		t.Fatalf("expected key field, got %v", payload["key"])
	}
}

func TestReservedFieldsNotOverridden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.log")
	Configure(FileSink{Path: path, MaxSizeMB: 1})
	t.Cleanup(func() { Configure(FileSink{}) })

	Info("upload.complete", map[string]any{"msg": "spoofed", "level": "debug"})

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["msg"] != "upload.complete" || payload["level"] != "info" {
		t.Fatalf("reserved fields overridden: %v", payload)
	}
}
