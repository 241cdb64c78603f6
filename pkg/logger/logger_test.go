package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json.log")
	if err := os.WriteFile(path, []byte("old line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Init(Options{Level: "info", JSONFile: path, Truncate: true}); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer SetLogger(nil)

	Debug("скрыто")
	Info("Начат новый день", zap.String("date", "2025-03-03"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry after truncate, got %q", lines)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "Начат новый день" || entry["level"] != "INFO" || entry["date"] != "2025-03-03" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetLoggerWithoutInit(t *testing.T) {
	SetLogger(nil)
	if GetLogger() == nil {
		t.Fatal("expected nop logger")
	}
	Info("ничего не происходит")
}
