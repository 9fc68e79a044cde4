package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"gorm.io/gorm/logger"
)

func TestNew_JSONWithServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "lendledger", "test")
	l.Debug("hidden")
	l.Info("hello", slog.String("k", "v"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "lendledger" || rec["env"] != "test" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}
}

func TestLevels(t *testing.T) {
	if ParseLevel("WARNING") != slog.LevelWarn || ParseLevel("nope") != slog.LevelInfo {
		t.Fatal("ParseLevel mismatch")
	}
	if GormLevel("debug") != logger.Info || GormLevel("info") != logger.Warn || GormLevel("error") != logger.Error {
		t.Fatal("GormLevel mismatch")
	}
}
