package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf)).With("service", "lstchaind")
	logger.Info("ledger started", "pool", 7)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["severity"] != "INFO" {
		t.Fatalf("severity attribute: %v", line["severity"])
	}
	if line["message"] != "ledger started" {
		t.Fatalf("message attribute: %v", line["message"])
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatal("timestamp attribute missing")
	}
	if line["service"] != "lstchaind" {
		t.Fatalf("service attribute: %v", line["service"])
	}
}
