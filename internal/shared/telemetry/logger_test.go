package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	Warn("ingest.orphaned_object", map[string]any{"file_handle": "abc/1_doc.pdf"})

	line := strings.TrimSpace(buf.String())
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "ingest.orphaned_object" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["file_handle"] != "abc/1_doc.pdf" {
		t.Fatalf("missing field: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}
