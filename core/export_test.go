package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestExportDocument(t *testing.T) {
	now := time.Date(2024, 5, 8, 1, 30, 0, 0, time.FixedZone("plus2", 2*60*60))
	entries := []CallEntry{{ID: "1", RequestID: "r1", Method: "GET", Status: 200}}

	filename, payload, err := ExportDocument(entries, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The filename stamps the UTC date, not the local one.
	if filename != "api-log-2024-05-07.json" {
		t.Fatalf("unexpected filename: %q", filename)
	}

	var decoded []CallEntry
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if len(decoded) != 1 || decoded[0].RequestID != "r1" {
		t.Fatalf("unexpected payload: %#v", decoded)
	}
}

func TestExportDocumentEmptyLogIsEmptyArray(t *testing.T) {
	_, payload, err := ExportDocument(nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != "[]" {
		t.Fatalf("expected empty array, got %q", payload)
	}
}
