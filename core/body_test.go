package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEncodeBodyPassthroughs(t *testing.T) {
	encoded, err := EncodeBody(nil)
	if err != nil || encoded != nil {
		t.Fatalf("expected nil body to stay nil, got %#v (%v)", encoded, err)
	}

	raw := []byte(`{"a":1}`)
	encoded, err = EncodeBody(raw)
	if err != nil || string(encoded) != `{"a":1}` {
		t.Fatalf("expected byte passthrough, got %q (%v)", encoded, err)
	}

	encoded, err = EncodeBody(json.RawMessage(`[1,2]`))
	if err != nil || string(encoded) != `[1,2]` {
		t.Fatalf("expected raw message passthrough, got %q (%v)", encoded, err)
	}

	encoded, err = EncodeBody(`{"b":2}`)
	if err != nil || string(encoded) != `{"b":2}` {
		t.Fatalf("expected string passthrough, got %q (%v)", encoded, err)
	}
}

func TestEncodeBodyMarshalsStructs(t *testing.T) {
	encoded, err := EncodeBody(struct {
		Name string `json:"name"`
	}{Name: "ledger"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(encoded) != `{"name":"ledger"}` {
		t.Fatalf("unexpected encoding: %q", encoded)
	}
}

func TestNormalizeArrayShapedObjects(t *testing.T) {
	input := map[string]any{
		"lines": map[string]any{
			"0": map[string]any{"amount": 10},
			"1": map[string]any{"amount": 20},
		},
		"meta": map[string]any{"1": "x", "2": "y"},
	}

	normalized := NormalizeArrayShapedObjects(input).(map[string]any)

	lines, ok := normalized["lines"].([]any)
	if !ok {
		t.Fatalf("expected lines converted to slice, got %#v", normalized["lines"])
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	first := lines[0].(map[string]any)
	if first["amount"] != 10 {
		t.Fatalf("expected order preserved, got %#v", first)
	}

	// Keys starting at "1" are not a contiguous zero-based run.
	if _, ok := normalized["meta"].(map[string]any); !ok {
		t.Fatalf("expected non-contiguous map untouched, got %#v", normalized["meta"])
	}
}

func TestNormalizeArrayShapedObjectsLeavesRealShapesAlone(t *testing.T) {
	input := map[string]any{
		"plain": map[string]any{"a": 1},
		"list":  []any{1, 2, 3},
		"empty": map[string]any{},
	}
	normalized := NormalizeArrayShapedObjects(input)
	if !reflect.DeepEqual(normalized, input) {
		t.Fatalf("expected structure preserved, got %#v", normalized)
	}
}
