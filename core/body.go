package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// EncodeBody serializes a request body for transport. Raw byte payloads pass
// through untouched; everything else is JSON-marshalled after a defensive
// normalization pass at this system boundary.
func EncodeBody(body any) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return []byte(typed), nil
	case string:
		return []byte(typed), nil
	}
	encoded, err := json.Marshal(NormalizeArrayShapedObjects(body))
	if err != nil {
		return nil, fmt.Errorf("core: encode request body: %w", err)
	}
	return encoded, nil
}

// NormalizeArrayShapedObjects walks untyped structures and re-emits any map
// whose keys are exactly "0","1",...,"n-1" as a slice. Upstream serializers
// occasionally turn arrays into indexed objects; typed request models avoid
// this, so the pass only matters for map-based external input.
func NormalizeArrayShapedObjects(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if indices, ok := arrayShapedKeys(typed); ok {
			out := make([]any, len(indices))
			for i, key := range indices {
				out[i] = NormalizeArrayShapedObjects(typed[key])
			}
			return out
		}
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = NormalizeArrayShapedObjects(nested)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = NormalizeArrayShapedObjects(typed[i])
		}
		return out
	default:
		return value
	}
}

// arrayShapedKeys returns the map's keys ordered "0".."n-1" when, and only
// when, they form that exact contiguous run.
func arrayShapedKeys(source map[string]any) ([]string, bool) {
	if len(source) == 0 {
		return nil, false
	}
	indices := make([]int, 0, len(source))
	for key := range source {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 {
			return nil, false
		}
		if key != strconv.Itoa(index) {
			return nil, false
		}
		indices = append(indices, index)
	}
	sort.Ints(indices)
	keys := make([]string, len(indices))
	for i, index := range indices {
		if index != i {
			return nil, false
		}
		keys[i] = strconv.Itoa(index)
	}
	return keys, true
}
