package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportDocument renders the call log as a pretty-printed JSON array plus the
// date-stamped filename the document should be saved under.
func ExportDocument(entries []CallEntry, now time.Time) (filename string, payload []byte, err error) {
	if entries == nil {
		entries = []CallEntry{}
	}
	payload, err = json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("core: export marshal failed: %w", err)
	}
	filename = fmt.Sprintf("api-log-%s.json", now.UTC().Format("2006-01-02"))
	return filename, payload, nil
}
