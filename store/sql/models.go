package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type callEntryRecord struct {
	bun.BaseModel `bun:"table:api_call_entries,alias:ace"`

	ID              string            `bun:"id,pk"`
	RequestID       string            `bun:"request_id,notnull"`
	Method          string            `bun:"method,notnull"`
	URL             string            `bun:"url,notnull"`
	Status          int               `bun:"status,notnull"`
	StatusText      string            `bun:"status_text"`
	DurationMS      int64             `bun:"duration_ms,notnull"`
	RequestHeaders  map[string]string `bun:"request_headers,type:jsonb,notnull"`
	RequestBody     *string           `bun:"request_body"`
	ResponseHeaders map[string]string `bun:"response_headers,type:jsonb,notnull"`
	ResponseBody    *string           `bun:"response_body"`
	TenantID        string            `bun:"tenant_id"`
	FeatureArea     string            `bun:"feature_area,notnull"`
	ErrorMessage    string            `bun:"error_message"`
	CreatedAt       time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
