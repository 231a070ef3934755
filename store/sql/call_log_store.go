package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-embedded-api/core"
)

// CallLogStore persists redacted call entries through bun. Entries are
// append-only; the only mutations are Clear and retention pruning.
type CallLogStore struct {
	db   *bun.DB
	repo repository.Repository[*callEntryRecord]
}

func NewCallLogStore(db *bun.DB) (*CallLogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*callEntryRecord](db, callEntryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid call log repository wiring: %w", err)
		}
	}
	return &CallLogStore{db: db, repo: repo}, nil
}

func (s *CallLogStore) Append(ctx context.Context, entry core.CallEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: call log store is not configured")
	}
	if strings.TrimSpace(entry.RequestID) == "" {
		return fmt.Errorf("sqlstore: call entry request id is required")
	}
	// store boundary guard: never trust the caller to have redacted
	entry = core.SanitizeEntry(entry)

	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.Timestamp.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &callEntryRecord{
		ID:              id,
		RequestID:       strings.TrimSpace(entry.RequestID),
		Method:          strings.TrimSpace(entry.Method),
		URL:             strings.TrimSpace(entry.URL),
		Status:          entry.Status,
		StatusText:      strings.TrimSpace(entry.StatusText),
		DurationMS:      entry.DurationMS,
		RequestHeaders:  copyStringMap(entry.RequestHeaders),
		RequestBody:     entry.RequestBody,
		ResponseHeaders: copyStringMap(entry.ResponseHeaders),
		ResponseBody:    entry.ResponseBody,
		TenantID:        strings.TrimSpace(entry.TenantID),
		FeatureArea:     string(core.ParseFeatureArea(string(entry.FeatureArea))),
		ErrorMessage:    strings.TrimSpace(entry.Error),
		CreatedAt:       createdAt,
	}

	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *CallLogStore) List(ctx context.Context) ([]core.CallEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: call log store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at DESC"))
	if err != nil {
		return nil, err
	}
	entries := make([]core.CallEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, recordToEntry(record))
	}
	return entries, nil
}

func (s *CallLogStore) Filtered(ctx context.Context, filter core.EntryFilter) ([]core.CallEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: call log store is not configured")
	}
	var records []*callEntryRecord
	query := s.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if urlContains := strings.TrimSpace(filter.URLContains); urlContains != "" {
		query = query.Where("url LIKE ?", "%"+urlContains+"%")
	}
	if filter.StatusMin != nil {
		query = query.Where("status >= ?", *filter.StatusMin)
	}
	if filter.StatusMax != nil {
		query = query.Where("status <= ?", *filter.StatusMax)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}
	if area := strings.TrimSpace(string(filter.FeatureArea)); area != "" {
		query = query.Where("feature_area = ?", area)
	}
	if tenantID := strings.TrimSpace(filter.TenantID); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]core.CallEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, recordToEntry(record))
	}
	return entries, nil
}

func (s *CallLogStore) ByRequestID(ctx context.Context, requestID string) (core.CallEntry, error) {
	if s == nil || s.db == nil {
		return core.CallEntry{}, fmt.Errorf("sqlstore: call log store is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return core.CallEntry{}, fmt.Errorf("sqlstore: request id is required")
	}
	record := &callEntryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("request_id = ?", requestID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CallEntry{}, fmt.Errorf("sqlstore: entry %q: %w", requestID, core.ErrEntryNotFound)
		}
		return core.CallEntry{}, err
	}
	return recordToEntry(record), nil
}

func (s *CallLogStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: call log store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*callEntryRecord)(nil)).
		Where("1 = 1").
		Exec(ctx)
	return err
}

func (s *CallLogStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: call log store is not configured")
	}
	return s.db.NewSelect().Model((*callEntryRecord)(nil)).Count(ctx)
}

func (s *CallLogStore) Prune(ctx context.Context, policy core.RetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: call log store is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if policy.TTL > 0 {
		cutoff := now.Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*callEntryRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*callEntryRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM api_call_entries WHERE id IN (SELECT id FROM api_call_entries ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func recordToEntry(record *callEntryRecord) core.CallEntry {
	if record == nil {
		return core.CallEntry{}
	}
	return core.CallEntry{
		ID:              strings.TrimSpace(record.ID),
		RequestID:       strings.TrimSpace(record.RequestID),
		Timestamp:       record.CreatedAt.UTC(),
		Method:          strings.TrimSpace(record.Method),
		URL:             strings.TrimSpace(record.URL),
		Status:          record.Status,
		StatusText:      strings.TrimSpace(record.StatusText),
		DurationMS:      record.DurationMS,
		RequestHeaders:  copyStringMap(record.RequestHeaders),
		RequestBody:     record.RequestBody,
		ResponseHeaders: copyStringMap(record.ResponseHeaders),
		ResponseBody:    record.ResponseBody,
		TenantID:        strings.TrimSpace(record.TenantID),
		FeatureArea:     core.ParseFeatureArea(record.FeatureArea),
		Error:           strings.TrimSpace(record.ErrorMessage),
	}
}

func copyStringMap(input map[string]string) map[string]string {
	if len(input) == 0 {
		return map[string]string{}
	}
	output := make(map[string]string, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}
