package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryCallLogStore is the in-process fallback used when no persistence
// client is wired; the SQL store is the durable implementation. It applies
// the same redact-before-store guard and filter semantics.
type MemoryCallLogStore struct {
	mu      sync.RWMutex
	entries []CallEntry
	byReqID map[string]int
}

func NewMemoryCallLogStore() *MemoryCallLogStore {
	return &MemoryCallLogStore{byReqID: map[string]int{}}
}

func (s *MemoryCallLogStore) Append(_ context.Context, entry CallEntry) error {
	if s == nil {
		return fmt.Errorf("core: memory call log store is not configured")
	}
	entry = SanitizeEntry(entry)
	if strings.TrimSpace(entry.RequestID) == "" {
		return fmt.Errorf("core: call entry request id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byReqID[entry.RequestID]; exists {
		return fmt.Errorf("core: duplicate request id %q", entry.RequestID)
	}
	s.byReqID[entry.RequestID] = len(s.entries)
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryCallLogStore) List(_ context.Context) ([]CallEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory call log store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CallEntry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemoryCallLogStore) Filtered(ctx context.Context, filter EntryFilter) ([]CallEntry, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CallEntry, 0, len(all))
	for _, entry := range all {
		if filter.Matches(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *MemoryCallLogStore) ByRequestID(_ context.Context, requestID string) (CallEntry, error) {
	if s == nil {
		return CallEntry{}, fmt.Errorf("core: memory call log store is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.byReqID[requestID]
	if !ok {
		return CallEntry{}, fmt.Errorf("%w: %q", ErrEntryNotFound, requestID)
	}
	return s.entries[index], nil
}

func (s *MemoryCallLogStore) Clear(context.Context) error {
	if s == nil {
		return fmt.Errorf("core: memory call log store is not configured")
	}
	s.mu.Lock()
	s.entries = nil
	s.byReqID = map[string]int{}
	s.mu.Unlock()
	return nil
}

func (s *MemoryCallLogStore) Count(context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: memory call log store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryCallLogStore) Prune(_ context.Context, policy RetentionPolicy) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: memory call log store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]CallEntry, 0, len(s.entries))
	now := time.Now().UTC()
	for _, entry := range s.entries {
		if policy.TTL > 0 && entry.Timestamp.Before(now.Add(-policy.TTL)) {
			continue
		}
		kept = append(kept, entry)
	}
	if policy.RowCap > 0 && len(kept) > policy.RowCap {
		kept = kept[len(kept)-policy.RowCap:]
	}

	deleted := len(s.entries) - len(kept)
	s.entries = kept
	s.byReqID = make(map[string]int, len(kept))
	for i, entry := range kept {
		s.byReqID[entry.RequestID] = i
	}
	return deleted, nil
}

// Matches reports whether the entry satisfies every set predicate.
func (f EntryFilter) Matches(entry CallEntry) bool {
	if needle := strings.TrimSpace(f.URLContains); needle != "" {
		if !strings.Contains(entry.URL, needle) {
			return false
		}
	}
	if f.StatusMin != nil && entry.Status < *f.StatusMin {
		return false
	}
	if f.StatusMax != nil && entry.Status > *f.StatusMax {
		return false
	}
	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}
	if f.FeatureArea != "" && entry.FeatureArea != f.FeatureArea {
		return false
	}
	if tenant := strings.TrimSpace(f.TenantID); tenant != "" && entry.TenantID != tenant {
		return false
	}
	return true
}

// SanitizeEntry is the store-boundary guard: it re-runs redaction over an
// entry so that no store implementation can persist unmasked content even if
// handed a raw entry.
func SanitizeEntry(entry CallEntry) CallEntry {
	entry.RequestHeaders = RedactHeaders(entry.RequestHeaders)
	entry.ResponseHeaders = RedactHeaders(entry.ResponseHeaders)
	if entry.RequestBody != nil {
		redacted := RedactBody(*entry.RequestBody)
		entry.RequestBody = &redacted
	}
	if entry.ResponseBody != nil {
		redacted := RedactBody(*entry.ResponseBody)
		entry.ResponseBody = &redacted
	}
	return entry
}

var (
	_ CallLogStore  = (*MemoryCallLogStore)(nil)
	_ CallLogPruner = (*MemoryCallLogStore)(nil)
)
