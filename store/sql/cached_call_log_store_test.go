package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-embedded-api/core"
)

type stubCallLogStore struct {
	mu             sync.Mutex
	entries        map[string]core.CallEntry
	byRequestCalls int
	countCalls     int
	pruneRemoved   int
}

func newStubCallLogStore() *stubCallLogStore {
	return &stubCallLogStore{entries: map[string]core.CallEntry{}}
}

func (s *stubCallLogStore) Append(_ context.Context, entry core.CallEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RequestID] = entry
	return nil
}

func (s *stubCallLogStore) List(context.Context) ([]core.CallEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CallEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (s *stubCallLogStore) Filtered(ctx context.Context, _ core.EntryFilter) ([]core.CallEntry, error) {
	return s.List(ctx)
}

func (s *stubCallLogStore) ByRequestID(_ context.Context, requestID string) (core.CallEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRequestCalls++
	entry, ok := s.entries[requestID]
	if !ok {
		return core.CallEntry{}, core.ErrEntryNotFound
	}
	return entry, nil
}

func (s *stubCallLogStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string]core.CallEntry{}
	return nil
}

func (s *stubCallLogStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	return len(s.entries), nil
}

func (s *stubCallLogStore) Prune(context.Context, core.RetentionPolicy) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneRemoved, nil
}

func newTestCallLogCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func cachedEntry(requestID string) core.CallEntry {
	return core.CallEntry{
		ID:        requestID,
		RequestID: requestID,
		Method:    "GET",
		Status:    200,
		Timestamp: time.Now().UTC(),
	}
}

func TestCachedCallLogStore_ByRequestID_MissFetchThenHit(t *testing.T) {
	base := newStubCallLogStore()
	store, err := NewCachedCallLogStore(base, newTestCallLogCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	if err := store.Append(context.Background(), cachedEntry("req-1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := store.ByRequestID(context.Background(), "req-1"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if base.byRequestCalls != 1 {
		t.Fatalf("expected first lookup to hit base once, got %d", base.byRequestCalls)
	}

	if _, err := store.ByRequestID(context.Background(), "req-1"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if base.byRequestCalls != 1 {
		t.Fatalf("expected second lookup served from cache, base calls=%d", base.byRequestCalls)
	}
}

func TestCachedCallLogStore_AppendInvalidatesEntryAndCount(t *testing.T) {
	base := newStubCallLogStore()
	store, err := NewCachedCallLogStore(base, newTestCallLogCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	// Prime the count cache, then append and expect a fresh read.
	count, err := store.Count(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("expected empty count, got %d (%v)", count, err)
	}
	if err := store.Append(context.Background(), cachedEntry("req-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	count, err = store.Count(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("expected count refreshed after append, got %d (%v)", count, err)
	}
	if base.countCalls != 2 {
		t.Fatalf("expected append to invalidate count key, base count calls=%d", base.countCalls)
	}

	// A cached not-found must not outlive a later append for the same id.
	if _, err := store.ByRequestID(context.Background(), "req-2"); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Append(context.Background(), cachedEntry("req-2")); err != nil {
		t.Fatalf("append req-2: %v", err)
	}
	if _, err := store.ByRequestID(context.Background(), "req-2"); err != nil {
		t.Fatalf("expected entry visible after append, got %v", err)
	}
}

func TestCachedCallLogStore_ClearDropsTrackedKeys(t *testing.T) {
	base := newStubCallLogStore()
	store, err := NewCachedCallLogStore(base, newTestCallLogCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	if err := store.Append(context.Background(), cachedEntry("req-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.ByRequestID(context.Background(), "req-1"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.ByRequestID(context.Background(), "req-1"); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected cache invalidated by clear, got %v", err)
	}
}

func TestCachedCallLogStore_PruneInvalidatesCountWhenRowsRemoved(t *testing.T) {
	base := newStubCallLogStore()
	base.pruneRemoved = 3
	store, err := NewCachedCallLogStore(base, newTestCallLogCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if _, err := store.Count(context.Background()); err != nil {
		t.Fatalf("prime count: %v", err)
	}
	removed, err := store.Prune(context.Background(), core.RetentionPolicy{RowCap: 1})
	if err != nil || removed != 3 {
		t.Fatalf("expected prune delegation, got %d (%v)", removed, err)
	}
	if _, err := store.Count(context.Background()); err != nil {
		t.Fatalf("count after prune: %v", err)
	}
	if base.countCalls != 2 {
		t.Fatalf("expected count refetched after prune, base calls=%d", base.countCalls)
	}
}

func TestCallEntryCacheKeyEscapesRequestID(t *testing.T) {
	key, err := CallEntryCacheKey("req/with space")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-embedded-api::call_entry::v1::req%2Fwith%20space" {
		t.Fatalf("unexpected cache key: %q", key)
	}
	if _, err := CallEntryCacheKey("  "); err == nil {
		t.Fatalf("expected error for empty request id")
	}
}
