package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-embedded-api/core"
)

const callEntryCacheKeyPrefix = "go-embedded-api::call_entry::v1"
const callCountCacheKey = "go-embedded-api::call_count::v1"

// CachedCallLogStore layers read caching over a base store for the hot
// lookups: by-request-id and count. Writes invalidate what they touch.
type CachedCallLogStore struct {
	base  core.CallLogStore
	cache repositorycache.CacheService

	mu   sync.Mutex
	keys map[string]struct{}
}

func NewCachedCallLogStore(
	base core.CallLogStore,
	cacheService repositorycache.CacheService,
) (*CachedCallLogStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base call log store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: call log cache service is required")
	}
	return &CachedCallLogStore{
		base:  base,
		cache: cacheService,
		keys:  map[string]struct{}{},
	}, nil
}

// CallEntryCacheKey is the deterministic cache key contract for by-request-id
// reads: go-embedded-api::call_entry::v1::<request_id> with the id URL-path
// escaped.
func CallEntryCacheKey(requestID string) (string, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return "", fmt.Errorf("sqlstore: request id is required")
	}
	return callEntryCacheKeyPrefix + "::" + url.PathEscape(requestID), nil
}

func (s *CachedCallLogStore) Append(ctx context.Context, entry core.CallEntry) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	if err := s.base.Append(ctx, entry); err != nil {
		return err
	}
	// a fresh append changes the count and may shadow a stale not-found
	if cacheKey, err := CallEntryCacheKey(entry.RequestID); err == nil {
		s.dropKey(ctx, cacheKey)
	}
	s.dropKey(ctx, callCountCacheKey)
	return nil
}

func (s *CachedCallLogStore) List(ctx context.Context) ([]core.CallEntry, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	return s.base.List(ctx)
}

func (s *CachedCallLogStore) Filtered(ctx context.Context, filter core.EntryFilter) ([]core.CallEntry, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	return s.base.Filtered(ctx, filter)
}

func (s *CachedCallLogStore) ByRequestID(ctx context.Context, requestID string) (core.CallEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.CallEntry{}, fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	cacheKey, err := CallEntryCacheKey(requestID)
	if err != nil {
		return core.CallEntry{}, err
	}
	s.trackKey(cacheKey)
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.CallEntry, error) {
		return s.base.ByRequestID(ctx, requestID)
	})
}

func (s *CachedCallLogStore) Clear(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	if err := s.base.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	tracked := make([]string, 0, len(s.keys))
	for key := range s.keys {
		tracked = append(tracked, key)
	}
	s.keys = map[string]struct{}{}
	s.mu.Unlock()
	for _, key := range tracked {
		_ = s.cache.Delete(ctx, key)
	}
	_ = s.cache.Delete(ctx, callCountCacheKey)
	return nil
}

func (s *CachedCallLogStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, callCountCacheKey, func(ctx context.Context) (int, error) {
		return s.base.Count(ctx)
	})
}

func (s *CachedCallLogStore) Prune(ctx context.Context, policy core.RetentionPolicy) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached call log store is not configured")
	}
	pruner, ok := s.base.(core.CallLogPruner)
	if !ok {
		return 0, nil
	}
	removed, err := pruner.Prune(ctx, policy)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		s.dropKey(ctx, callCountCacheKey)
	}
	return removed, nil
}

func (s *CachedCallLogStore) trackKey(key string) {
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
}

func (s *CachedCallLogStore) dropKey(ctx context.Context, key string) {
	_ = s.cache.Delete(ctx, key)
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}
