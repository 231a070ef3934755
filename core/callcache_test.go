package core

import "testing"

func TestCallCacheSetAndLatest(t *testing.T) {
	cache := NewCallCache()

	if _, ok := cache.Latest(FeatureAreaTransactions); ok {
		t.Fatalf("expected empty slot before any call")
	}

	cache.Set(CallEntry{ID: "1", RequestID: "r1", FeatureArea: FeatureAreaTransactions})
	cache.Set(CallEntry{ID: "2", RequestID: "r2", FeatureArea: FeatureAreaTransactions})

	entry, ok := cache.Latest(FeatureAreaTransactions)
	if !ok || entry.ID != "2" {
		t.Fatalf("expected latest write to win, got %#v (found=%v)", entry, ok)
	}
}

func TestCallCacheUnknownAreaFallsBackToOther(t *testing.T) {
	cache := NewCallCache()
	cache.Set(CallEntry{ID: "x", FeatureArea: FeatureArea("mystery")})

	entry, ok := cache.Latest(FeatureAreaOther)
	if !ok || entry.ID != "x" {
		t.Fatalf("expected unrecognized tag in other slot, got %#v (found=%v)", entry, ok)
	}
	if _, ok := cache.Latest(FeatureArea("mystery")); !ok {
		t.Fatalf("expected lookup with unknown area to read other slot")
	}
}

func TestCallCacheSnapshotAndClear(t *testing.T) {
	cache := NewCallCache()
	cache.Set(CallEntry{ID: "a", FeatureArea: FeatureAreaAuth})
	cache.Set(CallEntry{ID: "b", FeatureArea: FeatureAreaReports})

	snapshot := cache.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 populated slots, got %d", len(snapshot))
	}
	if snapshot[FeatureAreaAuth].ID != "a" || snapshot[FeatureAreaReports].ID != "b" {
		t.Fatalf("unexpected snapshot: %#v", snapshot)
	}

	cache.Clear()
	if len(cache.Snapshot()) != 0 {
		t.Fatalf("expected empty snapshot after clear")
	}
	if _, ok := cache.Latest(FeatureAreaAuth); ok {
		t.Fatalf("expected slot cleared")
	}
}

func TestCallCacheNilReceiver(t *testing.T) {
	var cache *CallCache
	cache.Set(CallEntry{ID: "x"})
	if _, ok := cache.Latest(FeatureAreaAuth); ok {
		t.Fatalf("expected nil cache to report no entries")
	}
	if len(cache.Snapshot()) != 0 {
		t.Fatalf("expected empty snapshot from nil cache")
	}
	cache.Clear()
}
