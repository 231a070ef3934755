package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-embedded-api/core"
	apimigrations "github.com/goliatone/go-embedded-api/migrations"
	sqlstore "github.com/goliatone/go-embedded-api/store/sql"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-embedded-api-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:embedded-api-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = apimigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != apimigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, apimigrations.WithValidationTargets(apimigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func newSQLiteStore(t *testing.T) (*sqlstore.CallLogStore, func()) {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	store, err := sqlstore.NewCallLogStore(client.DB())
	if err != nil {
		cleanup()
		t.Fatalf("new call log store: %v", err)
	}
	return store, cleanup
}

func storedEntry(requestID string, offset time.Duration) core.CallEntry {
	return core.CallEntry{
		RequestID:   requestID,
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Add(offset),
		Method:      "GET",
		URL:         "https://api.example.com/v1/things/" + requestID,
		Status:      200,
		StatusText:  "OK",
		FeatureArea: core.FeatureAreaTransactions,
	}
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"api_call_entries",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "api_call_entries" {
		t.Fatalf("expected api_call_entries table, got %q", tableName)
	}
}

func TestCallLogStore_AppendAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	body := `{"access_token":"tok","name":"a"}`
	entry := storedEntry("req-1", 0)
	entry.RequestHeaders = map[string]string{"Authorization": "Bearer tok", "Accept": "application/json"}
	entry.RequestBody = &body
	entry.TenantID = "tenant-1"
	entry.DurationMS = 120

	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("append entry: %v", err)
	}

	stored, err := store.ByRequestID(ctx, "req-1")
	if err != nil {
		t.Fatalf("lookup by request id: %v", err)
	}
	if stored.Method != "GET" || stored.Status != 200 || stored.TenantID != "tenant-1" {
		t.Fatalf("unexpected round trip: %#v", stored)
	}
	if stored.DurationMS != 120 {
		t.Fatalf("expected duration preserved, got %d", stored.DurationMS)
	}
	if stored.FeatureArea != core.FeatureAreaTransactions {
		t.Fatalf("unexpected feature area: %q", stored.FeatureArea)
	}
	if stored.RequestHeaders["Authorization"] != core.RedactedValue {
		t.Fatalf("expected persisted header redacted, got %#v", stored.RequestHeaders)
	}
	if stored.RequestHeaders["Accept"] != "application/json" {
		t.Fatalf("expected benign header preserved, got %#v", stored.RequestHeaders)
	}
	if stored.RequestBody == nil || *stored.RequestBody == body {
		t.Fatalf("expected persisted body redacted, got %#v", stored.RequestBody)
	}
}

func TestCallLogStore_AppendRequiresRequestID(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	if err := store.Append(ctx, core.CallEntry{Method: "GET"}); err == nil {
		t.Fatalf("expected error for missing request id")
	}
}

func TestCallLogStore_UniqueRequestID(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	if err := store.Append(ctx, storedEntry("req-1", 0)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.Append(ctx, storedEntry("req-1", time.Second)); err == nil {
		t.Fatalf("expected unique index violation for duplicate request id")
	}
}

func TestCallLogStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	for i, id := range []string{"old", "mid", "new"} {
		if err := store.Append(ctx, storedEntry(id, time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].RequestID != "new" || entries[2].RequestID != "old" {
		t.Fatalf("expected newest first, got %#v", entries)
	}
}

func TestCallLogStore_FilteredCombinations(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	match := storedEntry("match", 0)
	match.Status = 404
	match.TenantID = "t1"
	wrongArea := storedEntry("wrong-area", time.Minute)
	wrongArea.Status = 404
	wrongArea.TenantID = "t1"
	wrongArea.FeatureArea = core.FeatureAreaReports
	wrongStatus := storedEntry("wrong-status", 2*time.Minute)
	wrongStatus.TenantID = "t1"
	for _, entry := range []core.CallEntry{match, wrongArea, wrongStatus} {
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", entry.RequestID, err)
		}
	}

	min, max := 400, 499
	entries, err := store.Filtered(ctx, core.EntryFilter{
		URLContains: "/v1/things",
		StatusMin:   &min,
		StatusMax:   &max,
		FeatureArea: core.FeatureAreaTransactions,
		TenantID:    "t1",
	})
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(entries) != 1 || entries[0].RequestID != "match" {
		t.Fatalf("expected single match, got %#v", entries)
	}

	from := time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC)
	window, err := store.Filtered(ctx, core.EntryFilter{From: &from})
	if err != nil {
		t.Fatalf("filtered by time: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected 2 entries after cutoff, got %d", len(window))
	}
}

func TestCallLogStore_ByRequestIDNotFound(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	_, err := store.ByRequestID(ctx, "missing")
	if !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestCallLogStore_ClearAndCount(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	for i, id := range []string{"a", "b"} {
		if err := store.Append(ctx, storedEntry(id, time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	count, err := store.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d (%v)", count, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, err = store.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected count 0 after clear, got %d (%v)", count, err)
	}
}

func TestCallLogStore_PruneTTLAndRowCap(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newSQLiteStore(t)
	defer cleanup()

	stale := storedEntry("stale", 0)
	stale.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	if err := store.Append(ctx, stale); err != nil {
		t.Fatalf("append stale: %v", err)
	}
	for i, id := range []string{"f1", "f2", "f3"} {
		fresh := storedEntry(id, 0)
		fresh.Timestamp = time.Now().UTC().Add(time.Duration(i-3) * time.Minute)
		if err := store.Append(ctx, fresh); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	removed, err := store.Prune(ctx, core.RetentionPolicy{TTL: 24 * time.Hour, RowCap: 2})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows pruned, got %d", removed)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].RequestID != "f3" || entries[1].RequestID != "f2" {
		t.Fatalf("expected newest rows kept, got %#v", entries)
	}
}

func TestRepositoryFactory_BuildStoresFromPersistence(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.CallLogStore()
	if store == nil {
		t.Fatalf("expected call log store from factory")
	}
	if err := store.Append(context.Background(), storedEntry("req-factory", 0)); err != nil {
		t.Fatalf("append through factory store: %v", err)
	}

	provider, err := factory.BuildStores(nil)
	if err != nil {
		t.Fatalf("rebuild stores: %v", err)
	}
	if provider.CallLogStore() != store {
		t.Fatalf("expected factory to reuse the built store")
	}
}

func TestRepositoryFactory_BuildStoresFromDB(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromDB(client.DB())
	if err != nil {
		t.Fatalf("new repository factory from db: %v", err)
	}
	if factory.CallLogStore() == nil {
		t.Fatalf("expected call log store from raw db")
	}
}

func TestRepositoryFactory_RejectsUnknownClient(t *testing.T) {
	factory := sqlstore.NewRepositoryFactory()
	if _, err := factory.BuildStores("not a db"); err == nil {
		t.Fatalf("expected error for unsupported persistence client")
	}
}
