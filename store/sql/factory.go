package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-embedded-api/core"
)

// RepositoryFactory builds the durable stores from a persistence client or a
// raw bun handle, caching them for reuse.
type RepositoryFactory struct {
	db *bun.DB

	cacheService repositorycache.CacheService

	callLogStore core.CallLogStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithCacheService makes BuildStores wrap the call log store with read
// caching. Must be set before the first BuildStores call.
func (f *RepositoryFactory) WithCacheService(cacheService repositorycache.CacheService) *RepositoryFactory {
	if f == nil {
		return nil
	}
	f.cacheService = cacheService
	return f
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.CallLogStoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.callLogStore != nil {
		return f, nil
	}

	store, err := NewCallLogStore(f.db)
	if err != nil {
		return nil, err
	}
	if f.cacheService != nil {
		cached, err := NewCachedCallLogStore(store, f.cacheService)
		if err != nil {
			return nil, err
		}
		f.callLogStore = cached
	} else {
		f.callLogStore = store
	}
	return f, nil
}

func (f *RepositoryFactory) CallLogStore() core.CallLogStore {
	if f == nil {
		return nil
	}
	return f.callLogStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var (
	_ core.CallLogStoreFactory  = (*RepositoryFactory)(nil)
	_ core.CallLogStoreProvider = (*RepositoryFactory)(nil)
	_ core.CallLogStore         = (*CallLogStore)(nil)
	_ core.CallLogPruner        = (*CallLogStore)(nil)
	_ core.CallLogStore         = (*CachedCallLogStore)(nil)
	_ core.CallLogPruner        = (*CachedCallLogStore)(nil)
)
