package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"
)

// PostgresConfig is the minimal connection config for a postgres-backed call
// log. It satisfies the persistence client's config contract.
type PostgresConfig struct {
	DSN         string
	Debug       bool
	PingTimeout time.Duration
	Identifier  string
}

func (c PostgresConfig) GetDebug() bool {
	return c.Debug
}

func (c PostgresConfig) GetDriver() string {
	return "postgres"
}

func (c PostgresConfig) GetServer() string {
	return strings.TrimSpace(c.DSN)
}

func (c PostgresConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout > 0 {
		return c.PingTimeout
	}
	return 5 * time.Second
}

func (c PostgresConfig) GetOtelIdentifier() string {
	if strings.TrimSpace(c.Identifier) != "" {
		return strings.TrimSpace(c.Identifier)
	}
	return "go-embedded-api"
}

// NewPostgresClient opens a postgres-backed persistence client. The caller
// still registers the migration filesystems and runs Migrate.
func NewPostgresClient(cfg PostgresConfig) (*persistence.Client, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres: %w", err)
	}
	client, err := persistence.New(cfg, sqlDB, pgdialect.New())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	return client, nil
}
