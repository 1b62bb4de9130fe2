package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/capsule-manager/capsule-manager/internal/config"
	"github.com/capsule-manager/capsule-manager/internal/storage/migrations"
)

// Backend names accepted in storage_config.storage_backend.
const (
	BackendInMemory = "inmemory"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

var (
	// ErrUnsupportedBackend indicates an unknown storage_backend value.
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
	// ErrMissingDBURL indicates a database backend was selected without a db_url.
	ErrMissingDBURL = errors.New("storage backend requires db_url")
)

// dialect captures what differs between SQL backends.
type dialect struct {
	driver      string
	goose       string
	placeholder sq.PlaceholderFormat
	upsert      string
}

var (
	mysqlDialect = dialect{
		driver:      "mysql",
		goose:       "mysql",
		placeholder: sq.Question,
		upsert:      "ON DUPLICATE KEY UPDATE owner = VALUES(owner), data_key = VALUES(data_key)",
	}
	postgresDialect = dialect{
		driver:      "pgx",
		goose:       "postgres",
		placeholder: sq.Dollar,
		upsert:      "ON CONFLICT (resource_uri) DO UPDATE SET owner = EXCLUDED.owner, data_key = EXCLUDED.data_key",
	}
	sqliteDialect = dialect{
		driver:      "sqlite3",
		goose:       "sqlite3",
		placeholder: sq.Question,
		upsert:      "ON CONFLICT (resource_uri) DO UPDATE SET owner = excluded.owner, data_key = excluded.data_key",
	}
)

// Open returns the storage selected by cfg.StorageBackend. Database backends
// are connected, pinged and migrated before they are returned.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	var d dialect
	switch cfg.StorageBackend {
	case BackendInMemory:
		return NewMemoryStorage(), nil
	case BackendMySQL:
		d = mysqlDialect
	case BackendPostgres:
		d = postgresDialect
	case BackendSQLite:
		d = sqliteDialect
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.StorageBackend)
	}

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.StorageBackend, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.StorageBackend, err)
	}
	if err := migrations.Migrate(ctx, db, d.goose); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newSQLStorage(db, d), nil
}

// dataSourceName builds the driver DSN from db_url, injecting password when
// it is set.
func dataSourceName(cfg config.StorageConfig) (string, error) {
	if cfg.DBURL == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingDBURL, cfg.StorageBackend)
	}

	switch cfg.StorageBackend {
	case BackendMySQL:
		return mysqlDSN(cfg.DBURL, cfg.Password)
	case BackendPostgres:
		u, err := url.Parse(cfg.DBURL)
		if err != nil || u.Scheme == "" {
			return "", fmt.Errorf("invalid postgres db_url: %q", cfg.DBURL)
		}
		if cfg.Password != "" {
			u.User = url.UserPassword(u.User.Username(), cfg.Password)
		}
		return u.String(), nil
	default:
		return cfg.DBURL, nil
	}
}

// mysqlDSN accepts either a mysql:// URL or a native driver DSN.
func mysqlDSN(raw, password string) (string, error) {
	var mcfg *mysql.Config
	if strings.HasPrefix(raw, "mysql://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid mysql db_url: %w", err)
		}
		mcfg = mysql.NewConfig()
		mcfg.Net = "tcp"
		mcfg.Addr = u.Host
		mcfg.DBName = strings.TrimPrefix(u.Path, "/")
		if u.User != nil {
			mcfg.User = u.User.Username()
			mcfg.Passwd, _ = u.User.Password()
		}
	} else {
		parsed, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("invalid mysql db_url: %w", err)
		}
		mcfg = parsed
	}

	if password != "" {
		mcfg.Passwd = password
	}
	return mcfg.FormatDSN(), nil
}
