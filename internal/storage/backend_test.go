package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/capsule-manager/capsule-manager/internal/config"
)

func TestOpenInMemory(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{StorageBackend: BackendInMemory})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*MemoryStorage); !ok {
		t.Fatalf("expected *MemoryStorage, got %T", store)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestOpenUnsupportedBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{StorageBackend: "redis"})
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestOpenRequiresDBURL(t *testing.T) {
	for _, backend := range []string{BackendMySQL, BackendPostgres, BackendSQLite} {
		_, err := Open(context.Background(), config.StorageConfig{StorageBackend: backend})
		if !errors.Is(err, ErrMissingDBURL) {
			t.Fatalf("%s: expected ErrMissingDBURL, got %v", backend, err)
		}
	}
}

func TestDataSourceName(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{
			name: "mysql url",
			cfg:  config.StorageConfig{StorageBackend: BackendMySQL, DBURL: "mysql://cm@db:3306/capsule"},
			want: "cm@tcp(db:3306)/capsule",
		},
		{
			name: "mysql url with password",
			cfg:  config.StorageConfig{StorageBackend: BackendMySQL, DBURL: "mysql://cm@db:3306/capsule", Password: "pw"},
			want: "cm:pw@tcp(db:3306)/capsule",
		},
		{
			name: "mysql native dsn",
			cfg:  config.StorageConfig{StorageBackend: BackendMySQL, DBURL: "cm:old@tcp(db:3306)/capsule", Password: "pw"},
			want: "cm:pw@tcp(db:3306)/capsule",
		},
		{
			name: "postgres url with password",
			cfg:  config.StorageConfig{StorageBackend: BackendPostgres, DBURL: "postgres://cm@db:5432/capsule?sslmode=disable", Password: "pw"},
			want: "postgres://cm:pw@db:5432/capsule?sslmode=disable",
		},
		{
			name: "postgres url without password",
			cfg:  config.StorageConfig{StorageBackend: BackendPostgres, DBURL: "postgres://cm@db/capsule"},
			want: "postgres://cm@db/capsule",
		},
		{
			name: "sqlite path",
			cfg:  config.StorageConfig{StorageBackend: BackendSQLite, DBURL: "/data/capsule.db", Password: "ignored"},
			want: "/data/capsule.db",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dataSourceName(tc.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDataSourceNameInvalid(t *testing.T) {
	_, err := dataSourceName(config.StorageConfig{StorageBackend: BackendPostgres, DBURL: "not a url"})
	if err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("expected invalid postgres url error, got %v", err)
	}
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.StorageConfig{
		StorageBackend: BackendSQLite,
		DBURL:          "file:" + filepath.Join(t.TempDir(), "capsule.db"),
	}

	store, err := Open(ctx, cfg)
	if err != nil {
		if strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite driver unavailable: %v", err)
		}
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	key := DataKey{ResourceURI: "secretflow://table/bob", Owner: "bob", Key: []byte{0, 1, 2, 3}}
	if err := store.PutDataKey(ctx, key); err != nil {
		t.Fatalf("PutDataKey returned error: %v", err)
	}
	key.Owner = "carol"
	if err := store.PutDataKey(ctx, key); err != nil {
		t.Fatalf("PutDataKey upsert returned error: %v", err)
	}

	got, err := store.GetDataKey(ctx, key.ResourceURI)
	if err != nil {
		t.Fatalf("GetDataKey returned error: %v", err)
	}
	if got.Owner != "carol" || string(got.Key) != string(key.Key) {
		t.Fatalf("unexpected data key %+v", got)
	}

	if err := store.DeleteDataKey(ctx, key.ResourceURI); err != nil {
		t.Fatalf("DeleteDataKey returned error: %v", err)
	}
	if _, err := store.GetDataKey(ctx, key.ResourceURI); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
