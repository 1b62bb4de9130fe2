package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const dataKeysTable = "data_keys"

// SQLStorage stores data keys in a relational database. Keys are kept base64
// encoded so one schema serves every supported dialect.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
}

// newSQLStorage wraps an open database. The schema must already exist.
func newSQLStorage(db *sql.DB, d dialect) *SQLStorage {
	return &SQLStorage{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}
}

func (s *SQLStorage) GetDataKey(ctx context.Context, resourceURI string) (DataKey, error) {
	query, args, err := s.builder.
		Select("owner", "data_key").
		From(dataKeysTable).
		Where(sq.Eq{"resource_uri": resourceURI}).
		ToSql()
	if err != nil {
		return DataKey{}, fmt.Errorf("build select query: %w", err)
	}

	var owner, encoded string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&owner, &encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return DataKey{}, ErrNotFound
	}
	if err != nil {
		return DataKey{}, fmt.Errorf("select data key: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return DataKey{}, fmt.Errorf("decode data key: %w", err)
	}
	return DataKey{ResourceURI: resourceURI, Owner: owner, Key: key}, nil
}

func (s *SQLStorage) PutDataKey(ctx context.Context, key DataKey) error {
	if err := validate(key); err != nil {
		return err
	}

	query, args, err := s.builder.
		Insert(dataKeysTable).
		Columns("resource_uri", "owner", "data_key").
		Values(key.ResourceURI, key.Owner, base64.StdEncoding.EncodeToString(key.Key)).
		Suffix(s.dialect.upsert).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert data key: %w", err)
	}
	return nil
}

func (s *SQLStorage) DeleteDataKey(ctx context.Context, resourceURI string) error {
	query, args, err := s.builder.
		Delete(dataKeysTable).
		Where(sq.Eq{"resource_uri": resourceURI}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete data key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete data key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
