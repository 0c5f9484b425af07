// Package cache is the durable local key-value store that seeds the release
// table before chain confirmation: one release_<requestId> record per local
// creation, plus a single tblock entry used as the creation-scan hint.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Nkovaturient/blocklock-kit/internal/dbx"
)

type Cache struct {
	db dbx.DBTX
}

// New binds a cache to an existing DBTX. Callers that want a file-backed
// cache use Open instead.
func New(db dbx.DBTX) *Cache {
	return &Cache{db: db}
}

// Open opens (creating if needed) the SQLite cache at path and ensures the
// schema exists.
func Open(ctx context.Context, path string) (*Cache, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers over one file.
	db.SetMaxOpenConns(1)

	c := New(db)
	if err := c.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return c, db, nil
}

// Migrate creates the metadata table if missing.
func (c *Cache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate cache: %w", err)
	}
	return nil
}

// Get returns the value at key, or nil when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

// Set upserts key to value.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// List returns every key/value pair.
func (c *Cache) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
