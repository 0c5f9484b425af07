package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	c := New(db)
	require.NoError(t, c.Migrate(context.Background()))
	return c
}

func TestCache_GetSetDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "absent key yields nil, not an error")

	require.NoError(t, c.Set(ctx, "k", []byte("v1")))
	require.NoError(t, c.Set(ctx, "k", []byte("v2")), "set is an upsert")

	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Delete(ctx, "k"), "double delete is fine")
}

func TestCache_SeedRecords(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	rec := &SeedRecord{
		RequestID:      "123456789",
		TargetBlock:    500,
		CreatedAt:      time.Unix(1700000000, 0).UTC(),
		CreatedAtBlock: 100,
		TxHash:         "0xdeadbeef",
	}
	require.NoError(t, c.SaveRelease(ctx, rec))

	// Unrelated keys must not leak into the release listing.
	require.NoError(t, c.Set(ctx, "tblock", []byte("100")))

	records, err := c.Releases(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])

	require.NoError(t, c.DeleteRelease(ctx, rec.RequestID))
	records, err = c.Releases(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCache_SaveRelease_RequiresRequestID(t *testing.T) {
	c := setupCache(t)
	assert.Error(t, c.SaveRelease(context.Background(), &SeedRecord{}))
}

func TestCache_CorruptSeedIsSkipped(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "release_1", []byte("{not json")))
	require.NoError(t, c.SaveRelease(ctx, &SeedRecord{RequestID: "2", TargetBlock: 7}))

	records, err := c.Releases(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].RequestID)
}

func TestCache_TargetBlockHint(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	_, ok, err := c.TargetBlockHint(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "hint starts unset")

	require.NoError(t, c.SaveTargetBlockHint(ctx, 424242))

	block, ok, err := c.TargetBlockHint(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(424242), block)

	// Corrupt entry surfaces as an error, not a silent zero.
	require.NoError(t, c.Set(ctx, "tblock", []byte("bogus")))
	_, _, err = c.TargetBlockHint(ctx)
	assert.Error(t, err)
}

func TestOpen_CreatesFileBackedCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, db, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
