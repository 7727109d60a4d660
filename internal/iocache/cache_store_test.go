package iocache

import (
	"database/sql"
	"testing"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "query_cache", false},
		{"leading underscore", "_cache", false},
		{"digits", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"injection", "cache; DROP TABLE x", true},
		{"hyphen", "query-cache", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"query_cache"`, quoteTableName("query_cache", schema.SQLiteBackend))
	assert.Equal(t, `"query_cache"`, quoteTableName("query_cache", schema.PostgreSQLBackend))
	assert.Equal(t, "`query_cache`", quoteTableName("query_cache", schema.MySQLBackend))
}

func TestBind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	assert.Equal(t, q, bind(q, schema.SQLiteBackend))
	assert.Equal(t, q, bind(q, schema.MySQLBackend))
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", bind(q, schema.PostgreSQLBackend))
}

func TestGetUpsertQuery(t *testing.T) {
	assert.Contains(t, getUpsertQuery("query_cache", schema.SQLiteBackend), "INSERT OR REPLACE")
	assert.Contains(t, getUpsertQuery("query_cache", schema.MySQLBackend), "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, getUpsertQuery("query_cache", schema.PostgreSQLBackend), "ON CONFLICT (cache_key)")
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery("query_cache", schema.MySQLBackend), "LONGBLOB")
	assert.Contains(t, getCreateTableQuery("query_cache", schema.PostgreSQLBackend), "BYTEA")
	assert.Contains(t, getCreateTableQuery("query_cache", schema.SQLiteBackend), "BLOB NOT NULL")
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad name", schema.SQLiteBackend, ":memory:", 0)
	assert.Error(t, err)

	_, err = NewCacheStore(queryTable, schema.ClickHouseBackend, "", 0)
	assert.Error(t, err)
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(queryTable, schema.NoneBackend, "", time.Hour)
	require.NoError(t, err)

	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "none", status.Backend)
	assert.NoError(t, store.Close())
}

func TestCacheStoreSQLite(t *testing.T) {
	store, err := NewCacheStore(queryTable, schema.SQLiteBackend, ":memory:", time.Hour)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("fresh", []byte("a"), 1, now.Add(-time.Minute).Unix()))
	require.NoError(t, store.Set("stale", []byte("b"), 1, now.Add(-2*time.Hour).Unix()))

	value, version, ts, err := store.Get("fresh")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, now.Add(-time.Minute).Unix(), ts)

	// Upsert replaces in place
	require.NoError(t, store.Set("fresh", []byte("c"), 2, now.Unix()))
	value, version, _, err = store.Get("fresh")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), value)
	assert.Equal(t, 2, version)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, 1, status.ExpiredEntries)
	assert.Equal(t, now.Unix(), status.LastEntryTime.Unix())
	assert.Equal(t, now.Add(-2*time.Hour).Unix(), status.OldestEntryTime.Unix())
}

func TestCacheStoreStatusWithoutTTL(t *testing.T) {
	store, err := NewCacheStore(queryTable, schema.SQLiteBackend, ":memory:", 0)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("old", []byte("x"), 1, 1))
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalEntries)
	assert.Zero(t, status.ExpiredEntries, "entries never expire without a ttl")
}
