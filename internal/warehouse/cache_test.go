package warehouse

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowCodecKeepsTypes(t *testing.T) {
	ts := time.Date(2012, 1, 15, 10, 0, 0, 0, time.UTC)
	rows := []schema.Row{{
		"person_id": "u-alice",
		"raw":       []byte("u-bob"),
		"firstdate": ts,
		"count":     int64(3),
		"small":     int32(7),
		"unsigned":  uint64(9),
		"ratio":     1.5,
		"flag":      true,
		"missing":   nil,
	}}

	data, err := encodeRows(rows)
	require.NoError(t, err)
	got, err := decodeRows(data)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "u-alice", got[0]["person_id"])
	assert.Equal(t, []byte("u-bob"), got[0]["raw"])
	assert.Equal(t, ts, got[0]["firstdate"])
	assert.Equal(t, int64(3), got[0]["count"])
	assert.Equal(t, int64(7), got[0]["small"])
	assert.Equal(t, uint64(9), got[0]["unsigned"])
	assert.Equal(t, 1.5, got[0]["ratio"])
	assert.Equal(t, true, got[0]["flag"])
	assert.Nil(t, got[0]["missing"])
}

func TestEncodeRejectsUnknownTypes(t *testing.T) {
	_, err := encodeRows([]schema.Row{{"x": struct{}{}}})
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	a := schema.Statement{SQL: "SELECT 1 WHERE x = ?", Args: []any{1}}
	b := schema.Statement{SQL: "SELECT 1 WHERE x = ?", Args: []any{"1"}}

	assert.Equal(t, cacheKey(schema.SQLiteBackend, "a.db", a), cacheKey(schema.SQLiteBackend, "a.db", a))
	assert.NotEqual(t, cacheKey(schema.SQLiteBackend, "a.db", a), cacheKey(schema.SQLiteBackend, "a.db", b))
	assert.NotEqual(t, cacheKey(schema.SQLiteBackend, "a.db", a), cacheKey(schema.MySQLBackend, "a.db", a))
	assert.NotEqual(t, cacheKey(schema.SQLiteBackend, "a.db", a), cacheKey(schema.SQLiteBackend, "b.db", a))
	assert.Len(t, cacheKey(schema.SQLiteBackend, "a.db", a), 64)
}

func TestDSNIdentity(t *testing.T) {
	abs, err := filepath.Abs("tenure.db")
	require.NoError(t, err)
	assert.Equal(t, abs, dsnIdentity(schema.SQLiteBackend, "tenure.db"))
	assert.Equal(t, abs, dsnIdentity(schema.SQLiteBackend, "file:tenure.db?_pragma=busy_timeout(5000)"))
	assert.Empty(t, dsnIdentity(schema.SQLiteBackend, ":memory:"))
	assert.Empty(t, dsnIdentity(schema.SQLiteBackend, "file:fixture?mode=memory&cache=shared"))

	dsn := "root:secret@tcp(db:3306)/tenure"
	assert.Equal(t, dsn, dsnIdentity(schema.MySQLBackend, dsn))
}

func TestWithParseTime(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h:3306)/db?parseTime=true", withParseTime("u:p@tcp(h:3306)/db"))
	assert.Equal(t, "u:p@tcp(h:3306)/db?tls=false&parseTime=true", withParseTime("u:p@tcp(h:3306)/db?tls=false"))
	assert.Equal(t, "u:p@tcp(h:3306)/db?parseTime=false", withParseTime("u:p@tcp(h:3306)/db?parseTime=false"))
}
