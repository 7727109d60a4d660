package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseCaching()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		historyPath := filepath.Join(dir, "history.db")

		err := InitCaching(schema.SQLiteBackend, cachePath, time.Hour, schema.SQLiteBackend, historyPath)
		require.NoError(t, err)
		require.NotNil(t, Manager.GetQueryStore())
		require.NotNil(t, Manager.GetHistoryStore())

		CloseCaching()
		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "cache file should be created")
		_, err = os.Stat(historyPath)
		assert.NoError(t, err, "history file should be created")
	})

	t.Run("idempotent", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		for range 3 {
			err := InitCaching(schema.NoneBackend, "", 0, schema.SQLiteBackend, filepath.Join(dir, "h.db"))
			assert.NoError(t, err)
		}
		CloseCaching()
		CloseCaching()
	})

	t.Run("unset backends", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitCaching("", "", 0, "", ""))
		assert.Nil(t, Manager.GetQueryStore())
		assert.Nil(t, Manager.GetHistoryStore())
	})

	t.Run("bad history closes cache", func(t *testing.T) {
		resetManager(t)
		err := InitCaching(schema.SQLiteBackend, filepath.Join(t.TempDir(), "c.db"), 0, schema.ClickHouseBackend, "")
		assert.ErrorContains(t, err, "failed to initialize history store")
		assert.Nil(t, Manager.GetQueryStore())
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetManager(t)
	require.NoError(t, InitCaching(schema.NoneBackend, "", 0, schema.NoneBackend, ""))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, Manager.GetQueryStore())
			assert.NotNil(t, Manager.GetHistoryStore())
		}()
	}
	wg.Wait()
}

func TestClearStores(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.db")
	store, err := NewCacheStore(queryTable, schema.SQLiteBackend, cachePath, 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, cachePath, ""))
	_, err = os.Stat(cachePath)
	assert.True(t, os.IsNotExist(err))

	// Missing files are fine
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, filepath.Join(dir, "missing.db"), ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearHistory(schema.ClickHouseBackend, "", ""))
}
