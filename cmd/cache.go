package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackend("cache-backend", "cache-db-connect")
	if err != nil {
		return err
	}
	ttl, err := contract.ParseLookbackDuration(viper.GetString("cache-ttl"))
	if err != nil {
		return fmt.Errorf("invalid --cache-ttl: %w", err)
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitCaching(backend, connStr, ttl, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cfg.CacheTTL = ttl
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by report commands. This avoids connecting to
// the warehouse for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the warehouse query cache",
	Long: `Manage the cache of warehouse query results that speeds up repeated reports.

Tenure caches the rows of every compiled query, keyed by backend, SQL and
arguments, and reuses them until the cache TTL expires.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  tenure cache status --cache-backend sqlite

  # Clear cache after the warehouse was reloaded
  tenure cache clear --cache-backend sqlite`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached query results",
	Long: `Delete all cached query results from the configured backend.

Use this when the warehouse was refreshed and cached rows are stale.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache
  tenure cache clear --cache-backend sqlite

  # Clear MySQL cache (set connection string via env variable)
  TENURE_CACHE_BACKEND=mysql TENURE_CACHE_DB_CONNECT="..." tenure cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the query cache.

Displays:
- Backend type and connection status
- Total and expired cached entries
- Last and oldest cache entry timestamps

Examples:
  # Check cache status
  tenure cache status --cache-backend sqlite`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetQueryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
