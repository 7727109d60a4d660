// Package contract provides interfaces and shared utilities for tenure's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/tenure/schema"
)

// Executor runs compiled statements against an analytics warehouse.
// Rows must expose every label in Statement.Columns under the same name.
// This allows the query layer to be tested without a real database.
type Executor interface {
	// Backend reports the SQL dialect the executor speaks.
	Backend() schema.DatabaseBackend

	// Execute runs a read-only statement and returns all rows.
	Execute(ctx context.Context, stmt schema.Statement) ([]schema.Row, error)
}

// OrgResolver turns organization names into the ids used by enrollments.
// Identity data may live in a different store than the activity data.
type OrgResolver interface {
	ResolveOrganizations(ctx context.Context, names []string) (map[string]int64, error)
}

// OutputWriter renders report documents in the configured output format.
type OutputWriter interface {
	WriteDurations(doc schema.DurationDocument, cfg *Config, duration time.Duration) error
	WriteSeries(doc schema.SeriesDocument, cfg *Config, duration time.Duration) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetQueryStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for query result storage.
type CacheStore interface {
	// Get returns the cached value, its version and the unix time it was stored.
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking report runs and their results.
type HistoryStore interface {
	// BeginRun creates a new report run and returns its unique ID
	BeginRun(report string, source schema.DataSource, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the report run with completion data
	EndRun(runID int64, endTime time.Time, rowCount int) error

	// RecordDurations stores one row per actor of a duration report
	RecordDurations(runID int64, doc schema.DurationDocument) error

	// RecordSeries stores one row per month and metric of a time series report
	RecordSeries(runID int64, doc schema.SeriesDocument) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns retrieves all report runs, oldest first
	GetAllRuns() ([]schema.ReportRunRecord, error)

	// GetAllDurations retrieves all recorded actor durations
	GetAllDurations() ([]schema.ActorDurationRecord, error)

	// GetAllSeriesPoints retrieves all recorded time series points
	GetAllSeriesPoints() ([]schema.SeriesPointRecord, error)

	// Close closes the underlying connection
	Close() error
}
