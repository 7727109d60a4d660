package contract

import (
	"testing"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		input       *ConfigRawInput
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:  "valid minimal config",
			input: &ConfigRawInput{Output: "text", Precision: 1},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SCMSource, cfg.Source)
				assert.Equal(t, schema.Authors, cfg.Actor)
				assert.Equal(t, schema.CommitDate, cfg.DateKind)
				assert.Equal(t, schema.SQLiteBackend, cfg.WarehouseBackend)
				assert.Equal(t, schema.NoneBackend, cfg.CacheBackend)
				assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
				assert.True(t, cfg.StartTime.IsZero())
				assert.True(t, cfg.EndTime.IsZero())
				assert.Equal(t, []schema.SeriesMetric{schema.EventsMetric}, cfg.Metrics)
				assert.Equal(t, DefaultQueryTimeout, cfg.QueryTimeout)
				assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
				assert.True(t, cfg.UseColors)
			},
		},
		{
			name: "mls defaults and filters",
			input: &ConfigRawInput{
				Source: "MLS", Output: "json", Orgs: "Bitergia, ,Acme", Actors: "u1,u2",
				Start: "2012-01-01", End: "2013-01-01", Snapshot: "2013-06-01", Offset: "1 day",
				Metrics: "actors,events", Color: "no",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.Senders, cfg.Actor)
				assert.Equal(t, schema.ArrivalDate, cfg.DateKind)
				assert.Equal(t, []string{"Bitergia", "Acme"}, cfg.Orgs)
				assert.Equal(t, []string{"u1", "u2"}, cfg.ActorIDs)
				assert.Equal(t, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime)
				assert.Equal(t, time.Date(2013, 6, 1, 0, 0, 0, 0, time.UTC), cfg.Snapshot)
				assert.Equal(t, 24*time.Hour, cfg.Offset)
				assert.Equal(t, []schema.SeriesMetric{schema.ActorsMetric, schema.EventsMetric}, cfg.Metrics)
				assert.False(t, cfg.UseColors)
			},
		},
		{
			name:  "scm branches and committers",
			input: &ConfigRawInput{Actor: "committers", DateField: "author-date", NoMerges: true, Branches: "master,dev"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.Committers, cfg.Actor)
				assert.Equal(t, schema.AuthorDate, cfg.DateKind)
				assert.True(t, cfg.NoMerges)
				assert.Equal(t, []string{"master", "dev"}, cfg.Branches)
			},
		},
		{name: "branches outside scm", input: &ConfigRawInput{Source: "its", Branches: "master"}, expectError: true},
		{name: "invalid source", input: &ConfigRawInput{Source: "git"}, expectError: true},
		{name: "invalid actor", input: &ConfigRawInput{Actor: "list_authors"}, expectError: true},
		{name: "invalid date field", input: &ConfigRawInput{DateField: "yesterday"}, expectError: true},
		{name: "invalid output", input: &ConfigRawInput{Output: "xml"}, expectError: true},
		{name: "parquet needs file", input: &ConfigRawInput{Output: "parquet"}, expectError: true},
		{name: "negative limit", input: &ConfigRawInput{Limit: -1}, expectError: true},
		{name: "limit too large", input: &ConfigRawInput{Limit: MaxResultLimit + 1}, expectError: true},
		{name: "precision too high", input: &ConfigRawInput{Precision: 5}, expectError: true},
		{name: "bad identity schema", input: &ConfigRawInput{IdentitySchema: "sh; DROP"}, expectError: true},
		{name: "start after end", input: &ConfigRawInput{Start: "2013-01-01", End: "2012-01-01"}, expectError: true},
		{name: "bad start", input: &ConfigRawInput{Start: "someday"}, expectError: true},
		{name: "bad offset", input: &ConfigRawInput{Offset: "a while"}, expectError: true},
		{name: "bad metric", input: &ConfigRawInput{Metrics: "commits"}, expectError: true},
		{name: "duplicate metric", input: &ConfigRawInput{Metrics: "events,events"}, expectError: true},
		{name: "bad color", input: &ConfigRawInput{Color: "maybe"}, expectError: true},
		{name: "bad warehouse", input: &ConfigRawInput{Warehouse: "oracle"}, expectError: true},
		{name: "bad cache backend", input: &ConfigRawInput{CacheBackend: "redis"}, expectError: true},
		{name: "clickhouse cache not allowed", input: &ConfigRawInput{CacheBackend: "clickhouse"}, expectError: true},
		{name: "mysql cache without dsn", input: &ConfigRawInput{CacheBackend: "mysql"}, expectError: true},
		{
			name:        "same sqlite file for cache and history",
			input:       &ConfigRawInput{CacheBackend: "sqlite", HistoryBackend: "sqlite", CacheDBConnect: "x.db", HistoryDBConnect: "x.db"},
			expectError: true,
		},
		{
			name:  "separate sqlite files",
			input: &ConfigRawInput{CacheBackend: "sqlite", HistoryBackend: "sqlite", CacheTTL: "2 hours"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := ProcessAndValidate(cfg, tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateStructMessagesUseFlagNames(t *testing.T) {
	err := ProcessAndValidate(&Config{}, &ConfigRawInput{Limit: -5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite any", schema.SQLiteBackend, "", false},
		{"mysql ok", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/cvsanaly", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/cvsanaly", true},
		{"postgres ok", schema.PostgreSQLBackend, "host=localhost dbname=bicho", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"clickhouse ok", schema.ClickHouseBackend, "clickhouse://localhost:9000/mls", false},
		{"clickhouse bad", schema.ClickHouseBackend, "localhost:9000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireWarehouse(t *testing.T) {
	cfg := &Config{WarehouseBackend: schema.SQLiteBackend}
	assert.Error(t, cfg.RequireWarehouse())

	cfg.WarehouseDSN = "cvsanaly.db"
	assert.NoError(t, cfg.RequireWarehouse())
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Branches: []string{"master"}, Metrics: []schema.SeriesMetric{schema.EventsMetric}}
	clone := cfg.Clone()
	clone.Branches[0] = "dev"
	clone.Metrics = append(clone.Metrics, schema.ActorsMetric)
	assert.Equal(t, []string{"master"}, cfg.Branches)
	assert.Len(t, cfg.Metrics, 1)
}
