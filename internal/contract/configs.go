package contract

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/tenure/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit  = 0 // all actors
	MaxResultLimit      = 100000
	DefaultPrecision    = 1
	DefaultQueryTimeout = 2 * time.Minute
	DefaultCacheTTL     = 24 * time.Hour
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a report.
// This struct is the "final, validated" config.
type Config struct {
	Source           schema.DataSource
	WarehouseBackend schema.DatabaseBackend
	WarehouseDSN     string // Please use env var as this is plaintext
	IdentitySchema   string

	Actor     schema.ActorKind
	DateKind  schema.DateKind
	StartTime time.Time // zero means unbounded
	EndTime   time.Time // zero means unbounded

	NoMerges bool
	Branches []string
	Orgs     []string
	ActorIDs []string

	Snapshot     time.Time // zero means latest activity
	Offset       time.Duration
	ActiveAfter  time.Time
	ActiveBefore time.Time

	Metrics []schema.SeriesMetric

	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	QueryTimeout time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	MetricsFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Warehouse ---
	Source         string `mapstructure:"source"`
	Warehouse      string `mapstructure:"warehouse"`
	WarehouseDSN   string `mapstructure:"warehouse-dsn"`
	IdentitySchema string `mapstructure:"identity-schema" validate:"omitempty,max=64,excludesall=;'"`

	// --- Query shaping ---
	Actor     string `mapstructure:"actor"`
	DateField string `mapstructure:"date-field"`
	Start     string `mapstructure:"start"`
	End       string `mapstructure:"end"`
	NoMerges  bool   `mapstructure:"no-merges"`
	Branches  string `mapstructure:"branches"`
	Orgs      string `mapstructure:"orgs"`
	Actors    string `mapstructure:"actors"`

	// --- Duration modifiers ---
	Snapshot     string `mapstructure:"snapshot"`
	Offset       string `mapstructure:"offset"`
	ActiveAfter  string `mapstructure:"active-after"`
	ActiveBefore string `mapstructure:"active-before"`

	// --- Time series ---
	Metrics string `mapstructure:"metrics"`

	// --- Output ---
	Limit      int    `mapstructure:"limit" validate:"gte=0,lte=100000"`
	Precision  int    `mapstructure:"precision" validate:"gte=0,lte=4"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width" validate:"gte=0"`
	Color      string `mapstructure:"color"`

	QueryTimeout string `mapstructure:"query-timeout"`

	// --- Stores ---
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	MetricsFile string `mapstructure:"metrics-file"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Branches = slices.Clone(c.Branches)
	clone.Orgs = slices.Clone(c.Orgs)
	clone.ActorIDs = slices.Clone(c.ActorIDs)
	clone.Metrics = slices.Clone(c.Metrics)
	return &clone
}

// RequireWarehouse reports whether the config can reach a warehouse.
func (c *Config) RequireWarehouse() error {
	if c.WarehouseDSN == "" {
		return fmt.Errorf("warehouse-dsn is required (flag --warehouse-dsn or TENURE_WAREHOUSE_DSN)")
	}
	return ValidateDatabaseConnectionString(c.WarehouseBackend, c.WarehouseDSN)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSource(cfg, input); err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := processTimeRange(cfg, input, now); err != nil {
		return err
	}
	if err := processDurationModifiers(cfg, input, now); err != nil {
		return err
	}
	if err := processMetrics(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.ClickHouseBackend:
		if !strings.HasPrefix(connStr, "clickhouse://") && !strings.HasPrefix(connStr, "tcp://") {
			return fmt.Errorf("ClickHouse connection string must start with 'clickhouse://' or 'tcp://'")
		}
	}
	return nil
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateSimpleInputs transfers and validates output-related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ResultLimit = input.Limit
	cfg.Precision = input.Precision
	cfg.MetricsFile = strings.TrimSpace(input.MetricsFile)

	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.QueryTimeout = DefaultQueryTimeout
	if input.QueryTimeout != "" {
		d, err := ParseLookbackDuration(input.QueryTimeout)
		if err != nil {
			return fmt.Errorf("invalid --query-timeout: %w", err)
		}
		cfg.QueryTimeout = d
	}
	return nil
}

// processSource resolves the data source, its actor and date kinds, and allow-lists.
func processSource(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.DataSource(strings.ToLower(strings.TrimSpace(input.Source)))
	if cfg.Source == "" {
		cfg.Source = schema.SCMSource
	}
	if _, ok := schema.ValidDataSources[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be scm, its, mls", input.Source)
	}

	cfg.Actor = schema.DefaultActorKind(cfg.Source)
	if input.Actor != "" {
		k, err := schema.ParseActorKind(strings.ToLower(input.Actor))
		if err != nil {
			return fmt.Errorf("invalid --actor: %w", err)
		}
		cfg.Actor = k
	}

	cfg.DateKind = schema.DefaultDateKind(cfg.Source)
	if input.DateField != "" {
		k, err := schema.ParseDateKind(strings.ToLower(input.DateField))
		if err != nil {
			return fmt.Errorf("invalid --date-field: %w", err)
		}
		cfg.DateKind = k
	}

	cfg.NoMerges = input.NoMerges
	cfg.Branches = splitList(input.Branches)
	cfg.Orgs = splitList(input.Orgs)
	cfg.ActorIDs = splitList(input.Actors)
	cfg.IdentitySchema = strings.TrimSpace(input.IdentitySchema)

	if cfg.Source != schema.SCMSource && (cfg.NoMerges || len(cfg.Branches) > 0) {
		return fmt.Errorf("--no-merges and --branches only apply to the scm source")
	}
	return nil
}

// processTimeRange handles the date parsing and time range validation.
// Both bounds are optional.
func processTimeRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	var err error
	if cfg.StartTime, err = ParseInstant(input.Start, now); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if cfg.EndTime, err = ParseInstant(input.End, now); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)",
			cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}
	return nil
}

// processDurationModifiers handles the snapshot, offset and active window.
func processDurationModifiers(cfg *Config, input *ConfigRawInput, now time.Time) error {
	var err error
	if cfg.Snapshot, err = ParseInstant(input.Snapshot, now); err != nil {
		return fmt.Errorf("invalid --snapshot: %w", err)
	}
	if cfg.ActiveAfter, err = ParseInstant(input.ActiveAfter, now); err != nil {
		return fmt.Errorf("invalid --active-after: %w", err)
	}
	if cfg.ActiveBefore, err = ParseInstant(input.ActiveBefore, now); err != nil {
		return fmt.Errorf("invalid --active-before: %w", err)
	}
	cfg.Offset = 0
	if input.Offset != "" {
		if cfg.Offset, err = ParseLookbackDuration(input.Offset); err != nil {
			return fmt.Errorf("invalid --offset: %w", err)
		}
	}
	return nil
}

// processMetrics parses the comma separated time series metrics.
func processMetrics(cfg *Config, input *ConfigRawInput) error {
	cfg.Metrics = nil
	names := splitList(strings.ToLower(input.Metrics))
	if len(names) == 0 {
		names = []string{string(schema.EventsMetric)}
	}
	for _, n := range names {
		m := schema.SeriesMetric(n)
		if _, ok := schema.ValidSeriesMetrics[m]; !ok {
			return fmt.Errorf("invalid metric '%s'. must be events, actors", n)
		}
		if slices.Contains(cfg.Metrics, m) {
			return fmt.Errorf("metric '%s' listed twice", n)
		}
		cfg.Metrics = append(cfg.Metrics, m)
	}
	return nil
}

// validateBackendConfigs validates warehouse, cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Warehouse Backend Validation ---
	cfg.WarehouseBackend = schema.DatabaseBackend(strings.ToLower(input.Warehouse))
	if cfg.WarehouseBackend == "" {
		cfg.WarehouseBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidWarehouseBackends[cfg.WarehouseBackend]; !ok {
		return fmt.Errorf("invalid warehouse backend '%s'. must be sqlite, mysql, postgresql, clickhouse", input.Warehouse)
	}
	cfg.WarehouseDSN = input.WarehouseDSN

	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}
	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := ParseLookbackDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid --cache-ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}
