package schema

import "fmt"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents a database backend, either for the warehouse or for caching.
	DatabaseBackend string

	// DataSource represents the kind of warehouse being queried.
	DataSource string

	// ActorKind represents the role an identity plays in an activity record.
	ActorKind string

	// DurationKind represents the duration metric derived from activity periods.
	DurationKind string

	// DateKind represents the timestamp column used for period filtering.
	DateKind string

	// SeriesMetric represents a value computed per month in a time series.
	SeriesMetric string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	ClickHouseBackend DatabaseBackend = "clickhouse" // warehouse only
	NoneBackend       DatabaseBackend = "none"       // cache/history only
)

// All data sources supported.
const (
	SCMSource DataSource = "scm" // default
	ITSSource DataSource = "its"
	MLSSource DataSource = "mls"
)

// All actor kinds supported.
const (
	Authors    ActorKind = "authors" // default for scm
	Committers ActorKind = "committers"
	Changers   ActorKind = "changers"
	Senders    ActorKind = "senders"
)

// All duration kinds supported.
const (
	AgeDuration  DurationKind = "age"
	IdleDuration DurationKind = "idle"
)

// All date kinds supported.
const (
	CommitDate  DateKind = "commit-date" // default for scm
	AuthorDate  DateKind = "author-date"
	ChangeDate  DateKind = "change-date"
	ArrivalDate DateKind = "arrival-date"
	FirstDate   DateKind = "first-date"
)

// All time series metrics supported.
const (
	EventsMetric SeriesMetric = "events"
	ActorsMetric SeriesMetric = "actors"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid cache and history backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidWarehouseBackends lists all backends a warehouse can live on.
var ValidWarehouseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	ClickHouseBackend: {},
}

// ValidDataSources lists all valid data sources.
var ValidDataSources = map[DataSource]struct{}{
	SCMSource: {},
	ITSSource: {},
	MLSSource: {},
}

// ValidSeriesMetrics lists all valid time series metrics.
var ValidSeriesMetrics = map[SeriesMetric]struct{}{
	EventsMetric: {},
	ActorsMetric: {},
}

// ParseActorKind validates an actor kind name.
func ParseActorKind(s string) (ActorKind, error) {
	switch k := ActorKind(s); k {
	case Authors, Committers, Changers, Senders:
		return k, nil
	}
	return "", fmt.Errorf("unknown actor kind %q", s)
}

// ParseDateKind validates a date kind name.
func ParseDateKind(s string) (DateKind, error) {
	switch k := DateKind(s); k {
	case CommitDate, AuthorDate, ChangeDate, ArrivalDate, FirstDate:
		return k, nil
	}
	return "", fmt.Errorf("unknown date kind %q", s)
}

// ParseDurationKind validates a duration kind name.
func ParseDurationKind(s string) (DurationKind, error) {
	switch k := DurationKind(s); k {
	case AgeDuration, IdleDuration:
		return k, nil
	}
	return "", fmt.Errorf("unknown duration kind %q", s)
}

// DefaultActorKind returns the actor kind used when none is configured.
func DefaultActorKind(src DataSource) ActorKind {
	switch src {
	case ITSSource:
		return Changers
	case MLSSource:
		return Senders
	default:
		return Authors
	}
}

// DefaultDateKind returns the date kind used when none is configured.
func DefaultDateKind(src DataSource) DateKind {
	switch src {
	case ITSSource:
		return ChangeDate
	case MLSSource:
		return ArrivalDate
	default:
		return CommitDate
	}
}
