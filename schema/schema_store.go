package schema

import "time"

// ReportRunRecord represents a row from the tenure_report_runs table.
type ReportRunRecord struct {
	RunID        int64
	Report       string
	Source       string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int32
	RowCount     int32
	ConfigParams *string
}

// ActorDurationRecord represents a row from the tenure_actor_durations table.
type ActorDurationRecord struct {
	RunID     int64
	Snapshot  time.Time
	Kind      string
	ActorID   string
	ActorName string
	Days      float64
}

// SeriesPointRecord represents a row from the tenure_series_points table.
type SeriesPointRecord struct {
	RunID  int64
	Month  time.Time
	Metric string
	Value  float64
}
