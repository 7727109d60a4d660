// Package parquet provides data structures and functions for exporting tenure
// report data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRun represents a single report run with metadata.
// This struct maps to the tenure_report_runs database table.
type ReportRun struct {
	// RunID is the unique identifier for this report run
	RunID int64 `parquet:"run_id,snappy"`

	// Report names the report that ran ("age", "idle" or "timeseries")
	Report string `parquet:"report,snappy,dict"`

	// Source is the warehouse data source the report read from
	Source string `parquet:"source,snappy,dict"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// DurationMs is the duration of the run in milliseconds (nullable)
	DurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// RowCount is the number of actors or months produced
	RowCount int32 `parquet:"row_count,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ActorDuration is one actor of a duration report.
type ActorDuration struct {
	RunID     int64     `parquet:"run_id,snappy"`
	Snapshot  time.Time `parquet:"snapshot,snappy"`
	Kind      string    `parquet:"kind,snappy,dict"`
	ActorID   string    `parquet:"actor_id,snappy"`
	ActorName string    `parquet:"actor_name,snappy"`
	Days      float64   `parquet:"days,snappy"`
}

// SeriesPoint is one metric value for one month of a time series report.
type SeriesPoint struct {
	RunID  int64     `parquet:"run_id,snappy"`
	Month  time.Time `parquet:"month,snappy"`
	Metric string    `parquet:"metric,snappy,dict"`
	Value  float64   `parquet:"value,snappy"`
}

// ConvertReportRunRecords converts store records to Parquet rows.
func ConvertReportRunRecords(records []schema.ReportRunRecord) []ReportRun {
	result := make([]ReportRun, len(records))
	for i, r := range records {
		result[i] = ReportRun{
			RunID:        r.RunID,
			Report:       r.Report,
			Source:       r.Source,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			DurationMs:   r.DurationMs,
			RowCount:     r.RowCount,
			ConfigParams: r.ConfigParams,
		}
	}
	return result
}

// ConvertActorDurationRecords converts store records to Parquet rows.
func ConvertActorDurationRecords(records []schema.ActorDurationRecord) []ActorDuration {
	result := make([]ActorDuration, len(records))
	for i, r := range records {
		result[i] = ActorDuration(r)
	}
	return result
}

// ConvertSeriesPointRecords converts store records to Parquet rows.
func ConvertSeriesPointRecords(records []schema.SeriesPointRecord) []SeriesPoint {
	result := make([]SeriesPoint, len(records))
	for i, r := range records {
		result[i] = SeriesPoint(r)
	}
	return result
}

// FromDurationDocument flattens a duration document into rows.
func FromDurationDocument(runID int64, doc schema.DurationDocument) []ActorDuration {
	result := make([]ActorDuration, len(doc.IDs))
	for i := range doc.IDs {
		result[i] = ActorDuration{
			RunID:     runID,
			Snapshot:  doc.Date,
			Kind:      string(doc.Kind),
			ActorID:   doc.IDs[i],
			ActorName: doc.Names[i],
			Days:      doc.Days[i],
		}
	}
	return result
}

// FromSeriesDocument flattens a series document into one row per month and metric.
func FromSeriesDocument(runID int64, doc schema.SeriesDocument) []SeriesPoint {
	result := make([]SeriesPoint, 0, len(doc.Points)*len(doc.Metrics))
	for _, p := range doc.Points {
		for i, m := range doc.Metrics {
			if i >= len(p.Values) {
				break
			}
			result = append(result, SeriesPoint{RunID: runID, Month: p.Month, Metric: string(m), Value: p.Values[i]})
		}
	}
	return result
}

// Write writes rows to w. The schema is derived from the struct tags of T.
func Write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteReportRunsParquet writes report runs to a Parquet file.
func WriteReportRunsParquet(data []ReportRun, outputPath string) error {
	return WriteFile(data, outputPath)
}

// WriteActorDurationsParquet writes actor durations to a Parquet file.
func WriteActorDurationsParquet(data []ActorDuration, outputPath string) error {
	return WriteFile(data, outputPath)
}

// WriteSeriesPointsParquet writes series points to a Parquet file.
func WriteSeriesPointsParquet(data []SeriesPoint, outputPath string) error {
	return WriteFile(data, outputPath)
}
