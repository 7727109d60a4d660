package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/tenure/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []schema.ReportRunRecord {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	ms := int32(1500)
	params := `{"source":"scm","actor":"authors"}`
	return []schema.ReportRunRecord{
		{RunID: 1, Report: "age", Source: "scm", StartTime: start, EndTime: &end, DurationMs: &ms, RowCount: 2, ConfigParams: &params},
		{RunID: 2, Report: "timeseries", Source: "mls", StartTime: start.Add(time.Hour)},
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	out := make([]T, reader.NumRows())
	n, err := reader.Read(out)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return out[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"report runs", new(ReportRun), []string{"run_id", "report", "source", "start_time", "end_time", "run_duration_ms", "row_count", "config_params"}},
		{"actor durations", new(ActorDuration), []string{"run_id", "snapshot", "kind", "actor_id", "actor_name", "days"}},
		{"series points", new(SeriesPoint), []string{"run_id", "month", "metric", "value"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteReportRunsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.parquet")
	data := ConvertReportRunRecords(sampleRuns())
	require.NoError(t, WriteReportRunsParquet(data, path))

	got := readAll[ReportRun](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "age", got[0].Report)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, *data[0].EndTime, *got[0].EndTime, time.Nanosecond)
	require.NotNil(t, got[0].DurationMs)
	assert.Equal(t, int32(1500), *got[0].DurationMs)
	require.NotNil(t, got[0].ConfigParams)
	assert.Contains(t, *got[0].ConfigParams, "authors")

	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].DurationMs)
	assert.Nil(t, got[1].ConfigParams)
}

func TestFromDurationDocument(t *testing.T) {
	snap := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := schema.DurationDocument{
		Date:  snap,
		Kind:  schema.IdleDuration,
		IDs:   []string{"u1", "u2"},
		Names: []string{"Alice", "Bob"},
		Days:  []float64{10, 397},
	}
	rows := FromDurationDocument(7, doc)
	require.Len(t, rows, 2)
	assert.Equal(t, ActorDuration{RunID: 7, Snapshot: snap, Kind: "idle", ActorID: "u2", ActorName: "Bob", Days: 397}, rows[1])

	path := filepath.Join(t.TempDir(), "durations.parquet")
	require.NoError(t, WriteActorDurationsParquet(rows, path))
	got := readAll[ActorDuration](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "Alice", got[0].ActorName)
	assert.InDelta(t, 397, got[1].Days, 1e-9)
}

func TestFromSeriesDocument(t *testing.T) {
	jan := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := schema.SeriesDocument{
		Metrics: []schema.SeriesMetric{schema.EventsMetric, schema.ActorsMetric},
		Points: []schema.SeriesPoint{
			{Month: jan, Values: []float64{3, 2}},
			{Month: jan.AddDate(0, 1, 0), Values: []float64{0, 0}},
		},
	}
	rows := FromSeriesDocument(0, doc)
	require.Len(t, rows, 4)
	assert.Equal(t, SeriesPoint{Month: jan, Metric: "actors", Value: 2}, rows[1])
	assert.Equal(t, "events", rows[2].Metric)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))
	assert.Positive(t, buf.Len())
}

func TestConvertRecords(t *testing.T) {
	snap := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	durations := ConvertActorDurationRecords([]schema.ActorDurationRecord{
		{RunID: 1, Snapshot: snap, Kind: "age", ActorID: "u1", ActorName: "Alice", Days: 42.5},
	})
	assert.Equal(t, ActorDuration{RunID: 1, Snapshot: snap, Kind: "age", ActorID: "u1", ActorName: "Alice", Days: 42.5}, durations[0])

	points := ConvertSeriesPointRecords([]schema.SeriesPointRecord{{RunID: 3, Month: snap, Metric: "events", Value: 5}})
	assert.Equal(t, SeriesPoint{RunID: 3, Month: snap, Metric: "events", Value: 5}, points[0])
}

func TestWriteEmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteSeriesPointsParquet([]SeriesPoint{}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "file should contain schema even if empty")
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteReportRunsParquet(ConvertReportRunRecords(sampleRuns()), "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}
