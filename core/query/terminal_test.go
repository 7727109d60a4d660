package query_test

import (
	"context"
	"testing"

	"github.com/huangsam/tenure/core/query"
	"github.com/huangsam/tenure/core/timeseries"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/internal/warehouse/warehousetest"
	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestToTimeSeriesEvents(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ts, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), w)
	require.NoError(t, err)

	require.Equal(t, 14, ts.Len())
	assert.Equal(t, year(2012), ts.Start)
	assert.Equal(t, at("2013-02-01 00:00:00"), ts.End)

	values := make([]float64, ts.Len())
	for i, p := range ts.Points {
		require.Len(t, p.Values, 1)
		values[i] = p.Values[0]
	}
	assert.Equal(t, []float64{1, 0, 2, 0, 0, 1, 0, 0, 0, 0, 0, 0, 1, 1}, values)
}

func TestToTimeSeriesEventsAndActors(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ts, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		SelectSeriesMetric(schema.ActorsMetric).
		ToTimeSeries(context.Background(), w)
	require.NoError(t, err)
	require.Equal(t, 14, ts.Len())
	assert.Equal(t, []float64{1, 1}, ts.Points[0].Values)
	assert.Equal(t, []float64{2, 2}, ts.Points[2].Values)
	assert.Equal(t, []float64{0, 0}, ts.Points[3].Values)
	assert.Equal(t, []float64{1, 1}, ts.Points[13].Values)
}

func TestToTimeSeriesUsesPeriodBounds(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ts, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		FilterPeriod(year(2012), year(2013), schema.CommitDate).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), w)
	require.NoError(t, err)

	require.Equal(t, 13, ts.Len())
	assert.Equal(t, year(2012), ts.Start)
	assert.Equal(t, year(2013), ts.End)
	assert.Equal(t, []float64{0}, ts.Points[11].Values)
	// The end month is on the grid even though the filter excludes its rows.
	assert.Equal(t, []float64{0}, ts.Points[12].Values)
}

func TestToTimeSeriesCoversEveryMonthOfThePeriod(t *testing.T) {
	w := warehousetest.OpenAll(t)
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"single instant", "2012-03-01 00:00:00", "2012-03-01 00:00:00", 1},
		{"same month", "2012-03-05 00:00:00", "2012-03-25 00:00:00", 1},
		{"wider than the data", "2011-12-01 00:00:00", "2014-08-01 00:00:00", 33},
		{"mid month bounds", "2012-01-15 10:00:00", "2013-02-14 14:00:00", 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := at(tt.start), at(tt.end)
			ts, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
				FilterPeriod(start, end, schema.CommitDate).
				GroupByPeriod().
				SelectSeriesMetric(schema.EventsMetric).
				ToTimeSeries(context.Background(), w)
			require.NoError(t, err)
			require.Equal(t, tt.want, ts.Len())
			assert.Equal(t, timeseries.MonthIndex(end)-timeseries.MonthIndex(start)+1, ts.Len())
			assert.Equal(t, timeseries.MonthStart(start), ts.Points[0].Month)
			assert.Equal(t, timeseries.MonthStart(end), ts.Points[ts.Len()-1].Month)
		})
	}
}

func TestToTimeSeriesEmptyPeriod(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ts, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		FilterPeriod(year(2020), year(2021), schema.CommitDate).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		SelectSeriesMetric(schema.ActorsMetric).
		ToTimeSeries(context.Background(), w)
	require.NoError(t, err)
	require.Equal(t, 13, ts.Len())
	assert.Equal(t, []float64{0, 0}, ts.Points[0].Values)
}

func TestToTimeSeriesNoRowsNoBounds(t *testing.T) {
	w := warehousetest.OpenAll(t)
	_, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		Filter(query.Eq(query.Col(query.RelSCMLog, "id"), query.Val(-1))).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), w)
	assert.ErrorIs(t, err, errs.ErrNoBounds)
}

func TestToTimeSeriesMailingList(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ts, err := query.NewQueryBuilder(query.NewMLS(query.SourceOptions{})).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		SelectSeriesMetric(schema.ActorsMetric).
		ToTimeSeries(context.Background(), w)
	require.NoError(t, err)
	require.Equal(t, 4, ts.Len())
	assert.Equal(t, []float64{2, 2}, ts.Points[0].Values)
	assert.Equal(t, []float64{1, 1}, ts.Points[3].Values)
}

func TestToTimeSeriesFollowsPeriodField(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ts, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		FilterPeriod(year(2012), year(2013), schema.AuthorDate).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), w)
	require.NoError(t, err)
	require.Equal(t, 13, ts.Len())

	values := make([]float64, ts.Len())
	for i, p := range ts.Points {
		values[i] = p.Values[0]
	}
	// Commit 5 was authored in December 2012 and committed in January 2013.
	assert.Equal(t, []float64{1, 0, 2, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0}, values)
}

func TestToTimeSeriesRequiresPeriodGrouping(t *testing.T) {
	exec := &contract.MockExecutor{}
	_, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		GroupByPeriod().
		ToTimeSeries(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestToTimeSeriesRejectsDuplicateMonths(t *testing.T) {
	exec := &contract.MockExecutor{}
	exec.On("Backend").Return(schema.SQLiteBackend)
	exec.On("Execute", mock.Anything, mock.Anything).Return([]schema.Row{
		{"year": int64(2012), "month": int64(1), "events": int64(3)},
		{"year": int64(2012), "month": int64(1), "events": int64(4)},
	}, nil)

	_, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrDuplicatePeriod)
}

func TestToTimeSeriesRejectsBadMonths(t *testing.T) {
	exec := &contract.MockExecutor{}
	exec.On("Backend").Return(schema.SQLiteBackend)
	exec.On("Execute", mock.Anything, mock.Anything).Return([]schema.Row{
		{"year": int64(2012), "month": int64(13), "events": int64(3)},
	}, nil)

	_, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		GroupByPeriod().
		SelectSeriesMetric(schema.EventsMetric).
		ToTimeSeries(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrMalformedRow)
}

func TestToScalarAndRows(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ctx := context.Background()

	n, err := query.NewQueryBuilder(query.NewITS(query.SourceOptions{})).
		SelectColumns(query.As(query.Count(), "changes")).
		ToScalar(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 3.0, n)

	rows, err := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		SelectColumns(query.As(query.Col(query.RelSCMLog, "rev"), "rev")).
		OrderBy(query.Desc(query.Col(query.RelSCMLog, "date"))).
		Limit(2).
		ToRows(ctx, w)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r6", rows[0]["rev"])
	assert.Equal(t, "r5", rows[1]["rev"])

	_, err = query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).
		SelectColumns(query.As(query.Col(query.RelSCMLog, "rev"), "rev")).
		ToScalar(ctx, w)
	assert.ErrorIs(t, err, errs.ErrMalformedRow)
}
