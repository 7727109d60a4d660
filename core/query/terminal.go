package query

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/tenure/core/activity"
	"github.com/huangsam/tenure/core/timeseries"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// ToRows compiles the query for the executor's backend and runs it.
func (b QueryBuilder) ToRows(ctx context.Context, exec contract.Executor) ([]schema.Row, error) {
	if b.err != nil {
		return nil, b.err
	}
	d, err := DialectFor(exec.Backend())
	if err != nil {
		return nil, err
	}
	stmt, err := b.Compile(d)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Execute(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// ToActivityList runs a query selecting actor data and activity period and
// assembles its rows.
func (b QueryBuilder) ToActivityList(ctx context.Context, exec contract.Executor) (activity.ActivityList, error) {
	if b.err != nil {
		return activity.ActivityList{}, b.err
	}
	labels := b.Labels()
	for _, want := range []string{LabelPersonID, LabelName, LabelFirstDate, LabelLastDate} {
		if !slices.Contains(labels, want) {
			return activity.ActivityList{}, errs.New(errs.KindInvalidArgument, "query.ToActivityList",
				"query does not select %q", want)
		}
	}
	rows, err := b.ToRows(ctx, exec)
	if err != nil {
		return activity.ActivityList{}, err
	}
	return activity.Assemble(rows)
}

// ToTimeSeries runs a query grouped by period and fills it into a monthly
// series. Bounds retained by FilterPeriod become the series bounds; otherwise
// they are taken from the rows.
func (b QueryBuilder) ToTimeSeries(ctx context.Context, exec contract.Executor) (timeseries.TimeSeries, error) {
	const op = "query.ToTimeSeries"
	if b.err != nil {
		return timeseries.TimeSeries{}, b.err
	}
	if !b.byPeriod {
		return timeseries.TimeSeries{}, errs.New(errs.KindInvalidArgument, op, "query is not grouped by period")
	}
	var metrics []string
	for _, l := range b.Labels() {
		if l != LabelYear && l != LabelMonth {
			metrics = append(metrics, l)
		}
	}
	if len(metrics) == 0 {
		return timeseries.TimeSeries{}, errs.New(errs.KindInvalidArgument, op, "query selects no value columns")
	}

	rows, err := b.ToRows(ctx, exec)
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	obs := make([]schema.Observation, 0, len(rows))
	for i, row := range rows {
		year, err := toInt(row[LabelYear])
		if err != nil {
			return timeseries.TimeSeries{}, errs.Wrap(err, errs.KindMalformedRow, op, "row %d: year", i)
		}
		month, err := toInt(row[LabelMonth])
		if err != nil || month < 1 || month > 12 {
			return timeseries.TimeSeries{}, errs.New(errs.KindMalformedRow, op, "row %d: bad month %v", i, row[LabelMonth])
		}
		values := make([]float64, len(metrics))
		for j, m := range metrics {
			if values[j], err = toFloat(row[m]); err != nil {
				return timeseries.TimeSeries{}, errs.Wrap(err, errs.KindMalformedRow, op, "row %d: %s", i, m)
			}
		}
		obs = append(obs, schema.Observation{
			Month:  time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
			Values: values,
		})
	}
	return timeseries.Build(obs, timeseries.Options{Start: b.start, End: b.end, Arity: len(metrics)})
}

// ToScalar runs the query and returns the first column of its only row.
func (b QueryBuilder) ToScalar(ctx context.Context, exec contract.Executor) (float64, error) {
	rows, err := b.ToRows(ctx, exec)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, errs.New(errs.KindMalformedRow, "query.ToScalar", "expected one row, got %d", len(rows))
	}
	return toFloat(rows[0][b.selects[0].Label])
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric value %T", v)
	}
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if v == nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %v", v)
	}
	return int(f), nil
}
