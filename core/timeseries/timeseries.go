// Package timeseries builds dense, gap-filled monthly time series.
package timeseries

import (
	"time"

	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// Point is one month of a series.
type Point struct {
	Month  time.Time
	Values []float64
}

// TimeSeries covers every month in [Start, End] with no gaps, ascending.
type TimeSeries struct {
	Start  time.Time
	End    time.Time
	Points []Point
}

// Options bound and fill the grid. A zero Start or End is inferred from the observations.
type Options struct {
	Start time.Time
	End   time.Time
	Zero  float64
	// Arity is the number of values per month. Zero takes it from the first observation.
	Arity int
}

// MonthIndex returns year*12 + month for t in UTC.
func MonthIndex(t time.Time) int {
	t = t.UTC()
	return t.Year()*12 + int(t.Month())
}

// MonthStart truncates t to the first instant of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Build places observations on a dense monthly grid.
// Months without an observation get a zero tuple with the arity of the first observation.
func Build(obs []schema.Observation, opts Options) (TimeSeries, error) {
	const op = "timeseries.Build"

	start, end := opts.Start, opts.End
	if len(obs) == 0 && (start.IsZero() || end.IsZero()) {
		return TimeSeries{}, errs.New(errs.KindNoBounds, op,
			"no observations and no explicit start/end to infer bounds from")
	}
	if start.IsZero() || end.IsZero() {
		lo, hi := obs[0].Month, obs[0].Month
		for _, o := range obs[1:] {
			if o.Month.Before(lo) {
				lo = o.Month
			}
			if o.Month.After(hi) {
				hi = o.Month
			}
		}
		if start.IsZero() {
			start = lo
		}
		if end.IsZero() {
			end = hi
		}
	}

	first, last := MonthIndex(start), MonthIndex(end)
	if first > last {
		return TimeSeries{}, errs.New(errs.KindInvalidArgument, op,
			"start %s is after end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	arity := opts.Arity
	if arity == 0 && len(obs) > 0 {
		arity = len(obs[0].Values)
	}

	origin := MonthStart(start)
	points := make([]Point, last-first+1)
	filled := make([]bool, len(points))
	for i := range points {
		points[i] = Point{Month: origin.AddDate(0, i, 0), Values: zeroTuple(arity, opts.Zero)}
	}

	for _, o := range obs {
		idx := MonthIndex(o.Month) - first
		if idx < 0 || idx >= len(points) {
			return TimeSeries{}, errs.New(errs.KindOutOfBounds, op,
				"observation %s is outside [%s, %s]",
				o.Month.Format(time.DateOnly), start.Format(time.DateOnly), end.Format(time.DateOnly))
		}
		if filled[idx] {
			return TimeSeries{}, errs.New(errs.KindDuplicatePeriod, op,
				"more than one observation for %s", points[idx].Month.Format("2006-01"))
		}
		if len(o.Values) != arity {
			return TimeSeries{}, errs.New(errs.KindInvalidArgument, op,
				"observation %s has %d values, expected %d", o.Month.Format("2006-01"), len(o.Values), arity)
		}
		points[idx].Values = append([]float64(nil), o.Values...)
		filled[idx] = true
	}

	return TimeSeries{Start: origin, End: MonthStart(end), Points: points}, nil
}

func zeroTuple(n int, zero float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = zero
	}
	return out
}

// Len returns the number of months in the series.
func (s TimeSeries) Len() int { return len(s.Points) }

// Document renders the output document.
func (s TimeSeries) Document(metrics ...schema.SeriesMetric) schema.SeriesDocument {
	points := make([]schema.SeriesPoint, len(s.Points))
	for i, p := range s.Points {
		points[i] = schema.SeriesPoint{Month: p.Month, Values: append([]float64(nil), p.Values...)}
	}
	return schema.SeriesDocument{
		Metrics:   metrics,
		FirstDate: s.Start,
		LastDate:  s.End,
		Points:    points,
	}
}
