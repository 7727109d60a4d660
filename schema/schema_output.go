package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// DurationDocument is the columnar document for an ActorsDuration.
// The duration column is named after Kind ("age" or "idle") and holds days.
type DurationDocument struct {
	Date  time.Time
	Kind  DurationKind
	IDs   []string
	Names []string
	Days  []float64
}

// MarshalJSON renders {"date": ..., "persons": {"id": [...], "name": [...], "<kind>": [...]}}.
func (d DurationDocument) MarshalJSON() ([]byte, error) {
	if len(d.IDs) != len(d.Names) || len(d.IDs) != len(d.Days) {
		return nil, fmt.Errorf("duration document has ragged columns: %d ids, %d names, %d durations",
			len(d.IDs), len(d.Names), len(d.Days))
	}
	kind := d.Kind
	if kind == "" {
		kind = AgeDuration
	}
	persons := map[string]any{
		"id":         nonNil(d.IDs),
		"name":       nonNil(d.Names),
		string(kind): nonNil(d.Days),
	}
	return json.Marshal(struct {
		Date    string         `json:"date"`
		Persons map[string]any `json:"persons"`
	}{
		Date:    d.Date.UTC().Format(TimeFormat),
		Persons: persons,
	})
}

// Len returns the number of persons in the document.
func (d DurationDocument) Len() int { return len(d.IDs) }

// SeriesPoint is one month of a dense time series.
type SeriesPoint struct {
	Month  time.Time
	Values []float64
}

// MarshalJSON renders a point as the pair [date, [v...]].
func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Month.UTC().Format(TimeFormat), nonNil(p.Values)})
}

// SeriesDocument is the document for a monthly TimeSeries.
type SeriesDocument struct {
	Metrics   []SeriesMetric `json:"-"`
	FirstDate time.Time      `json:"-"`
	LastDate  time.Time      `json:"-"`
	Points    []SeriesPoint  `json:"-"`
}

// MarshalJSON renders {"period": "months", "first_date": ..., "last_date": ..., "values": [...]}.
func (d SeriesDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Period    string        `json:"period"`
		FirstDate string        `json:"first_date"`
		LastDate  string        `json:"last_date"`
		Values    []SeriesPoint `json:"values"`
	}{
		Period:    "months",
		FirstDate: d.FirstDate.UTC().Format(TimeFormat),
		LastDate:  d.LastDate.UTC().Format(TimeFormat),
		Values:    nonNil(d.Points),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
