// Package schema has configs, models and constants shared by all parts of tenure.
package schema

import "time"

// Statement is a compiled query ready to be handed to an executor.
type Statement struct {
	SQL     string   // Dialect-specific SQL text
	Args    []any    // Positional arguments matching the placeholders in SQL
	Columns []string // Output labels, in select order
}

// Row is one result row keyed by the labels declared in Statement.Columns.
type Row map[string]any

// Observation is a single monthly value tuple read back from a grouped query.
type Observation struct {
	Month  time.Time
	Values []float64
}

// TimeFormat is the layout used for every instant in output documents.
const TimeFormat = "2006-01-02T15:04:05"
