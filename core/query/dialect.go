package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tenure/schema"
)

// Dialect covers the SQL differences between warehouse backends.
type Dialect interface {
	Backend() schema.DatabaseBackend
	// Placeholder returns the marker for the n-th (1-based) argument.
	Placeholder(n int) string
	Quote(ident string) string
	// DatePart returns the text surrounding an expression to extract part as an integer.
	DatePart(part DatePart) (open, closing string)
	// Bind converts an argument into the form the driver expects.
	Bind(v any) any
}

// DialectFor returns the dialect of a warehouse backend.
func DialectFor(backend schema.DatabaseBackend) (Dialect, error) {
	switch backend {
	case schema.SQLiteBackend:
		return sqliteDialect{}, nil
	case schema.MySQLBackend:
		return mysqlDialect{}, nil
	case schema.PostgreSQLBackend:
		return postgresDialect{}, nil
	case schema.ClickHouseBackend:
		return clickhouseDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported warehouse backend: %s", backend)
	}
}

func quoteWith(ident, q string) string {
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

type sqliteDialect struct{}

func (sqliteDialect) Backend() schema.DatabaseBackend { return schema.SQLiteBackend }
func (sqliteDialect) Placeholder(int) string          { return "?" }
func (sqliteDialect) Quote(ident string) string       { return quoteWith(ident, `"`) }

func (sqliteDialect) DatePart(part DatePart) (string, string) {
	if part == YearPart {
		return "CAST(strftime('%Y', ", ") AS INTEGER)"
	}
	return "CAST(strftime('%m', ", ") AS INTEGER)"
}

// Bind stores instants as UTC text so they compare lexically with DATETIME columns.
func (sqliteDialect) Bind(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format("2006-01-02 15:04:05")
	}
	return v
}

type mysqlDialect struct{}

func (mysqlDialect) Backend() schema.DatabaseBackend { return schema.MySQLBackend }
func (mysqlDialect) Placeholder(int) string          { return "?" }
func (mysqlDialect) Quote(ident string) string       { return quoteWith(ident, "`") }

func (mysqlDialect) DatePart(part DatePart) (string, string) {
	if part == YearPart {
		return "YEAR(", ")"
	}
	return "MONTH(", ")"
}

func (mysqlDialect) Bind(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

type postgresDialect struct{}

func (postgresDialect) Backend() schema.DatabaseBackend { return schema.PostgreSQLBackend }
func (postgresDialect) Placeholder(n int) string        { return "$" + strconv.Itoa(n) }
func (postgresDialect) Quote(ident string) string       { return quoteWith(ident, `"`) }

func (postgresDialect) DatePart(part DatePart) (string, string) {
	if part == YearPart {
		return "CAST(EXTRACT(YEAR FROM ", ") AS INTEGER)"
	}
	return "CAST(EXTRACT(MONTH FROM ", ") AS INTEGER)"
}

func (postgresDialect) Bind(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

type clickhouseDialect struct{}

func (clickhouseDialect) Backend() schema.DatabaseBackend { return schema.ClickHouseBackend }
func (clickhouseDialect) Placeholder(int) string          { return "?" }
func (clickhouseDialect) Quote(ident string) string       { return quoteWith(ident, "`") }

func (clickhouseDialect) DatePart(part DatePart) (string, string) {
	if part == YearPart {
		return "toYear(", ")"
	}
	return "toMonth(", ")"
}

func (clickhouseDialect) Bind(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}
