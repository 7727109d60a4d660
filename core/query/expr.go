package query

import (
	"fmt"
	"strings"
	"time"
)

// Expr is a SQL expression tree node. The set of node types is closed.
type Expr interface {
	writeSQL(w *sqlWriter)
}

// Canonical renders e without a dialect, inlining values. Two expressions
// with the same canonical text are treated as the same filter.
func Canonical(e Expr) string {
	w := &sqlWriter{}
	e.writeSQL(w)
	return w.String()
}

// sqlWriter accumulates SQL text and bound arguments.
// A nil dialect produces canonical text with inlined values.
type sqlWriter struct {
	sb   strings.Builder
	d    Dialect
	args []any
}

func (w *sqlWriter) write(s string) { w.sb.WriteString(s) }

func (w *sqlWriter) ident(name string) {
	if w.d == nil {
		w.write(name)
		return
	}
	w.write(w.d.Quote(name))
}

func (w *sqlWriter) param(v any) {
	if w.d == nil {
		switch x := v.(type) {
		case string:
			fmt.Fprintf(&w.sb, "%q", x)
		case time.Time:
			w.write("'" + x.UTC().Format(time.RFC3339Nano) + "'")
		default:
			fmt.Fprintf(&w.sb, "%v", x)
		}
		return
	}
	w.args = append(w.args, w.d.Bind(v))
	w.write(w.d.Placeholder(len(w.args)))
}

func (w *sqlWriter) list(items []Expr, sep string) {
	for i, e := range items {
		if i > 0 {
			w.write(sep)
		}
		e.writeSQL(w)
	}
}

func (w *sqlWriter) String() string { return w.sb.String() }

// Column references a column of a joined relation by its alias.
type Column struct {
	Rel  RelationID
	Name string
}

// Col builds a column reference.
func Col(rel RelationID, name string) Column { return Column{Rel: rel, Name: name} }

func (c Column) writeSQL(w *sqlWriter) {
	w.ident(string(c.Rel))
	w.write(".")
	w.ident(c.Name)
}

type value struct{ v any }

// Val is a bound parameter.
func Val(v any) Expr { return value{v: v} }

func (v value) writeSQL(w *sqlWriter) { w.param(v.v) }

type binary struct {
	op   string
	l, r Expr
}

func (b binary) writeSQL(w *sqlWriter) {
	b.l.writeSQL(w)
	w.write(" " + b.op + " ")
	b.r.writeSQL(w)
}

// Eq is l = r.
func Eq(l, r Expr) Expr { return binary{op: "=", l: l, r: r} }

// Gte is l >= r.
func Gte(l, r Expr) Expr { return binary{op: ">=", l: l, r: r} }

// Gt is l > r.
func Gt(l, r Expr) Expr { return binary{op: ">", l: l, r: r} }

// Lt is l < r.
func Lt(l, r Expr) Expr { return binary{op: "<", l: l, r: r} }

// Lte is l <= r.
func Lte(l, r Expr) Expr { return binary{op: "<=", l: l, r: r} }

// Ne is l <> r.
func Ne(l, r Expr) Expr { return binary{op: "<>", l: l, r: r} }

type inList struct {
	e      Expr
	values []any
}

// In is e IN (values...). An empty list renders as a false predicate;
// conditions reject empty lists before they get here.
func In[T any](e Expr, values ...T) Expr {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return inList{e: e, values: vs}
}

func (in inList) writeSQL(w *sqlWriter) {
	if len(in.values) == 0 {
		w.write("1 = 0")
		return
	}
	in.e.writeSQL(w)
	w.write(" IN (")
	for i, v := range in.values {
		if i > 0 {
			w.write(", ")
		}
		w.param(v)
	}
	w.write(")")
}

type logical struct {
	op    string
	terms []Expr
}

// And joins terms with AND.
func And(terms ...Expr) Expr { return logical{op: "AND", terms: terms} }

// Or joins terms with OR.
func Or(terms ...Expr) Expr { return logical{op: "OR", terms: terms} }

func (l logical) writeSQL(w *sqlWriter) {
	w.write("(")
	w.list(l.terms, " "+l.op+" ")
	w.write(")")
}

type nullCheck struct {
	e   Expr
	not bool
}

// IsNull is e IS NULL.
func IsNull(e Expr) Expr { return nullCheck{e: e} }

// NotNull is e IS NOT NULL.
func NotNull(e Expr) Expr { return nullCheck{e: e, not: true} }

func (n nullCheck) writeSQL(w *sqlWriter) {
	n.e.writeSQL(w)
	if n.not {
		w.write(" IS NOT NULL")
		return
	}
	w.write(" IS NULL")
}

type call struct {
	name     string
	distinct bool
	args     []Expr
}

func (c call) writeSQL(w *sqlWriter) {
	w.write(c.name + "(")
	if c.distinct {
		w.write("DISTINCT ")
	}
	if len(c.args) == 0 {
		w.write("*")
	} else {
		w.list(c.args, ", ")
	}
	w.write(")")
}

// Min is MIN(e).
func Min(e Expr) Expr { return call{name: "MIN", args: []Expr{e}} }

// Max is MAX(e).
func Max(e Expr) Expr { return call{name: "MAX", args: []Expr{e}} }

// Count is COUNT(e), or COUNT(*) without an argument.
func Count(e ...Expr) Expr { return call{name: "COUNT", args: e} }

// CountDistinct is COUNT(DISTINCT e).
func CountDistinct(e Expr) Expr { return call{name: "COUNT", distinct: true, args: []Expr{e}} }

// Coalesce is COALESCE(args...).
func Coalesce(args ...Expr) Expr { return call{name: "COALESCE", args: args} }

// DatePart is a calendar component extracted from a timestamp.
type DatePart string

// Supported date parts.
const (
	YearPart  DatePart = "year"
	MonthPart DatePart = "month"
)

type datePart struct {
	part DatePart
	e    Expr
}

// YearOf extracts the year of a timestamp as an integer.
func YearOf(e Expr) Expr { return datePart{part: YearPart, e: e} }

// MonthOf extracts the month (1-12) of a timestamp as an integer.
func MonthOf(e Expr) Expr { return datePart{part: MonthPart, e: e} }

func (p datePart) writeSQL(w *sqlWriter) {
	if w.d == nil {
		w.write(strings.ToUpper(string(p.part)) + "(")
		p.e.writeSQL(w)
		w.write(")")
		return
	}
	open, closing := w.d.DatePart(p.part)
	w.write(open)
	p.e.writeSQL(w)
	w.write(closing)
}

// SelectItem is an output column with its label.
type SelectItem struct {
	Expr  Expr
	Label string
}

// As labels an expression for the select list.
func As(e Expr, label string) SelectItem { return SelectItem{Expr: e, Label: label} }

// Order is one ORDER BY term.
type Order struct {
	Expr Expr
	Desc bool
}

// Asc orders ascending.
func Asc(e Expr) Order { return Order{Expr: e} }

// Desc orders descending.
func Desc(e Expr) Order { return Order{Expr: e, Desc: true} }
