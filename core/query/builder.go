// Package query composes read-only analytics queries over activity warehouses.
//
// A QueryBuilder is a value: every operation returns a new builder and never
// changes the receiver. Joins are recorded in a JoinRegistry so that a relation
// requested twice, for whatever reason, appears once in the FROM clause.
package query

import (
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/tenure/core/activity"
	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// Output labels shared with the assembler.
const (
	LabelPersonID  = activity.LabelPersonID
	LabelName      = activity.LabelName
	LabelFirstDate = activity.LabelFirstDate
	LabelLastDate  = activity.LabelLastDate
	LabelYear      = "year"
	LabelMonth     = "month"
)

type joinClause struct {
	rel  Relation
	on   Expr
	left bool
}

// QueryBuilder composes a single SELECT statement.
type QueryBuilder struct {
	source   QuerySource
	registry *JoinRegistry
	selects  []SelectItem
	joins    []joinClause
	filters  []Expr
	groupBy  []Expr
	orderBy  []Order
	limit    int

	start    time.Time
	end      time.Time
	dateKind schema.DateKind
	actor    schema.ActorKind
	byPeriod bool
	// hasPeriod is set once FilterPeriod has fixed dateKind.
	hasPeriod bool

	err error
}

// NewQueryBuilder starts a query over the base relation of src.
func NewQueryBuilder(src QuerySource) QueryBuilder {
	reg := NewJoinRegistry()
	reg.MarkJoined(src.Declaration().Base)
	return QueryBuilder{
		source:   src,
		registry: reg,
		dateKind: src.DefaultDate(),
		actor:    src.DefaultActor(),
	}
}

func (b QueryBuilder) clone() QueryBuilder {
	c := b
	c.registry = b.registry.clone()
	c.selects = slices.Clone(b.selects)
	c.joins = slices.Clone(b.joins)
	c.filters = slices.Clone(b.filters)
	c.groupBy = slices.Clone(b.groupBy)
	c.orderBy = slices.Clone(b.orderBy)
	return c
}

// update runs fn on a copy of b. A failing fn leaves the copy carrying the error.
func (b QueryBuilder) update(fn func(nb *QueryBuilder) error) QueryBuilder {
	if b.err != nil {
		return b
	}
	nb := b.clone()
	if err := fn(&nb); err != nil {
		b.err = err
		return b
	}
	return nb
}

// fail records a composition error unless one is already set.
func (b QueryBuilder) fail(err error) QueryBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Err returns the first composition error, if any.
func (b QueryBuilder) Err() error { return b.err }

// Source returns the query source.
func (b QueryBuilder) Source() QuerySource { return b.source }

// Registry returns a copy of the join registry.
func (b QueryBuilder) Registry() *JoinRegistry { return b.registry.clone() }

// Period returns the bounds retained by FilterPeriod. Zero means unbounded.
func (b QueryBuilder) Period() (start, end time.Time) { return b.start, b.end }

// SelectColumns appends output columns. It never joins.
func (b QueryBuilder) SelectColumns(items ...SelectItem) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		for _, it := range items {
			if err := nb.addSelect(it); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureJoin joins rel on the predicate unless rel is already joined, in which
// case the predicate becomes a filter.
func (b QueryBuilder) EnsureJoin(rel RelationID, on Expr) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		return nb.ensureJoin(JoinStep{Rel: rel, On: on})
	})
}

// EnsureJoins applies each step in order, as EnsureJoin or EnsureLeftJoin.
func (b QueryBuilder) EnsureJoins(steps ...JoinStep) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		for _, s := range steps {
			if err := nb.ensureJoin(s); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureLeftJoin is EnsureJoin with a LEFT JOIN.
func (b QueryBuilder) EnsureLeftJoin(rel RelationID, on Expr) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		return nb.ensureJoin(JoinStep{Rel: rel, On: on, Left: true})
	})
}

// FilterPeriod keeps rows whose kind date lies in [start, end). A zero bound
// adds no filter. The narrowest bounds seen are kept for ToTimeSeries.
// All periods of one query must use the same date field.
func (b QueryBuilder) FilterPeriod(start, end time.Time, kind schema.DateKind) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		field, err := nb.source.DateField(kind)
		if err != nil {
			return err
		}
		if nb.hasPeriod && kind != nb.dateKind {
			return errs.New(errs.KindInvalidArgument, "query.FilterPeriod",
				"period on %s conflicts with earlier period on %s", kind, nb.dateKind)
		}
		nb.dateKind = kind
		nb.hasPeriod = true
		if !start.IsZero() {
			if nb.start.IsZero() || start.After(nb.start) {
				nb.start = start
			}
			if err := nb.addFilter(Gte(field, Val(start))); err != nil {
				return err
			}
		}
		if !end.IsZero() {
			if nb.end.IsZero() || end.Before(nb.end) {
				nb.end = end
			}
			if err := nb.addFilter(Lt(field, Val(end))); err != nil {
				return err
			}
		}
		return nil
	})
}

// Filter adds conjunctive predicates. Identical predicates are added once.
func (b QueryBuilder) Filter(exprs ...Expr) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		for _, e := range exprs {
			if err := nb.addFilter(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GroupBy adds grouping keys.
func (b QueryBuilder) GroupBy(exprs ...Expr) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		for _, e := range exprs {
			if err := nb.addGroupBy(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GroupByPeriod selects and groups by the year and month of the period date
// field, ordered ascending. Without FilterPeriod the source default is used.
func (b QueryBuilder) GroupByPeriod() QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		field, err := nb.source.DateField(nb.dateKind)
		if err != nil {
			return err
		}
		year, month := YearOf(field), MonthOf(field)
		if err := nb.addSelect(As(year, LabelYear)); err != nil {
			return err
		}
		if err := nb.addSelect(As(month, LabelMonth)); err != nil {
			return err
		}
		if err := nb.addGroupBy(year); err != nil {
			return err
		}
		if err := nb.addGroupBy(month); err != nil {
			return err
		}
		nb.addOrder(Asc(year))
		nb.addOrder(Asc(month))
		nb.byPeriod = true
		return nil
	})
}

// SelectActorData selects person_id and name for an actor kind. Later
// GroupByActor and metric selections use the same actor kind.
func (b QueryBuilder) SelectActorData(kind schema.ActorKind) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		sel, err := nb.source.SelectActorData(kind)
		if err != nil {
			return err
		}
		nb.actor = kind
		return nb.apply(sel)
	})
}

// ForActor sets the actor kind used by later actor selections and metrics
// without selecting anything.
func (b QueryBuilder) ForActor(kind schema.ActorKind) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		if _, _, err := nb.source.ActorIdentity(kind); err != nil {
			return err
		}
		nb.actor = kind
		return nil
	})
}

// SelectActivityPeriod selects firstdate and lastdate over a date kind.
func (b QueryBuilder) SelectActivityPeriod(kind schema.DateKind) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		sel, err := nb.source.SelectActivityPeriod(kind)
		if err != nil {
			return err
		}
		return nb.apply(sel)
	})
}

// GroupByActor groups by the unique identity of the current actor kind.
func (b QueryBuilder) GroupByActor() QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		sel, err := nb.source.GroupByActor(nb.actor)
		if err != nil {
			return err
		}
		return nb.apply(sel)
	})
}

// SelectSeriesMetric selects a per-group count labelled with the metric name.
func (b QueryBuilder) SelectSeriesMetric(m schema.SeriesMetric) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		switch m {
		case schema.EventsMetric:
			return nb.addSelect(As(CountDistinct(nb.source.EventKey()), string(m)))
		case schema.ActorsMetric:
			steps, uuid, err := nb.source.ActorIdentity(nb.actor)
			if err != nil {
				return err
			}
			for _, s := range steps {
				if err := nb.ensureJoin(s); err != nil {
					return err
				}
			}
			return nb.addSelect(As(CountDistinct(uuid), string(m)))
		default:
			return errs.New(errs.KindInvalidArgument, "query.SelectSeriesMetric", "unknown metric %q", m)
		}
	})
}

// OrderBy appends ordering terms.
func (b QueryBuilder) OrderBy(orders ...Order) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		for _, o := range orders {
			if o.Expr == nil {
				return errs.New(errs.KindInvalidArgument, "query.OrderBy", "nil order expression")
			}
			nb.addOrder(o)
		}
		return nil
	})
}

// Limit caps the number of rows. Zero means no limit.
func (b QueryBuilder) Limit(n int) QueryBuilder {
	return b.update(func(nb *QueryBuilder) error {
		if n < 0 {
			return errs.New(errs.KindInvalidArgument, "query.Limit", "negative limit %d", n)
		}
		nb.limit = n
		return nil
	})
}

func (b *QueryBuilder) apply(sel Selection) error {
	for _, j := range sel.Joins {
		if err := b.ensureJoin(j); err != nil {
			return err
		}
	}
	for _, it := range sel.Columns {
		if err := b.addSelect(it); err != nil {
			return err
		}
	}
	for _, g := range sel.GroupBy {
		if err := b.addGroupBy(g); err != nil {
			return err
		}
	}
	return nil
}

func (b *QueryBuilder) ensureJoin(step JoinStep) error {
	const op = "query.EnsureJoin"
	if step.On == nil {
		return errs.New(errs.KindInvalidArgument, op, "join of %q has no predicate", step.Rel)
	}
	decl := b.source.Declaration()
	rel, ok := decl.Relation(step.Rel)
	if !ok {
		return errs.New(errs.KindUnknownJoin, op, "relation %q is not declared for %s", step.Rel, decl.Source)
	}
	if b.registry.HasJoined(rel.ID) {
		// Same predicate as the existing join: already enforced.
		for _, j := range b.joins {
			if j.rel.ID == rel.ID && Canonical(j.on) == Canonical(step.On) {
				return nil
			}
		}
		return b.addFilter(step.On)
	}
	for _, req := range rel.Requires {
		if !b.registry.HasJoined(req) {
			return errs.New(errs.KindUnknownJoin, op, "relation %q requires %q to be joined first", rel.ID, req)
		}
	}
	b.joins = append(b.joins, joinClause{rel: rel, on: step.On, left: step.Left})
	b.registry.MarkJoined(rel.ID)
	return nil
}

func (b *QueryBuilder) addFilter(e Expr) error {
	if e == nil {
		return errs.New(errs.KindInvalidArgument, "query.Filter", "nil filter")
	}
	key := Canonical(e)
	for _, f := range b.filters {
		if Canonical(f) == key {
			return nil
		}
	}
	b.filters = append(b.filters, e)
	return nil
}

func (b *QueryBuilder) addSelect(it SelectItem) error {
	const op = "query.SelectColumns"
	if it.Expr == nil || it.Label == "" {
		return errs.New(errs.KindInvalidArgument, op, "select item needs an expression and a label")
	}
	for _, s := range b.selects {
		if s.Label != it.Label {
			continue
		}
		if Canonical(s.Expr) == Canonical(it.Expr) {
			return nil
		}
		return errs.New(errs.KindInvalidArgument, op, "label %q already selects %s", it.Label, Canonical(s.Expr))
	}
	b.selects = append(b.selects, it)
	return nil
}

func (b *QueryBuilder) addGroupBy(e Expr) error {
	if e == nil {
		return errs.New(errs.KindInvalidArgument, "query.GroupBy", "nil group key")
	}
	key := Canonical(e)
	for _, g := range b.groupBy {
		if Canonical(g) == key {
			return nil
		}
	}
	b.groupBy = append(b.groupBy, e)
	return nil
}

func (b *QueryBuilder) addOrder(o Order) {
	key := Canonical(o.Expr)
	for _, x := range b.orderBy {
		if Canonical(x.Expr) == key {
			return
		}
	}
	b.orderBy = append(b.orderBy, o)
}

// Labels returns the output labels in select order.
func (b QueryBuilder) Labels() []string {
	out := make([]string, len(b.selects))
	for i, s := range b.selects {
		out[i] = s.Label
	}
	return out
}

// Compile renders the statement for a dialect. A builder carrying a
// composition error does not compile.
func (b QueryBuilder) Compile(d Dialect) (schema.Statement, error) {
	if b.err != nil {
		return schema.Statement{}, b.err
	}
	if len(b.selects) == 0 {
		return schema.Statement{}, errs.New(errs.KindInvalidArgument, "query.Compile", "nothing selected")
	}

	w := &sqlWriter{d: d}
	w.write("SELECT ")
	for i, s := range b.selects {
		if i > 0 {
			w.write(", ")
		}
		s.Expr.writeSQL(w)
		w.write(" AS ")
		w.ident(s.Label)
	}

	decl := b.source.Declaration()
	base, _ := decl.Relation(decl.Base)
	w.write(" FROM ")
	writeRelation(w, base)
	for _, j := range b.joins {
		if j.left {
			w.write(" LEFT JOIN ")
		} else {
			w.write(" JOIN ")
		}
		writeRelation(w, j.rel)
		w.write(" ON ")
		j.on.writeSQL(w)
	}

	if len(b.filters) > 0 {
		w.write(" WHERE ")
		w.list(b.filters, " AND ")
	}
	if len(b.groupBy) > 0 {
		w.write(" GROUP BY ")
		w.list(b.groupBy, ", ")
	}
	if len(b.orderBy) > 0 {
		w.write(" ORDER BY ")
		for i, o := range b.orderBy {
			if i > 0 {
				w.write(", ")
			}
			o.Expr.writeSQL(w)
			if o.Desc {
				w.write(" DESC")
			} else {
				w.write(" ASC")
			}
		}
	}
	if b.limit > 0 {
		w.write(" LIMIT " + strconv.Itoa(b.limit))
	}

	return schema.Statement{SQL: w.String(), Args: w.args, Columns: b.Labels()}, nil
}

// String renders the query without a dialect, for logs and tests.
func (b QueryBuilder) String() string {
	if b.err != nil {
		return "<invalid query: " + b.err.Error() + ">"
	}
	stmt, err := b.Compile(nil)
	if err != nil {
		return "<invalid query: " + err.Error() + ">"
	}
	return stmt.SQL
}

func writeRelation(w *sqlWriter, r Relation) {
	if r.Schema != "" {
		w.ident(r.Schema)
		w.write(".")
	}
	w.ident(r.Table)
	w.write(" AS ")
	w.ident(string(r.ID))
}
