package query

// Condition narrows a query. A condition only relies on whether a relation is
// already joined, never on which other condition joined it, so conditions can
// be applied in any order.
type Condition interface {
	Filter(b QueryBuilder) QueryBuilder
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc func(b QueryBuilder) QueryBuilder

// Filter implements Condition.
func (f ConditionFunc) Filter(b QueryBuilder) QueryBuilder { return f(b) }

// Pipeline applies conditions left to right.
type Pipeline []Condition

// Apply folds the conditions over b and stops at the first composition error.
func (p Pipeline) Apply(b QueryBuilder) (QueryBuilder, error) {
	for _, c := range p {
		if b.err != nil {
			break
		}
		if c == nil {
			continue
		}
		b = c.Filter(b)
	}
	return b, b.err
}
