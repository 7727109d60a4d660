package query

import (
	"fmt"

	"github.com/huangsam/tenure/schema"
)

// RelationID names a relation within a declaration. It doubles as the SQL alias.
type RelationID string

// Relation is a table that can appear in a query.
type Relation struct {
	ID       RelationID
	Table    string
	Schema   string       // optional database/schema qualifier
	Requires []RelationID // relations that must be joined first
}

// Declaration lists the relations of one data source. It is built per
// source instance and never shared as process-wide state.
type Declaration struct {
	Source    schema.DataSource
	Base      RelationID
	relations map[RelationID]Relation
}

// NewDeclaration builds a declaration. The base relation must be among rels
// and every prerequisite must be declared.
func NewDeclaration(src schema.DataSource, base RelationID, rels ...Relation) (*Declaration, error) {
	d := &Declaration{Source: src, Base: base, relations: make(map[RelationID]Relation, len(rels))}
	for _, r := range rels {
		if _, dup := d.relations[r.ID]; dup {
			return nil, fmt.Errorf("relation %q declared twice", r.ID)
		}
		d.relations[r.ID] = r
	}
	if _, ok := d.relations[base]; !ok {
		return nil, fmt.Errorf("base relation %q is not declared", base)
	}
	for _, r := range rels {
		for _, req := range r.Requires {
			if _, ok := d.relations[req]; !ok {
				return nil, fmt.Errorf("relation %q requires undeclared relation %q", r.ID, req)
			}
		}
	}
	return d, nil
}

// Relation looks up a declared relation.
func (d *Declaration) Relation(id RelationID) (Relation, bool) {
	r, ok := d.relations[id]
	return r, ok
}

func mustDeclare(src schema.DataSource, base RelationID, rels ...Relation) *Declaration {
	d, err := NewDeclaration(src, base, rels...)
	if err != nil {
		panic(err)
	}
	return d
}
