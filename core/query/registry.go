package query

import "sort"

// JoinRegistry records which relations are already part of a query's FROM clause.
// It only grows and cannot fail.
type JoinRegistry struct {
	joined map[RelationID]struct{}
}

// NewJoinRegistry returns an empty registry.
func NewJoinRegistry() *JoinRegistry {
	return &JoinRegistry{joined: make(map[RelationID]struct{})}
}

// HasJoined reports whether rel was marked.
func (r *JoinRegistry) HasJoined(rel RelationID) bool {
	_, ok := r.joined[rel]
	return ok
}

// MarkJoined records rel. Marking twice is a no-op.
func (r *JoinRegistry) MarkJoined(rel RelationID) {
	r.joined[rel] = struct{}{}
}

// Joined lists the marked relations in lexical order.
func (r *JoinRegistry) Joined() []RelationID {
	out := make([]RelationID, 0, len(r.joined))
	for id := range r.joined {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *JoinRegistry) clone() *JoinRegistry {
	c := &JoinRegistry{joined: make(map[RelationID]struct{}, len(r.joined))}
	for id := range r.joined {
		c.joined[id] = struct{}{}
	}
	return c
}
