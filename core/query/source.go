package query

import (
	"fmt"

	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// JoinStep is a relation to join and the predicate joining it.
type JoinStep struct {
	Rel  RelationID
	On   Expr
	Left bool
}

// Selection is what a source contributes to a builder for one capability.
// Joins are listed in dependency order.
type Selection struct {
	Joins   []JoinStep
	Columns []SelectItem
	GroupBy []Expr
}

// QuerySource describes how to reach actors and dates for one data source.
type QuerySource interface {
	Declaration() *Declaration
	DefaultActor() schema.ActorKind
	DefaultDate() schema.DateKind
	EventKey() Column
	DateField(kind schema.DateKind) (Column, error)
	SelectActorData(kind schema.ActorKind) (Selection, error)
	SelectActivityPeriod(kind schema.DateKind) (Selection, error)
	GroupByActor(kind schema.ActorKind) (Selection, error)
	// ActorIdentity returns the joins reaching the unique identity of kind and the identity column.
	ActorIdentity(kind schema.ActorKind) ([]JoinStep, Column, error)
	// Enrollment returns the join step onto the enrollments of kind. It requires ActorIdentity joins.
	Enrollment(kind schema.ActorKind) (JoinStep, error)
}

// SourceOptions configures a source declaration.
type SourceOptions struct {
	// IdentitySchema qualifies identity tables kept in a separate database.
	IdentitySchema string
}

// SourceFor returns the query source of a data source.
func SourceFor(src schema.DataSource, opts SourceOptions) (QuerySource, error) {
	switch src {
	case schema.SCMSource:
		return NewSCM(opts), nil
	case schema.ITSSource:
		return NewITS(opts), nil
	case schema.MLSSource:
		return NewMLS(opts), nil
	default:
		return nil, errs.New(errs.KindInvalidArgument, "query.SourceFor", "unknown data source %q", src)
	}
}

type actorPath struct {
	steps      []JoinStep
	uuid       Column
	profile    JoinStep
	enrollment JoinStep
}

// Source is a QuerySource configured by a per-source constructor.
type Source struct {
	decl         *Declaration
	eventKey     Column
	defaultActor schema.ActorKind
	defaultDate  schema.DateKind
	actors       map[schema.ActorKind]actorPath
	dates        map[schema.DateKind]Column
}

var _ QuerySource = &Source{} // Compile-time check

// Declaration implements QuerySource.
func (s *Source) Declaration() *Declaration { return s.decl }

// DefaultActor implements QuerySource.
func (s *Source) DefaultActor() schema.ActorKind { return s.defaultActor }

// DefaultDate implements QuerySource.
func (s *Source) DefaultDate() schema.DateKind { return s.defaultDate }

// EventKey implements QuerySource.
func (s *Source) EventKey() Column { return s.eventKey }

// DateField implements QuerySource.
func (s *Source) DateField(kind schema.DateKind) (Column, error) {
	c, ok := s.dates[kind]
	if !ok {
		return Column{}, errs.New(errs.KindInvalidArgument, "query.DateField",
			"date kind %q is not available for %s", kind, s.decl.Source)
	}
	return c, nil
}

func (s *Source) actor(op string, kind schema.ActorKind) (actorPath, error) {
	p, ok := s.actors[kind]
	if !ok {
		return actorPath{}, errs.New(errs.KindInvalidArgument, op,
			"actor kind %q is not available for %s", kind, s.decl.Source)
	}
	return p, nil
}

// SelectActorData implements QuerySource.
func (s *Source) SelectActorData(kind schema.ActorKind) (Selection, error) {
	p, err := s.actor("query.SelectActorData", kind)
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Joins: append(append([]JoinStep(nil), p.steps...), p.profile),
		Columns: []SelectItem{
			As(p.uuid, LabelPersonID),
			As(Coalesce(Col(p.profile.Rel, "name"), p.uuid), LabelName),
		},
	}, nil
}

// SelectActivityPeriod implements QuerySource.
func (s *Source) SelectActivityPeriod(kind schema.DateKind) (Selection, error) {
	c, err := s.DateField(kind)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Columns: []SelectItem{
		As(Min(c), LabelFirstDate),
		As(Max(c), LabelLastDate),
	}}, nil
}

// GroupByActor implements QuerySource.
func (s *Source) GroupByActor(kind schema.ActorKind) (Selection, error) {
	p, err := s.actor("query.GroupByActor", kind)
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Joins:   append(append([]JoinStep(nil), p.steps...), p.profile),
		GroupBy: []Expr{p.uuid, Col(p.profile.Rel, "name")},
	}, nil
}

// ActorIdentity implements QuerySource.
func (s *Source) ActorIdentity(kind schema.ActorKind) ([]JoinStep, Column, error) {
	p, err := s.actor("query.ActorIdentity", kind)
	if err != nil {
		return nil, Column{}, err
	}
	return append([]JoinStep(nil), p.steps...), p.uuid, nil
}

// Enrollment implements QuerySource.
func (s *Source) Enrollment(kind schema.ActorKind) (JoinStep, error) {
	p, err := s.actor("query.Enrollment", kind)
	if err != nil {
		return JoinStep{}, err
	}
	return p.enrollment, nil
}

// Identity relation naming. Each actor kind gets its own aliases so that
// authors and committers can be joined in the same query.
func uidRel(kind schema.ActorKind) RelationID        { return RelationID(string(kind) + "_uid") }
func profileRel(kind schema.ActorKind) RelationID    { return RelationID(string(kind) + "_profile") }
func enrollmentRel(kind schema.ActorKind) RelationID { return RelationID(string(kind) + "_enrollment") }

// identityRelations declares the SortingHat tables for one actor kind.
// The unique identity relation requires the relations in via.
func identityRelations(kind schema.ActorKind, opts SourceOptions, via ...RelationID) []Relation {
	uid := uidRel(kind)
	return []Relation{
		{ID: uid, Table: "people_uidentities", Schema: opts.IdentitySchema, Requires: via},
		{ID: profileRel(kind), Table: "profiles", Schema: opts.IdentitySchema, Requires: []RelationID{uid}},
		{ID: enrollmentRel(kind), Table: "enrollments", Schema: opts.IdentitySchema, Requires: []RelationID{uid}},
	}
}

// identityPath builds the path from a raw identity column to the unique identity.
func identityPath(kind schema.ActorKind, rawID Column, before ...JoinStep) actorPath {
	uid := uidRel(kind)
	steps := append(append([]JoinStep(nil), before...), JoinStep{
		Rel: uid,
		On:  Eq(Col(uid, "people_id"), rawID),
	})
	return actorPath{
		steps: steps,
		uuid:  Col(uid, "uuid"),
		profile: JoinStep{
			Rel:  profileRel(kind),
			On:   Eq(Col(profileRel(kind), "uuid"), Col(uid, "uuid")),
			Left: true,
		},
		enrollment: JoinStep{
			Rel: enrollmentRel(kind),
			On:  Eq(Col(enrollmentRel(kind), "uuid"), Col(uid, "uuid")),
		},
	}
}

func (s *Source) String() string { return fmt.Sprintf("%s source", s.decl.Source) }
