package query

import "github.com/huangsam/tenure/schema"

// ITS relations (Bicho layout).
const RelChanges RelationID = "changes"

// NewITS declares an issue tracker warehouse.
func NewITS(opts SourceOptions) *Source {
	rels := append([]Relation{{ID: RelChanges, Table: "changes"}}, identityRelations(schema.Changers, opts)...)

	return &Source{
		decl:         mustDeclare(schema.ITSSource, RelChanges, rels...),
		eventKey:     Col(RelChanges, "id"),
		defaultActor: schema.Changers,
		defaultDate:  schema.ChangeDate,
		actors: map[schema.ActorKind]actorPath{
			schema.Changers: identityPath(schema.Changers, Col(RelChanges, "changed_by")),
		},
		dates: map[schema.DateKind]Column{
			schema.ChangeDate: Col(RelChanges, "changed_on"),
		},
	}
}
