package query

import "github.com/huangsam/tenure/schema"

// MLS relations (MLStats layout).
const (
	RelMessages       RelationID = "messages"
	RelMessagesPeople RelationID = "senders_link"
)

// NewMLS declares a mailing list warehouse. Senders are the "From" recipients
// of each message.
func NewMLS(opts SourceOptions) *Source {
	rels := []Relation{
		{ID: RelMessages, Table: "messages"},
		{ID: RelMessagesPeople, Table: "messages_people"},
	}
	rels = append(rels, identityRelations(schema.Senders, opts, RelMessagesPeople)...)

	link := JoinStep{
		Rel: RelMessagesPeople,
		On: And(
			Eq(Col(RelMessagesPeople, "message_id"), Col(RelMessages, "message_id")),
			Eq(Col(RelMessagesPeople, "type_of_recipient"), Val("From")),
		),
	}

	return &Source{
		decl:         mustDeclare(schema.MLSSource, RelMessages, rels...),
		eventKey:     Col(RelMessages, "message_id"),
		defaultActor: schema.Senders,
		defaultDate:  schema.ArrivalDate,
		actors: map[schema.ActorKind]actorPath{
			schema.Senders: identityPath(schema.Senders, Col(RelMessagesPeople, "email_address"), link),
		},
		dates: map[schema.DateKind]Column{
			schema.ArrivalDate: Col(RelMessages, "arrival_date"),
			schema.FirstDate:   Col(RelMessages, "first_date"),
		},
	}
}
