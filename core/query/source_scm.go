package query

import "github.com/huangsam/tenure/schema"

// SCM relations (CVSAnalY layout).
const (
	RelSCMLog   RelationID = "scmlog"
	RelActions  RelationID = "actions"
	RelBranches RelationID = "branches"
)

// ActionsJoin joins the files touched by each commit. Merge commits touch no files.
func ActionsJoin() JoinStep {
	return JoinStep{Rel: RelActions, On: Eq(Col(RelActions, "commit_id"), Col(RelSCMLog, "id"))}
}

// BranchesJoin joins the branch of each action. It requires ActionsJoin.
func BranchesJoin() JoinStep {
	return JoinStep{Rel: RelBranches, On: Eq(Col(RelBranches, "id"), Col(RelActions, "branch_id"))}
}

// NewSCM declares a source control warehouse.
func NewSCM(opts SourceOptions) *Source {
	rels := []Relation{
		{ID: RelSCMLog, Table: "scmlog"},
		{ID: RelActions, Table: "actions"},
		{ID: RelBranches, Table: "branches", Requires: []RelationID{RelActions}},
	}
	rels = append(rels, identityRelations(schema.Authors, opts)...)
	rels = append(rels, identityRelations(schema.Committers, opts)...)

	return &Source{
		decl:         mustDeclare(schema.SCMSource, RelSCMLog, rels...),
		eventKey:     Col(RelSCMLog, "id"),
		defaultActor: schema.Authors,
		defaultDate:  schema.CommitDate,
		actors: map[schema.ActorKind]actorPath{
			schema.Authors:    identityPath(schema.Authors, Col(RelSCMLog, "author_id")),
			schema.Committers: identityPath(schema.Committers, Col(RelSCMLog, "committer_id")),
		},
		dates: map[schema.DateKind]Column{
			schema.CommitDate: Col(RelSCMLog, "date"),
			schema.AuthorDate: Col(RelSCMLog, "author_date"),
		},
	}
}
