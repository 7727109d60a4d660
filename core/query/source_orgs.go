package query

import "github.com/huangsam/tenure/schema"

// RelOrganizations is the SortingHat organizations table.
const RelOrganizations RelationID = "organizations"

const identitySource schema.DataSource = "identity"

// NewOrganizations declares the organizations table as a base relation, for
// resolving organization names to ids. It has no actors or dates.
func NewOrganizations(opts SourceOptions) *Source {
	return &Source{
		decl: mustDeclare(identitySource, RelOrganizations,
			Relation{ID: RelOrganizations, Table: "organizations", Schema: opts.IdentitySchema}),
		eventKey: Col(RelOrganizations, "id"),
	}
}
