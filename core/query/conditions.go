package query

import (
	"context"
	"strings"
	"time"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// NoMerges drops merge commits, which touch no files.
type NoMerges struct{}

var _ Condition = NoMerges{} // Compile-time check

// Filter implements Condition.
func (NoMerges) Filter(b QueryBuilder) QueryBuilder {
	return b.EnsureJoins(ActionsJoin())
}

// BranchAllowlist keeps commits touching files on the named branches.
type BranchAllowlist struct {
	Names []string
}

var _ Condition = BranchAllowlist{} // Compile-time check

// NewBranchAllowlist validates the branch names.
func NewBranchAllowlist(names ...string) (BranchAllowlist, error) {
	if err := checkList("query.NewBranchAllowlist", "branch", names); err != nil {
		return BranchAllowlist{}, err
	}
	return BranchAllowlist{Names: append([]string(nil), names...)}, nil
}

// Filter implements Condition.
func (c BranchAllowlist) Filter(b QueryBuilder) QueryBuilder {
	if err := checkList("query.BranchAllowlist", "branch", c.Names); err != nil {
		return b.fail(err)
	}
	return b.EnsureJoins(ActionsJoin(), BranchesJoin()).
		Filter(In(Col(RelBranches, "name"), c.Names...))
}

// DatePeriod keeps rows whose date lies in [Start, End). A zero bound is
// open. An empty Field uses the source's default date.
type DatePeriod struct {
	Start time.Time
	End   time.Time
	Field schema.DateKind
}

var _ Condition = DatePeriod{} // Compile-time check

// NewDatePeriod validates the bounds.
func NewDatePeriod(start, end time.Time, field schema.DateKind) (DatePeriod, error) {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return DatePeriod{}, errs.New(errs.KindInvalidArgument, "query.NewDatePeriod",
			"start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return DatePeriod{Start: start, End: end, Field: field}, nil
}

// Filter implements Condition.
func (c DatePeriod) Filter(b QueryBuilder) QueryBuilder {
	field := c.Field
	if field == "" {
		field = b.source.DefaultDate()
	}
	return b.FilterPeriod(c.Start, c.End, field)
}

// OrgAllowlist keeps activity of actors enrolled in one of the organizations
// at the time of the activity.
type OrgAllowlist struct {
	OrgIDs []int64
	Actor  schema.ActorKind
	Field  schema.DateKind
}

var _ Condition = OrgAllowlist{} // Compile-time check

// NewOrgAllowlist validates the organization ids.
func NewOrgAllowlist(ids []int64, actor schema.ActorKind, field schema.DateKind) (OrgAllowlist, error) {
	if len(ids) == 0 {
		return OrgAllowlist{}, errs.New(errs.KindInvalidArgument, "query.NewOrgAllowlist", "empty organization list")
	}
	return OrgAllowlist{OrgIDs: append([]int64(nil), ids...), Actor: actor, Field: field}, nil
}

// ResolveOrgAllowlist looks up organization names and builds the condition.
// An unknown name is an invalid argument.
func ResolveOrgAllowlist(ctx context.Context, resolver contract.OrgResolver, names []string,
	actor schema.ActorKind, field schema.DateKind,
) (OrgAllowlist, error) {
	const op = "query.ResolveOrgAllowlist"
	if err := checkList(op, "organization", names); err != nil {
		return OrgAllowlist{}, err
	}
	found, err := resolver.ResolveOrganizations(ctx, names)
	if err != nil {
		return OrgAllowlist{}, err
	}
	ids := make([]int64, 0, len(names))
	var missing []string
	for _, n := range names {
		id, ok := found[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return OrgAllowlist{}, errs.New(errs.KindInvalidArgument, op,
			"unknown organizations: %s", strings.Join(missing, ", "))
	}
	return NewOrgAllowlist(ids, actor, field)
}

// Filter implements Condition.
func (c OrgAllowlist) Filter(b QueryBuilder) QueryBuilder {
	const op = "query.OrgAllowlist"
	if len(c.OrgIDs) == 0 {
		return b.fail(errs.New(errs.KindInvalidArgument, op, "empty organization list"))
	}
	src := b.source
	actor, field := c.Actor, c.Field
	if actor == "" {
		actor = src.DefaultActor()
	}
	if field == "" {
		field = src.DefaultDate()
	}

	steps, _, err := src.ActorIdentity(actor)
	if err != nil {
		return b.fail(err)
	}
	enroll, err := src.Enrollment(actor)
	if err != nil {
		return b.fail(err)
	}
	date, err := src.DateField(field)
	if err != nil {
		return b.fail(err)
	}
	return b.EnsureJoins(append(steps, enroll)...).Filter(
		In(Col(enroll.Rel, "organization_id"), c.OrgIDs...),
		Gte(date, Col(enroll.Rel, "start")),
		Lt(date, Col(enroll.Rel, "end")),
	)
}

// ActorAllowlist keeps activity of the given unique identities.
type ActorAllowlist struct {
	IDs   []string
	Actor schema.ActorKind
}

var _ Condition = ActorAllowlist{} // Compile-time check

// NewActorAllowlist validates the identities.
func NewActorAllowlist(ids []string, actor schema.ActorKind) (ActorAllowlist, error) {
	if err := checkList("query.NewActorAllowlist", "actor", ids); err != nil {
		return ActorAllowlist{}, err
	}
	return ActorAllowlist{IDs: append([]string(nil), ids...), Actor: actor}, nil
}

// Filter implements Condition.
func (c ActorAllowlist) Filter(b QueryBuilder) QueryBuilder {
	if err := checkList("query.ActorAllowlist", "actor", c.IDs); err != nil {
		return b.fail(err)
	}
	actor := c.Actor
	if actor == "" {
		actor = b.source.DefaultActor()
	}
	steps, uuid, err := b.source.ActorIdentity(actor)
	if err != nil {
		return b.fail(err)
	}
	return b.EnsureJoins(steps...).Filter(In(uuid, c.IDs...))
}

func checkList(op, what string, values []string) error {
	if len(values) == 0 {
		return errs.New(errs.KindInvalidArgument, op, "empty %s list", what)
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return errs.New(errs.KindInvalidArgument, op, "blank %s name", what)
		}
	}
	return nil
}
