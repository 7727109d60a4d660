package query_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/tenure/core/activity"
	"github.com/huangsam/tenure/core/query"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/internal/warehouse/warehousetest"
	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func year(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }

type span struct{ first, last time.Time }

func periods(t *testing.T, list activity.ActivityList) map[string]span {
	t.Helper()
	out := map[string]span{}
	for _, e := range list.Entries() {
		_, dup := out[e.ID]
		require.False(t, dup, "duplicate actor %s", e.ID)
		out[e.ID] = span{e.Period.Start, e.Period.End}
	}
	return out
}

func assertPeriods(t *testing.T, want map[string]span, list activity.ActivityList) {
	t.Helper()
	got := periods(t, list)
	require.Len(t, got, len(want))
	for id, w := range want {
		g, ok := got[id]
		require.True(t, ok, "missing actor %s", id)
		assert.True(t, w.first.Equal(g.first), "%s first: want %s got %s", id, w.first, g.first)
		assert.True(t, w.last.Equal(g.last), "%s last: want %s got %s", id, w.last, g.last)
	}
}

func commitCount(t *testing.T, exec contract.Executor, conds ...query.Condition) float64 {
	t.Helper()
	b, err := query.Pipeline(conds).Apply(query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})))
	require.NoError(t, err)
	n, err := b.SelectColumns(query.As(query.CountDistinct(query.Col(query.RelSCMLog, "id")), "commits")).
		ToScalar(context.Background(), exec)
	require.NoError(t, err)
	return n
}

func TestActivityPerSource(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		src   query.QuerySource
		actor schema.ActorKind
		date  schema.DateKind
		want  map[string]span
	}{
		{
			name: "scm authors", src: query.NewSCM(query.SourceOptions{}), actor: schema.Authors, date: schema.CommitDate,
			want: map[string]span{
				"u-alice": {at("2012-01-15 10:00:00"), at("2013-02-14 14:00:00")},
				"u-bob":   {at("2012-03-10 12:00:00"), at("2013-01-10 09:15:00")},
				"u-carol": {at("2012-06-05 11:00:00"), at("2012-06-05 11:00:00")},
			},
		},
		{
			name: "scm authors by author date", src: query.NewSCM(query.SourceOptions{}), actor: schema.Authors, date: schema.AuthorDate,
			want: map[string]span{
				"u-alice": {at("2012-01-14 09:00:00"), at("2013-02-14 14:00:00")},
				"u-bob":   {at("2012-03-01 08:00:00"), at("2012-12-24 18:00:00")},
				"u-carol": {at("2012-06-05 11:00:00"), at("2012-06-05 11:00:00")},
			},
		},
		{
			name: "scm committers", src: query.NewSCM(query.SourceOptions{}), actor: schema.Committers, date: schema.CommitDate,
			want: map[string]span{
				"u-alice": {at("2012-01-15 10:00:00"), at("2013-02-14 14:00:00")},
				"u-bob":   {at("2013-01-10 09:15:00"), at("2013-01-10 09:15:00")},
				"u-carol": {at("2012-06-05 11:00:00"), at("2012-06-05 11:00:00")},
			},
		},
		{
			name: "its changers", src: query.NewITS(query.SourceOptions{}), actor: schema.Changers, date: schema.ChangeDate,
			want: map[string]span{
				"u-alice": {at("2012-02-01 10:00:00"), at("2012-02-01 10:00:00")},
				"u-bob":   {at("2012-02-15 10:00:00"), at("2012-05-01 10:00:00")},
			},
		},
		{
			name: "mls senders", src: query.NewMLS(query.SourceOptions{}), actor: schema.Senders, date: schema.ArrivalDate,
			want: map[string]span{
				"u-alice": {at("2012-04-02 08:00:00"), at("2012-07-10 08:00:00")},
				"u-bob":   {at("2012-04-03 08:00:00"), at("2012-04-03 08:00:00")},
			},
		},
		{
			name: "mls senders by first date", src: query.NewMLS(query.SourceOptions{}), actor: schema.Senders, date: schema.FirstDate,
			want: map[string]span{
				"u-alice": {at("2012-04-01 23:00:00"), at("2012-07-10 07:00:00")},
				"u-bob":   {at("2012-04-03 07:00:00"), at("2012-04-03 07:00:00")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := actorActivity(tt.src, tt.actor, tt.date).ToActivityList(ctx, w)
			require.NoError(t, err)
			assertPeriods(t, tt.want, list)
		})
	}
}

func TestNamesFallBackToIdentity(t *testing.T) {
	w := warehousetest.OpenAll(t)
	list, err := actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate).
		ToActivityList(context.Background(), w)
	require.NoError(t, err)

	names := map[string]string{}
	for _, e := range list.Entries() {
		names[e.ID] = e.Name
	}
	assert.Equal(t, map[string]string{"u-alice": "Alice", "u-bob": "Bob", "u-carol": "u-carol"}, names)
}

func TestSingleConditions(t *testing.T) {
	w := warehousetest.OpenAll(t)
	master, err := query.NewBranchAllowlist("master")
	require.NoError(t, err)
	dev, err := query.NewBranchAllowlist("dev")
	require.NoError(t, err)
	both, err := query.NewBranchAllowlist("master", "dev")
	require.NoError(t, err)
	period, err := query.NewDatePeriod(year(2012), year(2013), schema.CommitDate)
	require.NoError(t, err)
	openEnded, err := query.NewDatePeriod(year(2013), time.Time{}, "")
	require.NoError(t, err)

	assert.Equal(t, 6.0, commitCount(t, w))
	assert.Equal(t, 5.0, commitCount(t, w, query.NoMerges{}))
	assert.Equal(t, 3.0, commitCount(t, w, master))
	assert.Equal(t, 2.0, commitCount(t, w, dev))
	assert.Equal(t, 5.0, commitCount(t, w, both))
	assert.Equal(t, 4.0, commitCount(t, w, period))
	assert.Equal(t, 2.0, commitCount(t, w, openEnded))
}

func TestConditionOrderIndependence(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ctx := context.Background()

	master, err := query.NewBranchAllowlist("master")
	require.NoError(t, err)
	period, err := query.NewDatePeriod(year(2012), year(2013), schema.CommitDate)
	require.NoError(t, err)
	orgs, err := query.ResolveOrgAllowlist(ctx, query.NewResolver(w, query.SourceOptions{}),
		[]string{"Bitergia"}, schema.Authors, schema.CommitDate)
	require.NoError(t, err)

	t.Run("three conditions", func(t *testing.T) {
		for _, perm := range permutations([]query.Condition{query.NoMerges{}, master, period}) {
			assert.Equal(t, 2.0, commitCount(t, w, perm...), "order %v", perm)

			b, err := query.Pipeline(perm).Apply(actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate))
			require.NoError(t, err)
			list, err := b.ToActivityList(ctx, w)
			require.NoError(t, err)
			assertPeriods(t, map[string]span{
				"u-alice": {at("2012-01-15 10:00:00"), at("2012-01-15 10:00:00")},
				"u-bob":   {at("2012-03-10 12:00:00"), at("2012-03-10 12:00:00")},
			}, list)
		}
	})

	t.Run("with organizations", func(t *testing.T) {
		for _, perm := range permutations([]query.Condition{query.NoMerges{}, master, period, orgs}) {
			assert.Equal(t, 1.0, commitCount(t, w, perm...), "order %v", perm)
		}
	})

	t.Run("conditions after selection", func(t *testing.T) {
		for _, perm := range permutations([]query.Condition{orgs, master}) {
			b := actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate)
			b, err := query.Pipeline(perm).Apply(b)
			require.NoError(t, err)
			list, err := b.ToActivityList(ctx, w)
			require.NoError(t, err)
			assertPeriods(t, map[string]span{
				"u-alice": {at("2012-01-15 10:00:00"), at("2012-01-15 10:00:00")},
			}, list)
		}
	})
}

func TestConditionsAreIdempotent(t *testing.T) {
	w := warehousetest.OpenAll(t)
	master, err := query.NewBranchAllowlist("master")
	require.NoError(t, err)
	period, err := query.NewDatePeriod(year(2012), year(2013), schema.CommitDate)
	require.NoError(t, err)
	actors, err := query.NewActorAllowlist([]string{"u-bob"}, schema.Authors)
	require.NoError(t, err)

	for _, c := range []query.Condition{query.NoMerges{}, master, period, actors} {
		t.Run(fmt.Sprintf("%T", c), func(t *testing.T) {
			assert.Equal(t, commitCount(t, w, c), commitCount(t, w, c, c))
		})
	}
}

func TestOrgAllowlist(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ctx := context.Background()
	resolver := query.NewResolver(w, query.SourceOptions{})

	acme, err := query.ResolveOrgAllowlist(ctx, resolver, []string{"Acme"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, acme.OrgIDs)

	b, err := query.Pipeline{acme}.Apply(actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate))
	require.NoError(t, err)
	list, err := b.ToActivityList(ctx, w)
	require.NoError(t, err)
	assertPeriods(t, map[string]span{
		"u-alice": {at("2013-02-14 14:00:00"), at("2013-02-14 14:00:00")},
		"u-bob":   {at("2012-03-10 12:00:00"), at("2013-01-10 09:15:00")},
	}, list)

	_, err = query.ResolveOrgAllowlist(ctx, resolver, []string{"Acme", "Nope"}, schema.Authors, schema.CommitDate)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "Nope")
}

func TestOrgAllowlistOnMailingLists(t *testing.T) {
	w := warehousetest.OpenAll(t)
	ctx := context.Background()
	orgs, err := query.NewOrgAllowlist([]int64{1}, schema.Senders, schema.ArrivalDate)
	require.NoError(t, err)

	b, err := query.Pipeline{orgs}.Apply(actorActivity(query.NewMLS(query.SourceOptions{}), schema.Senders, schema.ArrivalDate))
	require.NoError(t, err)
	list, err := b.ToActivityList(ctx, w)
	require.NoError(t, err)
	assertPeriods(t, map[string]span{
		"u-alice": {at("2012-04-02 08:00:00"), at("2012-07-10 08:00:00")},
	}, list)
}

func TestActorAllowlist(t *testing.T) {
	w := warehousetest.OpenAll(t)
	actors, err := query.NewActorAllowlist([]string{"u-bob", "u-carol"}, schema.Authors)
	require.NoError(t, err)

	b, err := query.Pipeline{actors}.Apply(actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate))
	require.NoError(t, err)
	list, err := b.ToActivityList(context.Background(), w)
	require.NoError(t, err)
	assert.Len(t, periods(t, list), 2)
}

func TestConditionValidation(t *testing.T) {
	_, err := query.NewBranchAllowlist()
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = query.NewBranchAllowlist("master", " ")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = query.NewOrgAllowlist(nil, schema.Authors, schema.CommitDate)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = query.NewActorAllowlist(nil, schema.Authors)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = query.NewDatePeriod(year(2013), year(2012), schema.CommitDate)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	resolver := &contract.MockOrgResolver{}
	_, err = query.ResolveOrgAllowlist(context.Background(), resolver, nil, schema.Authors, schema.CommitDate)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	resolver.AssertNotCalled(t, "ResolveOrganizations", mock.Anything, mock.Anything)
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	scm := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{}))
	calls := 0
	counting := query.ConditionFunc(func(b query.QueryBuilder) query.QueryBuilder {
		calls++
		return b
	})

	_, err := query.Pipeline{query.BranchAllowlist{}, counting}.Apply(scm)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	assert.Equal(t, 0, calls)

	its := query.NewQueryBuilder(query.NewITS(query.SourceOptions{}))
	_, err = query.Pipeline{query.NoMerges{}, counting}.Apply(its)
	assert.ErrorIs(t, err, errs.ErrUnknownJoin)
	assert.Equal(t, 0, calls)

	_, err = query.Pipeline{nil, counting}.Apply(scm)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCompositionErrorNeverReachesExecutor(t *testing.T) {
	exec := &contract.MockExecutor{}
	b := query.NewQueryBuilder(query.NewITS(query.SourceOptions{})).
		SelectActorData(schema.Authors).
		SelectActivityPeriod(schema.ChangeDate).
		GroupByActor()

	_, err := b.ToActivityList(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestToActivityListRequiresLabels(t *testing.T) {
	exec := &contract.MockExecutor{}
	b := query.NewQueryBuilder(query.NewSCM(query.SourceOptions{})).SelectActorData(schema.Authors)

	_, err := b.ToActivityList(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "firstdate")
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestTerminalsSurfaceExecutorFailures(t *testing.T) {
	exec := &contract.MockExecutor{}
	exec.On("Backend").Return(schema.PostgreSQLBackend)
	exec.On("Execute", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	_, err := actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate).
		ToActivityList(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute query: connection reset")
}

func TestMalformedRowsFromExecutor(t *testing.T) {
	exec := &contract.MockExecutor{}
	exec.On("Backend").Return(schema.SQLiteBackend)
	exec.On("Execute", mock.Anything, mock.Anything).Return([]schema.Row{
		{"person_id": "u-alice", "name": "Alice", "firstdate": nil, "lastdate": "2012-01-01 00:00:00"},
	}, nil)

	_, err := actorActivity(query.NewSCM(query.SourceOptions{}), schema.Authors, schema.CommitDate).
		ToActivityList(context.Background(), exec)
	assert.ErrorIs(t, err, errs.ErrMalformedRow)
}

func permutations(in []query.Condition) [][]query.Condition {
	if len(in) <= 1 {
		return [][]query.Condition{append([]query.Condition(nil), in...)}
	}
	var out [][]query.Condition
	for i := range in {
		rest := make([]query.Condition, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]query.Condition{in[i]}, p...))
		}
	}
	return out
}
