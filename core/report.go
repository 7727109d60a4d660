// Package core composes warehouse queries into tenure reports.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/tenure/core/activity"
	"github.com/huangsam/tenure/core/query"
	"github.com/huangsam/tenure/core/timeseries"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/logger"
	"github.com/huangsam/tenure/internal/metrics"
	"github.com/huangsam/tenure/schema"
)

// Report names, as recorded in history and metrics.
const (
	AgeReport        = "age"
	IdleReport       = "idle"
	TimeseriesReport = "timeseries"
)

// ExecutorFunc runs one report against a warehouse and writes its output.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, exec contract.Executor, mgr contract.CacheManager, out contract.OutputWriter) error

// ExecuteAge reports the age of every actor: the time from first activity to the snapshot.
func ExecuteAge(ctx context.Context, cfg *contract.Config, exec contract.Executor, mgr contract.CacheManager, out contract.OutputWriter) error {
	return executeDurations(ctx, cfg, schema.AgeDuration, exec, mgr, out)
}

// ExecuteIdle reports how long every actor has been inactive at the snapshot.
func ExecuteIdle(ctx context.Context, cfg *contract.Config, exec contract.Executor, mgr contract.CacheManager, out contract.OutputWriter) error {
	return executeDurations(ctx, cfg, schema.IdleDuration, exec, mgr, out)
}

// ExecuteTimeseries reports the configured metrics for every month in the period.
func ExecuteTimeseries(ctx context.Context, cfg *contract.Config, exec contract.Executor, mgr contract.CacheManager, out contract.OutputWriter) error {
	start := time.Now()
	logReportHeader(ctx, cfg, TimeseriesReport)

	ctx, cancel := withQueryTimeout(ctx, cfg)
	defer cancel()
	ctx = beginRun(ctx, cfg, TimeseriesReport, mgr)

	series, err := MonthlySeries(ctx, cfg, exec, newResolver(cfg, exec))
	if err != nil {
		return err
	}
	doc := series.Document(cfg.Metrics...)
	recordSeries(ctx, mgr, doc)
	endRun(ctx, mgr, series.Len())
	finishReport(cfg, TimeseriesReport)

	return out.WriteSeries(doc, cfg, time.Since(start))
}

func executeDurations(ctx context.Context, cfg *contract.Config, kind schema.DurationKind, exec contract.Executor, mgr contract.CacheManager, out contract.OutputWriter) error {
	start := time.Now()
	report := string(kind)
	logReportHeader(ctx, cfg, report)

	ctx, cancel := withQueryTimeout(ctx, cfg)
	defer cancel()
	ctx = beginRun(ctx, cfg, report, mgr)

	result, err := ActorDurations(ctx, cfg, kind, exec, newResolver(cfg, exec))
	if err != nil {
		return err
	}
	doc := LimitDocument(result.Document(), cfg.ResultLimit)
	recordDurations(ctx, mgr, doc)
	endRun(ctx, mgr, doc.Len())
	finishReport(cfg, report)

	return out.WriteDurations(doc, cfg, time.Since(start))
}

// Conditions builds the condition pipeline shared by every report: period,
// merges, branches, organizations and actors. Organizations are resolved
// through resolver.
func Conditions(ctx context.Context, cfg *contract.Config, resolver contract.OrgResolver) (query.Pipeline, error) {
	period, err := query.NewDatePeriod(cfg.StartTime, cfg.EndTime, cfg.DateKind)
	if err != nil {
		return nil, err
	}
	pipeline := query.Pipeline{period}

	if cfg.NoMerges {
		pipeline = append(pipeline, query.NoMerges{})
	}
	if len(cfg.Branches) > 0 {
		branches, err := query.NewBranchAllowlist(cfg.Branches...)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, branches)
	}
	if len(cfg.Orgs) > 0 {
		orgs, err := query.ResolveOrgAllowlist(ctx, resolver, cfg.Orgs, cfg.Actor, cfg.DateKind)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, orgs)
	}
	if len(cfg.ActorIDs) > 0 {
		actors, err := query.NewActorAllowlist(cfg.ActorIDs, cfg.Actor)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, actors)
	}
	return pipeline, nil
}

// ActorDurations runs the actor activity query and derives age or idle durations.
// Actors come back ordered by unique identity.
func ActorDurations(ctx context.Context, cfg *contract.Config, kind schema.DurationKind, exec contract.Executor, resolver contract.OrgResolver) (activity.ActorsDuration, error) {
	cfg = withSourceDefaults(cfg)
	src, err := query.SourceFor(cfg.Source, query.SourceOptions{IdentitySchema: cfg.IdentitySchema})
	if err != nil {
		return activity.ActorsDuration{}, err
	}
	pipeline, err := Conditions(ctx, cfg, resolver)
	if err != nil {
		return activity.ActorsDuration{}, err
	}
	b, err := pipeline.Apply(query.NewQueryBuilder(src))
	if err != nil {
		return activity.ActorsDuration{}, err
	}
	_, uuid, err := src.ActorIdentity(cfg.Actor)
	if err != nil {
		return activity.ActorsDuration{}, err
	}
	b = b.SelectActorData(cfg.Actor).
		SelectActivityPeriod(cfg.DateKind).
		GroupByActor().
		OrderBy(query.Asc(uuid))

	list, err := b.ToActivityList(ctx, exec)
	if err != nil {
		return activity.ActorsDuration{}, fmt.Errorf("failed to read actor activity: %w", err)
	}
	logger.Named("core").Debug().Int("actors", list.Len()).Str("source", string(cfg.Source)).Msg("Assembled activity list")

	return activity.NewDurationPersons(kind, list, durationModifiers(cfg)...).Result()
}

// durationModifiers maps the configured snapshot, window and offset to modifiers.
func durationModifiers(cfg *contract.Config) []activity.Modifier {
	var mods []activity.Modifier
	if !cfg.Snapshot.IsZero() {
		mods = append(mods, activity.Snapshot{At: cfg.Snapshot})
	}
	if !cfg.ActiveAfter.IsZero() || !cfg.ActiveBefore.IsZero() {
		mods = append(mods, activity.ActiveWindow{After: cfg.ActiveAfter, Before: cfg.ActiveBefore})
	}
	if cfg.Offset != 0 {
		mods = append(mods, activity.Offset{By: cfg.Offset})
	}
	return mods
}

// MonthlySeries runs the grouped query for the configured metrics and fills
// every month of the period.
func MonthlySeries(ctx context.Context, cfg *contract.Config, exec contract.Executor, resolver contract.OrgResolver) (timeseries.TimeSeries, error) {
	if len(cfg.Metrics) == 0 {
		return timeseries.TimeSeries{}, fmt.Errorf("at least one time series metric is required")
	}
	cfg = withSourceDefaults(cfg)
	src, err := query.SourceFor(cfg.Source, query.SourceOptions{IdentitySchema: cfg.IdentitySchema})
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	pipeline, err := Conditions(ctx, cfg, resolver)
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	b, err := pipeline.Apply(query.NewQueryBuilder(src))
	if err != nil {
		return timeseries.TimeSeries{}, err
	}
	// The period condition has fixed the date field the months are taken from.
	b = b.ForActor(cfg.Actor).GroupByPeriod()
	for _, m := range cfg.Metrics {
		b = b.SelectSeriesMetric(m)
	}

	series, err := b.ToTimeSeries(ctx, exec)
	if err != nil {
		return timeseries.TimeSeries{}, fmt.Errorf("failed to build time series: %w", err)
	}
	return series, nil
}

// LimitDocument keeps the first limit actors. A limit of zero keeps all.
func LimitDocument(doc schema.DurationDocument, limit int) schema.DurationDocument {
	if limit <= 0 || limit >= doc.Len() {
		return doc
	}
	doc.IDs = doc.IDs[:limit]
	doc.Names = doc.Names[:limit]
	doc.Days = doc.Days[:limit]
	return doc
}

// withSourceDefaults fills an unset source, actor or date field.
func withSourceDefaults(cfg *contract.Config) *contract.Config {
	if cfg.Source != "" && cfg.Actor != "" && cfg.DateKind != "" {
		return cfg
	}
	c := cfg.Clone()
	if c.Source == "" {
		c.Source = schema.SCMSource
	}
	if c.Actor == "" {
		c.Actor = schema.DefaultActorKind(c.Source)
	}
	if c.DateKind == "" {
		c.DateKind = schema.DefaultDateKind(c.Source)
	}
	return c
}

func newResolver(cfg *contract.Config, exec contract.Executor) contract.OrgResolver {
	return query.NewResolver(exec, query.SourceOptions{IdentitySchema: cfg.IdentitySchema})
}

func withQueryTimeout(ctx context.Context, cfg *contract.Config) (context.Context, context.CancelFunc) {
	if cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.QueryTimeout)
}

// finishReport marks the report in metrics and flushes the textfile.
func finishReport(cfg *contract.Config, report string) {
	metrics.RecordReport(report, time.Now())
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		contract.LogWarn("Failed to write metrics textfile", err)
	}
}

// logReportHeader logs what is about to be queried.
func logReportHeader(ctx context.Context, cfg *contract.Config, report string) {
	if shouldSuppressHeader(ctx) {
		return
	}
	ev := logger.Named("core").Info().
		Str("report", report).
		Str("source", string(cfg.Source)).
		Str("warehouse", string(cfg.WarehouseBackend)).
		Str("actor", string(cfg.Actor)).
		Str("date_field", string(cfg.DateKind))
	if !cfg.StartTime.IsZero() {
		ev = ev.Time("start", cfg.StartTime)
	}
	if !cfg.EndTime.IsZero() {
		ev = ev.Time("end", cfg.EndTime)
	}
	ev.Msg("Running report")
}
