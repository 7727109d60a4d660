package core

import (
	"context"
	"strings"
	"time"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/schema"
)

// beginRun records the start of a report when a history store is configured.
// The run id travels in the returned context.
func beginRun(ctx context.Context, cfg *contract.Config, report string, mgr contract.CacheManager) context.Context {
	store := historyStore(mgr)
	if store == nil {
		return ctx
	}
	runID, err := store.BeginRun(report, cfg.Source, time.Now(), runParams(cfg))
	if err != nil {
		contract.LogWarn("Report history initialization failed", err)
		return ctx
	}
	if runID <= 0 {
		return ctx
	}
	return withRunID(ctx, runID)
}

// runParams is the configuration stored alongside a run.
func runParams(cfg *contract.Config) map[string]any {
	params := map[string]any{
		"source":       string(cfg.Source),
		"warehouse":    string(cfg.WarehouseBackend),
		"actor":        string(cfg.Actor),
		"date_field":   string(cfg.DateKind),
		"result_limit": cfg.ResultLimit,
	}
	optionalTime := func(key string, t time.Time) {
		if !t.IsZero() {
			params[key] = t.UTC().Format(time.RFC3339)
		}
	}
	optionalTime("start", cfg.StartTime)
	optionalTime("end", cfg.EndTime)
	optionalTime("snapshot", cfg.Snapshot)
	optionalTime("active_after", cfg.ActiveAfter)
	optionalTime("active_before", cfg.ActiveBefore)
	if cfg.Offset != 0 {
		params["offset"] = cfg.Offset.String()
	}
	if cfg.NoMerges {
		params["no_merges"] = true
	}
	if len(cfg.Branches) > 0 {
		params["branches"] = strings.Join(cfg.Branches, ",")
	}
	if len(cfg.Orgs) > 0 {
		params["orgs"] = strings.Join(cfg.Orgs, ",")
	}
	if len(cfg.ActorIDs) > 0 {
		params["actors"] = strings.Join(cfg.ActorIDs, ",")
	}
	if len(cfg.Metrics) > 0 {
		metrics := make([]string, len(cfg.Metrics))
		for i, m := range cfg.Metrics {
			metrics[i] = string(m)
		}
		params["metrics"] = strings.Join(metrics, ",")
	}
	return params
}

func recordDurations(ctx context.Context, mgr contract.CacheManager, doc schema.DurationDocument) {
	store, runID := historyStore(mgr), runIDFrom(ctx)
	if store == nil || runID == 0 {
		return
	}
	if err := store.RecordDurations(runID, doc); err != nil {
		contract.LogWarn("Failed to record actor durations", err)
	}
}

func recordSeries(ctx context.Context, mgr contract.CacheManager, doc schema.SeriesDocument) {
	store, runID := historyStore(mgr), runIDFrom(ctx)
	if store == nil || runID == 0 {
		return
	}
	if err := store.RecordSeries(runID, doc); err != nil {
		contract.LogWarn("Failed to record time series", err)
	}
}

func endRun(ctx context.Context, mgr contract.CacheManager, rowCount int) {
	store, runID := historyStore(mgr), runIDFrom(ctx)
	if store == nil || runID == 0 {
		return
	}
	if err := store.EndRun(runID, time.Now(), rowCount); err != nil {
		contract.LogWarn("Failed to finalize report history", err)
	}
}

func historyStore(mgr contract.CacheManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}
