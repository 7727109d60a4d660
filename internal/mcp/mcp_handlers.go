package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/tenure/core"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	exec    contract.Executor
	mgr     contract.CacheManager
}

// jsonOutput collects report documents as indented JSON instead of printing them.
type jsonOutput struct {
	buf bytes.Buffer
}

var _ contract.OutputWriter = &jsonOutput{} // Compile-time check

func (o *jsonOutput) write(doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	o.buf.Write(data)
	return nil
}

// WriteDurations implements contract.OutputWriter.
func (o *jsonOutput) WriteDurations(doc schema.DurationDocument, _ *contract.Config, _ time.Duration) error {
	return o.write(doc)
}

// WriteSeries implements contract.OutputWriter.
func (o *jsonOutput) WriteSeries(doc schema.SeriesDocument, _ *contract.Config, _ time.Duration) error {
	return o.write(doc)
}

func (h *toolHandler) handleGetActorDurations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	kind, err := schema.ParseDurationKind(request.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid duration parameters: %v", err)), nil
	}
	if err := applyQueryArgs(cfg, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid duration parameters: %v", err)), nil
	}
	if s := request.GetString("snapshot", ""); s != "" {
		if cfg.Snapshot, err = contract.ParseInstant(s, time.Now().UTC()); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid duration parameters: snapshot: %v", err)), nil
		}
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	execute := core.ExecuteAge
	if kind == schema.IdleDuration {
		execute = core.ExecuteIdle
	}
	return h.run(ctx, cfg, execute, string(kind))
}

func (h *toolHandler) handleGetTimeseries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyQueryArgs(cfg, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid timeseries parameters: %v", err)), nil
	}
	if m := request.GetString("metrics", ""); m != "" {
		metrics, err := parseMetrics(m)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid timeseries parameters: %v", err)), nil
		}
		cfg.Metrics = metrics
	}
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = []schema.SeriesMetric{schema.EventsMetric}
	}
	return h.run(ctx, cfg, core.ExecuteTimeseries, core.TimeseriesReport)
}

// run executes a report and returns its JSON document as the tool result.
func (h *toolHandler) run(ctx context.Context, cfg *contract.Config, execute core.ExecutorFunc, report string) (*mcp.CallToolResult, error) {
	if h.exec == nil {
		return mcp.NewToolResultError("no warehouse is configured"), nil
	}
	out := &jsonOutput{}
	if err := execute(core.WithSuppressHeader(ctx), cfg, h.exec, h.mgr, out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s report failed: %v", report, err)), nil
	}
	return mcp.NewToolResultText(out.buf.String()), nil
}

// applyQueryArgs overrides the source, actor, date field, period and
// organizations of cfg from the tool arguments.
func applyQueryArgs(cfg *contract.Config, request mcp.CallToolRequest) error {
	if s := request.GetString("source", ""); s != "" {
		src := schema.DataSource(strings.ToLower(s))
		if _, ok := schema.ValidDataSources[src]; !ok {
			return fmt.Errorf("unknown source %q", s)
		}
		if src != cfg.Source {
			// Actor and date defaults belong to the previous source
			cfg.Source = src
			cfg.Actor = schema.DefaultActorKind(src)
			cfg.DateKind = schema.DefaultDateKind(src)
			cfg.NoMerges = false
			cfg.Branches = nil
		}
	}
	if a := request.GetString("actor", ""); a != "" {
		kind, err := schema.ParseActorKind(strings.ToLower(a))
		if err != nil {
			return err
		}
		cfg.Actor = kind
	}
	if d := request.GetString("date_field", ""); d != "" {
		kind, err := schema.ParseDateKind(strings.ToLower(d))
		if err != nil {
			return err
		}
		cfg.DateKind = kind
	}

	now := time.Now().UTC()
	var err error
	if s := request.GetString("start", ""); s != "" {
		if cfg.StartTime, err = contract.ParseInstant(s, now); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if e := request.GetString("end", ""); e != "" {
		if cfg.EndTime, err = contract.ParseInstant(e, now); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}
	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start %s is after end %s", cfg.StartTime.Format(contract.DateTimeFormat), cfg.EndTime.Format(contract.DateTimeFormat))
	}
	if o := request.GetString("orgs", ""); o != "" {
		cfg.Orgs = splitNames(o)
	}
	return nil
}

func parseMetrics(s string) ([]schema.SeriesMetric, error) {
	var metrics []schema.SeriesMetric
	for _, name := range splitNames(strings.ToLower(s)) {
		m := schema.SeriesMetric(name)
		if _, ok := schema.ValidSeriesMetrics[m]; !ok {
			return nil, fmt.Errorf("unknown metric %q", name)
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
