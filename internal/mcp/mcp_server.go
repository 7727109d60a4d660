// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the tenure MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, exec contract.Executor, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Tenure Activity Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		exec:    exec,
		mgr:     mgr,
	}

	// --- 1. Tool: get_actor_durations ---
	s.AddTool(mcp.NewTool("get_actor_durations",
		mcp.WithDescription("Compute how long each contributor has been around (age) or inactive (idle), in days."),
		mcp.WithString("kind", mcp.Description("Duration to compute."), mcp.Required(), mcp.Enum("age", "idle")),
		mcp.WithString("source", mcp.Description("Data source (scm, its, mls). Defaults to the server configuration."), mcp.Enum("scm", "its", "mls")),
		mcp.WithString("actor", mcp.Description("Actor role (authors, committers, changers, senders).")),
		mcp.WithString("date_field", mcp.Description("Date used for activity (commit-date, author-date, change-date, arrival-date, first-date).")),
		mcp.WithString("start", mcp.Description("Only count activity at or after this date (e.g. '2012-01-01' or '2 years ago').")),
		mcp.WithString("end", mcp.Description("Only count activity before this date.")),
		mcp.WithString("snapshot", mcp.Description("Instant durations are measured at. Defaults to the latest activity.")),
		mcp.WithString("orgs", mcp.Description("Comma separated organization names to restrict to.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of actors returned.")),
	), h.handleGetActorDurations)

	// --- 2. Tool: get_timeseries ---
	s.AddTool(mcp.NewTool("get_timeseries",
		mcp.WithDescription("Count events and active contributors for every month of a period."),
		mcp.WithString("source", mcp.Description("Data source (scm, its, mls)."), mcp.Enum("scm", "its", "mls")),
		mcp.WithString("metrics", mcp.Description("Comma separated metrics: events, actors. Defaults to events.")),
		mcp.WithString("actor", mcp.Description("Actor role counted by the actors metric.")),
		mcp.WithString("date_field", mcp.Description("Date that assigns activity to a month.")),
		mcp.WithString("start", mcp.Description("First instant of the period.")),
		mcp.WithString("end", mcp.Description("End of the period (exclusive).")),
		mcp.WithString("orgs", mcp.Description("Comma separated organization names to restrict to.")),
	), h.handleGetTimeseries)

	return s
}

// StartMCPServer starts the tenure MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, exec contract.Executor, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, exec, mgr)
	return server.ServeStdio(s)
}
