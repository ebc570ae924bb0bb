package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/doctor"
	"fluorite-flake/internal/services"
	"fluorite-flake/internal/services/factory"
)

// logCollectTimeout bounds the service_logs tool: a live tail cannot block
// an RPC forever, so collection stops at the line budget or this deadline.
const logCollectTimeout = 5 * time.Second

const defaultLogLines = 100

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("dashboard_overview",
		mcp.WithDescription("Combined dashboard snapshot across all registered services: per-service data, aggregated metrics and insights"),
	), s.handleDashboardOverview)

	s.mcp.AddTool(mcp.NewTool("list_services",
		mcp.WithDescription("List registered service names and the names the factory can build"),
	), s.handleListServices)

	s.mcp.AddTool(mcp.NewTool("service_status",
		mcp.WithDescription("Connection and authentication status per registered service"),
	), s.handleServiceStatus)

	s.mcp.AddTool(mcp.NewTool("service_health",
		mcp.WithDescription("Last health check snapshot per registered service"),
	), s.handleServiceHealth)

	s.mcp.AddTool(mcp.NewTool("service_data",
		mcp.WithDescription("Dashboard snapshot for one service"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered service name")),
		mcp.WithString("resource_type", mcp.Description("Restrict the resource listing to one type")),
		mcp.WithBoolean("skip_metrics", mcp.Description("Skip the metrics sub-fetch")),
	), s.handleServiceData)

	s.mcp.AddTool(mcp.NewTool("service_metrics",
		mcp.WithDescription("Metrics snapshot for one service"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered service name")),
	), s.handleServiceMetrics)

	s.mcp.AddTool(mcp.NewTool("service_logs",
		mcp.WithDescription("Collect recent log entries for one service (bounded, not a stream)"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered service name")),
		mcp.WithNumber("lines", mcp.Description("Maximum entries to collect (default 100)")),
		mcp.WithString("level", mcp.Description("Only entries at this level (e.g. error)")),
	), s.handleServiceLogs)

	s.mcp.AddTool(mcp.NewTool("service_action",
		mcp.WithDescription("Execute a service action; failures come back as structured results"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered service name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Action type")),
		mcp.WithObject("params", mcp.Description("Action parameters (string values)")),
	), s.handleServiceAction)

	s.mcp.AddTool(mcp.NewTool("add_service",
		mcp.WithDescription("Register, authenticate and connect a new service"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Service name the factory knows")),
		mcp.WithObject("config", mcp.Description("Service settings (string values)")),
		mcp.WithObject("auth", mcp.Description("Authentication settings (string values)")),
	), s.handleAddService)

	s.mcp.AddTool(mcp.NewTool("remove_service",
		mcp.WithDescription("Disconnect and deregister a service; removing an unknown name is a no-op"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered service name")),
	), s.handleRemoveService)

	s.mcp.AddTool(mcp.NewTool("insights",
		mcp.WithDescription("Rule-generated observations over the aggregated metrics"),
	), s.handleInsights)

	s.mcp.AddTool(mcp.NewTool("doctor",
		mcp.WithDescription("Check the local environment for required and optional external tools"),
	), s.handleDoctor)
}

func toolJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stringMap coerces an MCP object argument into a string map, skipping
// non-string values.
func stringMap(raw interface{}) map[string]string {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (s *Server) handleDashboardOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.api.GetMultiServiceDashboardData(ctx, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("building overview: %v", err)), nil
	}
	return toolJSON(data)
}

func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolJSON(map[string]interface{}{
		"registered": s.api.GetRegisteredServices(),
		"known":      factory.KnownServices(),
	})
}

func (s *Server) handleServiceStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolJSON(s.api.GetServicesStatus())
}

func (s *Server) handleServiceHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolJSON(s.api.GetServicesHealth())
}

func (s *Server) handleServiceData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	opts := &services.DataOptions{
		ResourceType: request.GetString("resource_type", ""),
		SkipMetrics:  request.GetBool("skip_metrics", false),
	}
	data, err := s.api.GetServiceDashboardData(ctx, name, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching data for %s: %v", name, err)), nil
	}
	return toolJSON(data)
}

func (s *Server) handleServiceMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	metrics, err := s.api.GetServiceMetrics(ctx, name, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching metrics for %s: %v", name, err)), nil
	}
	return toolJSON(metrics)
}

func (s *Server) handleServiceLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	limit := request.GetInt("lines", defaultLogLines)
	if limit <= 0 {
		limit = defaultLogLines
	}

	collectCtx, cancel := context.WithTimeout(ctx, logCollectTimeout)
	defer cancel()

	stream, err := s.api.GetServiceLogs(collectCtx, name, services.LogOptions{
		Lines: limit,
		Level: request.GetString("level", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tailing logs for %s: %v", name, err)), nil
	}

	entries := make([]services.LogEntry, 0, limit)
collect:
	for len(entries) < limit {
		select {
		case entry, ok := <-stream:
			if !ok {
				break collect
			}
			entries = append(entries, entry)
		case <-collectCtx.Done():
			break collect
		}
	}
	return toolJSON(entries)
}

func (s *Server) handleServiceAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	actionType, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type argument is required"), nil
	}

	result, err := s.api.ExecuteServiceAction(ctx, name, services.Action{
		Type:   actionType,
		Params: stringMap(request.GetArguments()["params"]),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("executing action on %s: %v", name, err)), nil
	}
	// Structured failures are valid results, not RPC errors.
	return toolJSON(result)
}

func (s *Server) handleAddService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	args := request.GetArguments()
	svcCfg := config.ServiceConfig(stringMap(args["config"]))
	authCfg := config.AuthConfig(stringMap(args["auth"]))

	if err := s.api.AddService(ctx, name, svcCfg, authCfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("adding %s: %v", name, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("service %s added", name)), nil
}

func (s *Server) handleRemoveService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	if err := s.api.RemoveService(ctx, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("removing %s: %v", name, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("service %s removed", name)), nil
}

func (s *Server) handleInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.api.GetMultiServiceDashboardData(ctx, &services.DataOptions{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("building insights: %v", err)), nil
	}
	return toolJSON(data.Insights)
}

func (s *Server) handleDoctor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := doctor.Run(ctx, s.runner)
	return toolJSON(report)
}
