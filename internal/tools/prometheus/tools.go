package prometheus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/common/model"

	"github.com/shyoon1991/prometheus-mcp-server/internal/server"
)

// RegisterPrometheusTools registers the Prometheus tools with the MCP
// server. Tool names gain the configured prefix, and every backend tool
// accepts an optional tenant argument when multiple tenants are configured.
func RegisterPrometheusTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	cfg := sc.Config()

	registry := NewRegistry(cfg)
	pool := NewClientPool(cfg.RequestTimeout)
	dispatcher := NewDispatcher(registry, pool, cfg, sc.Logger())

	prefix := cfg.ToolPrefix

	s.AddTool(mcp.NewTool(toolName(prefix, "health_check"),
		mcp.WithDescription("Check connectivity to the configured Prometheus backend"),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name when PROMETHEUS_TENANTS is configured"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		tenant, _ := args["tenant"].(string)
		return toToolResult(dispatcher.HealthCheck(ctx, tenant))
	})

	s.AddTool(mcp.NewTool(toolName(prefix, "execute_query"),
		mcp.WithDescription("Execute a PromQL instant query against Prometheus"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("time",
			mcp.Description("Optional RFC3339 or Unix timestamp (default: current time)"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name when PROMETHEUS_TENANTS is configured"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required and must be a string"), nil
		}
		timeParam, _ := args["time"].(string)
		tenant, _ := args["tenant"].(string)

		sc.Logger().Debug("Executing PromQL query", "query", query, "time", timeParam, "tenant", tenant)
		return toToolResult(dispatcher.ExecuteQuery(ctx, QueryArgs{Query: query, Time: timeParam, Tenant: tenant}))
	})

	s.AddTool(mcp.NewTool(toolName(prefix, "execute_range_query"),
		mcp.WithDescription("Execute a PromQL range query with start time, end time, and step interval"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time as RFC3339 or Unix timestamp"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time as RFC3339 or Unix timestamp"),
		),
		mcp.WithString("step",
			mcp.Required(),
			mcp.Description("Query resolution step width (e.g., '15s', '1m', '1h')"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name when PROMETHEUS_TENANTS is configured"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		rangeArgs := RangeQueryArgs{}
		for _, p := range []struct {
			name string
			dst  *string
		}{
			{"query", &rangeArgs.Query},
			{"start", &rangeArgs.Start},
			{"end", &rangeArgs.End},
			{"step", &rangeArgs.Step},
		} {
			value, ok := args[p.name].(string)
			if !ok || value == "" {
				return mcp.NewToolResultError(fmt.Sprintf("%s parameter is required and must be a string", p.name)), nil
			}
			*p.dst = value
		}
		if _, err := model.ParseDuration(rangeArgs.Step); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid step duration %q: %v", rangeArgs.Step, err)), nil
		}
		rangeArgs.Tenant, _ = args["tenant"].(string)

		sc.Logger().Debug("Executing PromQL range query",
			"query", rangeArgs.Query, "start", rangeArgs.Start, "end", rangeArgs.End, "step", rangeArgs.Step, "tenant", rangeArgs.Tenant)
		return toToolResult(dispatcher.ExecuteRangeQuery(ctx, rangeArgs))
	})

	s.AddTool(mcp.NewTool(toolName(prefix, "list_metrics"),
		mcp.WithDescription("List available metric names with optional filtering and pagination"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of metrics to return (default: all)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of metrics to skip for pagination (default: 0)"),
		),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive substring to filter metric names"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name when PROMETHEUS_TENANTS is configured"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		listArgs := ListMetricsArgs{
			Limit:  intArg(args, "limit", -1),
			Offset: intArg(args, "offset", 0),
		}
		listArgs.Filter, _ = args["filter"].(string)
		listArgs.Tenant, _ = args["tenant"].(string)

		sc.Logger().Debug("Listing metrics", "limit", listArgs.Limit, "offset", listArgs.Offset, "filter", listArgs.Filter, "tenant", listArgs.Tenant)
		return toToolResult(dispatcher.ListMetrics(ctx, listArgs))
	})

	s.AddTool(mcp.NewTool(toolName(prefix, "get_metric_metadata"),
		mcp.WithDescription("Get metadata for a specific metric"),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("The name of the metric to retrieve metadata for"),
		),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name when PROMETHEUS_TENANTS is configured"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		metric, ok := args["metric"].(string)
		if !ok || metric == "" {
			return mcp.NewToolResultError("metric parameter is required and must be a string"), nil
		}
		tenant, _ := args["tenant"].(string)

		sc.Logger().Debug("Getting metric metadata", "metric", metric, "tenant", tenant)
		return toToolResult(dispatcher.GetMetricMetadata(ctx, metric, tenant))
	})

	s.AddTool(mcp.NewTool(toolName(prefix, "get_targets"),
		mcp.WithDescription("Get information about all scrape targets"),
		mcp.WithString("tenant",
			mcp.Description("Optional tenant name when PROMETHEUS_TENANTS is configured"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		tenant, _ := args["tenant"].(string)

		sc.Logger().Debug("Getting targets", "tenant", tenant)
		return toToolResult(dispatcher.GetTargets(ctx, tenant))
	})

	s.AddTool(mcp.NewTool(toolName(prefix, "list_tenants"),
		mcp.WithDescription("List configured Prometheus tenants"),
		mcp.WithBoolean("include_urls",
			mcp.Description("Include tenant URLs in the response (default: false)"),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		includeURLs, _ := args["include_urls"].(bool)
		return toToolResult(dispatcher.ListTenants(includeURLs))
	})

	return nil
}

// toolName applies the configured prefix to a tool base name.
func toolName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// arguments extracts the raw argument map from a tool call request.
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if argsMap, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return argsMap
	}
	return map[string]interface{}{}
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// toToolResult serializes a dispatch outcome as an MCP tool result.
// Dispatch errors become tool-level errors, never Go errors, so the
// transport layer always receives a well-formed response.
func toToolResult(result ToolResult) (*mcp.CallToolResult, error) {
	if result.IsError() {
		return mcp.NewToolResultError(result.Err.Error()), nil
	}
	payload, err := json.MarshalIndent(result.Payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
