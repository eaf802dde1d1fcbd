// Package prometheus provides MCP tools for interacting with Prometheus servers.
//
// This package implements the following MCP tools:
//
// Query Tools:
//   - execute_query: Execute PromQL instant queries
//   - execute_range_query: Execute PromQL range queries with time bounds
//
// Discovery Tools:
//   - list_metrics: List available metrics with filtering and pagination
//   - get_metric_metadata: Get metadata for specific metrics
//   - get_targets: Get information about scrape targets
//
// Operational Tools:
//   - health_check: Probe backend connectivity
//   - list_tenants: List configured tenants and the default tenant
//
// Multi-tenant support:
// When PROMETHEUS_TENANTS is configured, every backend tool accepts an
// optional "tenant" argument that selects the target endpoint. Each tenant
// carries its own URL, credentials, org ID, custom headers and TLS policy,
// and gets its own lazily-created, connection-pooled HTTP client. Without
// a tenant list, the top-level PROMETHEUS_URL acts as a single implicit
// tenant and the argument is ignored.
//
// Authentication Support:
//   - Basic authentication via username/password
//   - Bearer token authentication
//   - Multi-tenant organization ID headers
//
// Exactly one authentication method may be configured per tenant; setting
// both a token and a username/password pair is rejected at startup.
//
// Example tool usage:
//
//	execute_query: {"query": "up", "tenant": "prod"}
//	execute_range_query: {"query": "rate(http_requests_total[5m])", "start": "2023-01-01T00:00:00Z", "end": "2023-01-01T01:00:00Z", "step": "1m"}
//	list_metrics: {"limit": 100, "filter": "http"}
//	get_metric_metadata: {"metric": "http_requests_total"}
//	get_targets: {}
//	list_tenants: {"include_urls": true}
package prometheus
