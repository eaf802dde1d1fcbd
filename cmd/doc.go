// Package cmd provides the command-line interface for the Prometheus MCP server.
//
// This package implements the Cobra CLI framework to provide commands for:
// - Starting the MCP server with various transport options (stdio, sse, http)
// - Managing server configuration and lifecycle
//
// The main entry point is the serve command which loads and validates the
// environment configuration, then starts the MCP server and registers all
// Prometheus-related tools for querying metrics, discovering metrics
// metadata, and retrieving target information. Configuration errors abort
// startup before any transport begins serving.
//
// Environment Variables:
//   - PROMETHEUS_URL: Prometheus server URL (single-tenant mode)
//   - PROMETHEUS_TENANTS: JSON array of named tenant endpoints
//   - PROMETHEUS_DEFAULT_TENANT: tenant used when a call names none
//   - PROMETHEUS_USERNAME: Optional basic auth username
//   - PROMETHEUS_PASSWORD: Optional basic auth password
//   - PROMETHEUS_TOKEN: Optional bearer token for authentication
//   - ORG_ID: Optional organization ID for multi-tenant backends
//
// Example usage:
//
//	prometheus-mcp-server serve --transport stdio
//	prometheus-mcp-server serve --transport sse --http-addr :8080
package cmd
