// Package server provides the core server infrastructure for the
// Prometheus MCP server.
//
// This package contains:
// - Config: immutable environment-sourced configuration, validated at startup
// - ConfigError: fatal configuration error taxonomy
// - ServerContext: configuration and shared resources management
// - Logger interface: structured logging abstraction
//
// The configuration is loaded exactly once via LoadConfig and passed by
// reference into the tenant registry and client pool; no component reads
// the environment after startup. A *ConfigError from LoadConfig means the
// process must not reach a serving state.
//
// Example usage:
//
//	cfg, err := server.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	serverContext, err := server.NewServerContext(ctx,
//	    server.WithConfig(cfg),
//	    server.WithLogger(logger),
//	)
package server
