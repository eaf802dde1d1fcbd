package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/shyoon1991/prometheus-mcp-server/internal/server"
	"github.com/shyoon1991/prometheus-mcp-server/internal/tools/prometheus"
)

// simpleLogger provides basic logging for the server
type simpleLogger struct{}

func (l *simpleLogger) Debug(msg string, args ...interface{}) {
	log.Printf("[DEBUG] %s %v", msg, args)
}

func (l *simpleLogger) Info(msg string, args ...interface{}) {
	log.Printf("[INFO] %s %v", msg, args)
}

func (l *simpleLogger) Warn(msg string, args ...interface{}) {
	log.Printf("[WARN] %s %v", msg, args)
}

func (l *simpleLogger) Error(msg string, args ...interface{}) {
	log.Printf("[ERROR] %s %v", msg, args)
}

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		debugMode bool

		// Transport options
		transport       string
		httpAddr        string
		sseEndpoint     string
		messageEndpoint string
		httpEndpoint    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Prometheus MCP server",
		Long: `Start the Prometheus MCP server to provide tools for interacting
with Prometheus metrics via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Environment Variables:
  PROMETHEUS_URL             - Prometheus server URL (single-tenant mode)
  PROMETHEUS_URL_SSL_VERIFY  - Verify TLS certificates (default: true)
  PROMETHEUS_USERNAME        - Optional: Basic auth username
  PROMETHEUS_PASSWORD        - Optional: Basic auth password
  PROMETHEUS_TOKEN           - Optional: Bearer token for authentication
  ORG_ID                     - Optional: Organization ID for multi-tenant backends
  PROMETHEUS_CUSTOM_HEADERS  - Optional: JSON object of extra request headers
  PROMETHEUS_REQUEST_TIMEOUT - Optional: Per-call timeout in seconds (default: 30)
  PROMETHEUS_TENANTS         - Optional: JSON array of tenant objects
  PROMETHEUS_DEFAULT_TENANT  - Optional: Tenant used when a call names none
  PROMETHEUS_DISABLE_LINKS   - Optional: Omit Prometheus UI links from results
  TOOL_PREFIX                - Optional: Prefix applied to all tool names

Either PROMETHEUS_URL or PROMETHEUS_TENANTS must be set; malformed JSON in
PROMETHEUS_TENANTS or PROMETHEUS_CUSTOM_HEADERS aborts startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(transport, debugMode,
				httpAddr, sseEndpoint, messageEndpoint, httpEndpoint)
		},
	}

	// Add flags for configuring the server
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")

	// Transport flags
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&messageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	return cmd
}

// runServe contains the main server logic with support for multiple transports
func runServe(transport string, debugMode bool,
	httpAddr, sseEndpoint, messageEndpoint, httpEndpoint string) error {

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration errors are fatal: the process never reaches a
	// serving state with a malformed environment.
	config, err := server.LoadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := setupTracing(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("Error during tracer shutdown: %v", err)
		}
	}()

	// Create server context
	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithDebugMode(debugMode),
		server.WithLogger(&simpleLogger{}),
		server.WithConfig(config),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	// Log configuration
	printConfigSummary(config)

	// Create MCP server
	serverName := "prometheus-mcp-server"
	if config.ToolPrefix != "" {
		serverName = fmt.Sprintf("prometheus-mcp-server (%s)", config.ToolPrefix)
	}
	mcpSrv := mcpserver.NewMCPServer(serverName, rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register Prometheus tools
	if err := prometheus.RegisterPrometheusTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register Prometheus tools: %w", err)
	}

	fmt.Printf("Starting Prometheus MCP server with %s transport...\n", transport)

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "sse":
		return runSSEServer(mcpSrv, httpAddr, sseEndpoint, messageEndpoint, shutdownCtx)
	case "streamable-http":
		return runStreamableHTTPServer(mcpSrv, httpAddr, httpEndpoint, shutdownCtx)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", transport)
	}
}

// printConfigSummary logs the effective configuration without secrets.
func printConfigSummary(config *server.Config) {
	fmt.Printf("Prometheus configuration:\n")
	if config.MultiTenant() {
		fmt.Printf("  Tenants: %d configured\n", len(config.Tenants))
		for _, t := range config.Tenants {
			fmt.Printf("    - %s: %s\n", t.Name, t.URL)
		}
		if config.DefaultTenant != "" {
			fmt.Printf("  Default tenant: %s\n", config.DefaultTenant)
		}
	} else {
		fmt.Printf("  Server URL: %s\n", config.URL)
		if config.Username != "" && config.Password != "" {
			fmt.Printf("  Authentication: Basic auth (username: %s)\n", config.Username)
		} else if config.Token != "" {
			fmt.Printf("  Authentication: Bearer token\n")
		} else {
			fmt.Printf("  Authentication: None\n")
		}
		if config.OrgID != "" {
			fmt.Printf("  Organization ID: %s\n", config.OrgID)
		}
	}
	fmt.Printf("  Request timeout: %s\n", config.RequestTimeout)
	if !config.SSLVerify {
		fmt.Printf("  WARNING: TLS certificate verification is disabled\n")
	}
}

// setupTracing installs an OTLP trace exporter when an OTLP endpoint is
// configured in the environment; otherwise tracing stays a no-op.
func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" && os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName("prometheus-mcp-server"),
			semconv.ServiceVersion(rootCmd.Version),
		))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// runStdioServer runs the server with STDIO transport
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	// Start the server in a goroutine so we can handle shutdown signals
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	// Wait for server completion
	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}

	fmt.Println("Server gracefully stopped")
	return nil
}

// runSSEServer runs the server with SSE transport
func runSSEServer(mcpSrv *mcpserver.MCPServer, addr, sseEndpoint, messageEndpoint string, ctx context.Context) error {
	// Create SSE server with custom endpoints
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(sseEndpoint),
		mcpserver.WithMessageEndpoint(messageEndpoint),
	)

	fmt.Printf("SSE server starting on %s\n", addr)
	fmt.Printf("  SSE endpoint: %s\n", sseEndpoint)
	fmt.Printf("  Message endpoint: %s\n", messageEndpoint)

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := sseServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping SSE server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down SSE server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("SSE server stopped with error: %w", err)
		}
		fmt.Println("SSE server stopped normally")
	}

	fmt.Println("SSE server gracefully stopped")
	return nil
}

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, addr, endpoint string, ctx context.Context) error {
	// Create Streamable HTTP server with custom endpoint
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(endpoint),
	)

	fmt.Printf("Streamable HTTP server starting on %s\n", addr)
	fmt.Printf("  HTTP endpoint: %s\n", endpoint)

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
