package prometheus

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/shyoon1991/prometheus-mcp-server/internal/server"
)

func TestRegisterPrometheusTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "1.0.0")

	ctx := context.Background()
	sc, err := server.NewServerContext(ctx,
		server.WithConfig(&server.Config{
			URL:            "http://localhost:9090",
			SSLVerify:      true,
			RequestTimeout: server.DefaultRequestTimeout,
		}),
		server.WithLogger(&testLogger{}),
	)
	require.NoError(t, err)
	defer sc.Shutdown()

	require.NoError(t, RegisterPrometheusTools(s, sc))
}

func TestRegisterPrometheusToolsWithPrefix(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "1.0.0")

	ctx := context.Background()
	sc, err := server.NewServerContext(ctx,
		server.WithConfig(&server.Config{
			URL:            "http://localhost:9090",
			SSLVerify:      true,
			RequestTimeout: server.DefaultRequestTimeout,
			ToolPrefix:     "prod",
		}),
		server.WithLogger(&testLogger{}),
	)
	require.NoError(t, err)
	defer sc.Shutdown()

	require.NoError(t, RegisterPrometheusTools(s, sc))
}

func TestToolName(t *testing.T) {
	require.Equal(t, "execute_query", toolName("", "execute_query"))
	require.Equal(t, "prod_execute_query", toolName("prod", "execute_query"))
}

func TestArguments(t *testing.T) {
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "execute_query",
			Arguments: map[string]interface{}{"query": "up"},
		},
	}
	args := arguments(request)
	require.Equal(t, "up", args["query"])

	// A request without arguments yields an empty map, not nil.
	empty := arguments(mcp.CallToolRequest{})
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{
		"limit":  float64(10),
		"offset": 3,
		"filter": "http",
	}
	require.Equal(t, 10, intArg(args, "limit", -1))
	require.Equal(t, 3, intArg(args, "offset", 0))
	require.Equal(t, -1, intArg(args, "missing", -1))
	require.Equal(t, -1, intArg(args, "filter", -1), "non-numeric values fall back to the default")
}

func TestToToolResultSuccess(t *testing.T) {
	result, err := toToolResult(success(map[string]string{"status": "ok"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := result.Content[0].(mcp.TextContent).Text
	require.Contains(t, text, `"status": "ok"`)
}

func TestToToolResultError(t *testing.T) {
	result, err := toToolResult(failure(dispatchErrorf(Timeout, "request exceeded the configured timeout")))
	require.NoError(t, err, "dispatch errors become tool-level errors, not Go errors")
	require.True(t, result.IsError)

	text := result.Content[0].(mcp.TextContent).Text
	require.Contains(t, text, "timeout")
}
