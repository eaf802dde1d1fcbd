package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prometheus-mcp-server",
	Short: "MCP server for Prometheus metrics and queries",
	Long: `prometheus-mcp-server is a Model Context Protocol (MCP) server that
provides access to Prometheus metrics and queries through standardized
MCP interfaces.

This allows AI assistants to execute PromQL queries, discover metrics,
and analyze metrics data from one or more Prometheus instances. Multiple
backends can be configured as named tenants, each with its own URL,
credentials and headers, selectable per tool call.

The server supports various authentication methods including basic auth
and bearer tokens, and is configured through environment variables.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version for the root command
func SetVersion(version string) {
	rootCmd.Version = version
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
