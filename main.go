package main

import "github.com/shyoon1991/prometheus-mcp-server/cmd"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
