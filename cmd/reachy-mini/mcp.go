// Package main provides the MCP command for the reachy-mini CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pollen-robotics/reachy-mini-cli/internal/mcp"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

var (
	mcpInstallClaude bool
	mcpInstallCursor bool
	mcpInstallForce  bool
)

// mcpConfigPaths maps host names to their MCP configuration files,
// relative to the home directory.
var mcpConfigPaths = map[string]string{
	"claude": ".claude.json",
	"cursor": ".cursor/mcp.json",
}

// mcpCmd is the parent command for MCP operations.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long: `MCP (Model Context Protocol) server commands.

The MCP server lets AI agents drive the robot through the Model
Context Protocol: daemon control, camera capture, app scaffolding
and workspace validation.

Commands:
  serve    - Start the MCP server over stdio
  install  - Register the server with Claude Code or Cursor`,
}

// mcpServeCmd starts the MCP server.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server over stdio",
	Long: `Start the Reachy Mini MCP server over stdio.

This command starts an MCP server that communicates via JSON-RPC
over stdin/stdout. It's designed to be launched by AI hosts like
Cursor or Claude Code.

The server exposes the following tools:
  - daemon_status: Daemon state, version, uptime, active app
  - daemon_start / daemon_stop: Power the robot on and off
  - camera_frame: Capture a JPEG frame (base64)
  - list_apps / start_app / stop_app: Manage installed apps
  - create_app / check_app: Scaffold and validate app workspaces

Example Cursor configuration:
  {
    "mcpServers": {
      "reachy-mini": {
        "command": "reachy-mini",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

// mcpInstallCmd registers the server with an AI host's MCP config.
var mcpInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the MCP server with an AI host",
	Long: `Register the reachy-mini MCP server with an AI host.

Edits the host's MCP configuration file in place, preserving every
other entry in it. Without flags, installs to every host whose config
file already exists.

EXAMPLES:
  reachy-mini mcp install              # Auto-detect hosts
  reachy-mini mcp install --claude     # Claude Code (~/.claude.json)
  reachy-mini mcp install --cursor     # Cursor (~/.cursor/mcp.json)
  reachy-mini mcp install --force      # Overwrite an existing entry`,
	Args: cobra.NoArgs,
	RunE: runMCPInstall,
}

func init() {
	mcpInstallCmd.Flags().BoolVar(&mcpInstallClaude, "claude", false, "Install for Claude Code")
	mcpInstallCmd.Flags().BoolVar(&mcpInstallCursor, "cursor", false, "Install for Cursor")
	mcpInstallCmd.Flags().BoolVar(&mcpInstallForce, "force", false, "Overwrite an existing reachy-mini entry")

	mcpCmd.AddCommand(mcpServeCmd)
	mcpCmd.AddCommand(mcpInstallCmd)
}

// runMCPServe starts the MCP server.
func runMCPServe(cmd *cobra.Command, args []string) error {
	server, err := mcp.NewServer(version)
	if err != nil {
		ui.PrintError("Failed to create MCP server: %v", err)
		return err
	}

	// Run the server (blocks until client disconnects)
	return server.Run(cmd.Context())
}

// runMCPInstall registers the server in host MCP config files.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command arguments (unused, validated as empty by cobra)
//
// Returns:
//   - error: If no host could be configured
func runMCPInstall(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not resolve home directory: %w", err)
	}

	hosts := make([]string, 0, len(mcpConfigPaths))
	if mcpInstallClaude {
		hosts = append(hosts, "claude")
	}
	if mcpInstallCursor {
		hosts = append(hosts, "cursor")
	}
	if len(hosts) == 0 {
		// Auto-detect: only hosts whose config file already exists.
		for host, rel := range mcpConfigPaths {
			if _, err := os.Stat(filepath.Join(home, rel)); err == nil {
				hosts = append(hosts, host)
			}
		}
	}
	if len(hosts) == 0 {
		ui.PrintError("No MCP hosts detected.")
		ui.PrintInfo("Specify one explicitly:")
		ui.PrintDim("  reachy-mini mcp install --claude")
		ui.PrintDim("  reachy-mini mcp install --cursor")
		return fmt.Errorf("no install target found")
	}

	var installed int
	for _, host := range hosts {
		path := filepath.Join(home, mcpConfigPaths[host])
		if err := installMCPEntry(path); err != nil {
			ui.PrintWarning("%s: %v", host, err)
			continue
		}
		ui.PrintSuccess("Registered reachy-mini in %s", path)
		installed++
	}

	if installed == 0 {
		return fmt.Errorf("all installations failed")
	}

	ui.Println()
	ui.PrintInfo("Restart the host to pick up the new server.")
	return nil
}

// installMCPEntry adds the reachy-mini server to one MCP config file.
// The rest of the file is preserved untouched.
//
// Parameters:
//   - path: The host's MCP configuration file
//
// Returns:
//   - error: If the file cannot be read, edited or written
func installMCPEntry(path string) error {
	doc := "{}"
	if data, err := os.ReadFile(path); err == nil {
		if !gjson.ValidBytes(data) {
			return fmt.Errorf("%s is not valid JSON, not touching it", path)
		}
		doc = string(data)
	} else if !os.IsNotExist(err) {
		return err
	}

	if gjson.Get(doc, "mcpServers.reachy-mini").Exists() && !mcpInstallForce {
		ui.PrintDim("  Already registered in %s (use --force to overwrite)", path)
		return nil
	}

	doc, err := sjson.Set(doc, "mcpServers.reachy-mini", map[string]interface{}{
		"command": "reachy-mini",
		"args":    []string{"mcp", "serve"},
	})
	if err != nil {
		return fmt.Errorf("failed to edit config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0644)
}
