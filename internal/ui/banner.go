// Package ui provides the ASCII banner for the reachy-mini CLI.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Banner is the ASCII art logo for the reachy-mini CLI.
const banner = `
  ██████╗ ███████╗ █████╗  ██████╗██╗  ██╗██╗   ██╗
  ██╔══██╗██╔════╝██╔══██╗██╔════╝██║  ██║╚██╗ ██╔╝
  ██████╔╝█████╗  ███████║██║     ███████║ ╚████╔╝
  ██╔══██╗██╔══╝  ██╔══██║██║     ██╔══██║  ╚██╔╝
  ██║  ██║███████╗██║  ██║╚██████╗██║  ██║   ██║
  ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝   ╚═╝  mini`

// tagline is the product tagline.
const tagline = "Your Reachy Mini, from the terminal"

// PrintBanner prints the Reachy Mini banner with version info.
//
// Parameters:
//   - version: The CLI version string to display
func PrintBanner(version string) {
	if quietMode {
		return
	}

	styledBanner := lipgloss.NewStyle().
		Foreground(Coral).
		Bold(true).
		Render(banner)

	fmt.Println(styledBanner)
	fmt.Println()

	taglineStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		PaddingLeft(2)
	fmt.Println(taglineStyle.Render(tagline))
	fmt.Println()

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		PaddingLeft(2)

	fmt.Println(infoStyle.Render(fmt.Sprintf("Version: %s", version)))
	fmt.Println(infoStyle.Render("Docs:    https://docs.pollen-robotics.com"))
	fmt.Println()
}

// GetHelpText returns the curated help text for the CLI, used by --help.
func GetHelpText() string {
	coral := lipgloss.NewStyle().Foreground(Coral).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	return fmt.Sprintf(`%s

%s
  %s          Check robot health and connectivity
  %s   Show daemon state
  %s    Start the daemon (wakes the robot)
  %s     Authenticate with Hugging Face

%s
  %s   Create a new robot app
  %s           Validate an app project
  %s             Run an app locally with live reload

%s
  %s        Install the agent skill for your AI tool
  %s            Start MCP server for AI integration

%s  https://docs.pollen-robotics.com
%s  https://discord.gg/pollen-robotics`,
		dim.Render(tagline+"."),
		coral.Render("Operate the robot:"),
		coral.Render("reachy-mini doctor"),
		coral.Render("reachy-mini daemon status"),
		coral.Render("reachy-mini daemon start"),
		coral.Render("reachy-mini auth login"),
		coral.Render("Build apps:"),
		coral.Render("reachy-mini app create <name>"),
		coral.Render("reachy-mini app check"),
		coral.Render("reachy-mini app dev"),
		coral.Render("AI/LLM:"),
		coral.Render("reachy-mini skill install"),
		coral.Render("reachy-mini mcp serve"),
		coral.Render("Docs: "),
		coral.Render("Help: "),
	)
}
