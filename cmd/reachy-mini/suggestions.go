// Package main provides command suggestion functionality for the CLI.
//
// This file implements "did you mean" suggestions when users type commands
// in the wrong order (e.g., "reachy-mini create app" instead of
// "reachy-mini app create").
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

// subcommandMap maps subcommand names to their parent commands.
// This is used to suggest the correct command when users type commands
// in the wrong order.
//
// Example: "status" -> ["daemon", "camera", "service"] means "status" is a
// subcommand of all three parents.
var subcommandMap = map[string][]string{
	"status":  {"daemon", "camera", "service"},
	"start":   {"daemon", "app"},
	"stop":    {"daemon", "app"},
	"restart": {"daemon", "service"},
	"logs":    {"daemon"},
	"watch":   {"daemon"},
	"create":  {"app"},
	"check":   {"app"},
	"dev":     {"app"},
	"list":    {"app"},
	"frame":   {"camera"},
	"stream":  {"camera"},
	"sync":    {"service"},
	"install": {"skill", "mcp"},
	"show":    {"skill"},
	"export":  {"skill"},
	"login":   {"auth"},
	"logout":  {"auth"},
	"whoami":  {"auth"},
	"serve":   {"mcp"},
}

// suggestCorrectCommand checks if the user typed a subcommand at the wrong level
// and returns a suggestion if found.
//
// Parameters:
//   - unknownCmd: The command that was not recognized by Cobra
//   - allArgs: All command line arguments (excluding program name)
//   - rootCmd: The root command to search for valid parent commands
//
// Returns:
//   - string: A suggested command string with correct order, or empty if no suggestion found
//   - bool: True if a valid suggestion was found
//
// Example:
//
//	unknownCmd: "create"
//	allArgs: ["--json", "create", "app", "my_dance_app"]
//	Returns: "reachy-mini --json app create my_dance_app", true
func suggestCorrectCommand(unknownCmd string, allArgs []string, rootCmd *cobra.Command) (string, bool) {
	parentCmds, isSubcommand := subcommandMap[unknownCmd]
	if !isSubcommand {
		return "", false
	}

	// Find the position of the unknown command in args
	unknownCmdIdx := -1
	for i, arg := range allArgs {
		if arg == unknownCmd {
			unknownCmdIdx = i
			break
		}
	}

	if unknownCmdIdx == -1 {
		return "", false
	}

	// Check if any of the args after the unknown command is a valid parent command
	for i := unknownCmdIdx + 1; i < len(allArgs); i++ {
		arg := allArgs[i]

		// Skip flags and their values
		if strings.HasPrefix(arg, "-") {
			continue
		}

		for _, parentCmd := range parentCmds {
			if arg != parentCmd {
				continue
			}
			// Verify the parent command exists
			for _, cmd := range rootCmd.Commands() {
				if cmd.Name() != parentCmd {
					continue
				}
				// Rebuild the command line in the right order:
				// flags before the unknown command stay first, then
				// parent and subcommand, then everything else.
				var parts []string
				parts = append(parts, "reachy-mini")

				for j := 0; j < unknownCmdIdx; j++ {
					parts = append(parts, allArgs[j])
				}

				parts = append(parts, parentCmd, unknownCmd)

				for j := unknownCmdIdx + 1; j < i; j++ {
					parts = append(parts, allArgs[j])
				}

				for j := i + 1; j < len(allArgs); j++ {
					parts = append(parts, allArgs[j])
				}

				return strings.Join(parts, " "), true
			}
		}
	}

	return "", false
}

// printCommandSuggestion prints a "did you mean" suggestion to the user.
//
// Parameters:
//   - suggestion: The suggested command string to display
func printCommandSuggestion(suggestion string) {
	ui.Println()
	ui.PrintInfo("Did you mean:")
	ui.PrintDim("  %s", suggestion)
	ui.Println()
}
