// Package main provides the entry point for the Reachy Mini CLI.
//
// The Reachy Mini CLI operates the robot's daemon, diagnoses the
// installation, and manages the app development workflow.
package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

// Version information set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reachy-mini",
	Short: "Your Reachy Mini, from the terminal",
	Long:  ui.GetHelpText(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			log.SetLevel(log.DebugLevel)
			log.Debug("Debug logging enabled")
		}

		// Set quiet mode from global flag
		quiet, _ := cmd.Flags().GetBool("quiet")
		ui.SetQuietMode(quiet)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// This function also handles "did you mean" suggestions when users type
// commands in the wrong order (e.g., "reachy-mini create app" instead of
// "reachy-mini app create").
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// Check if this is an unknown command error and provide suggestions
		errStr := err.Error()
		if strings.Contains(errStr, "unknown command") {
			// Error format: unknown command "create" for "reachy-mini"
			if start := strings.Index(errStr, `unknown command "`); start != -1 {
				start += len(`unknown command "`)
				if end := strings.Index(errStr[start:], `"`); end != -1 {
					unknownCmd := errStr[start : start+end]

					args := os.Args[1:]

					if suggestion, found := suggestCorrectCommand(unknownCmd, args, rootCmd); found {
						printCommandSuggestion(suggestion)
					}
				}
			}
		}
		os.Exit(1)
	}
}

func init() {
	// Accept snake_case flag spellings (e.g. --wake_up for --wake-up).
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("dev", false, "Probe alternative daemon ports when the default is closed")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON (where supported)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(cameraCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(appCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(docsCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintBanner(version)
		ui.PrintInfo("Version: %s", version)
		ui.PrintInfo("Commit: %s", commit)
		ui.PrintInfo("Built: %s", date)
	},
}

// docsCmd opens the documentation in the browser.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Open Reachy Mini documentation in browser",
	Run: func(cmd *cobra.Command, args []string) {
		docsURL := "https://docs.pollen-robotics.com"
		ui.PrintInfo("Opening documentation: %s", docsURL)
		if err := ui.OpenBrowser(docsURL); err != nil {
			ui.PrintError("Failed to open browser: %v", err)
		}
	},
}

func main() {
	Execute()
}
